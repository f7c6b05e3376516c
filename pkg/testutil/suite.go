package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/zlagoda/zlagoda-backend/pkg/database"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
)

var (
	// Shared across all integration tests of a package.
	globalContainer *PostgresContainer
	globalDB        *sqlx.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite provides a base for integration tests with real PostgreSQL
type IntegrationSuite struct {
	Container *PostgresContainer
	RawDB     *sqlx.DB
	Schemas   *SchemaManager
	Logger    *logger.Logger
}

// NewIntegrationSuite starts (or reuses) the shared container.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    suite, err := testutil.NewIntegrationSuite(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    code := m.Run()
//	    suite.Cleanup(ctx)
//	    testutil.TerminateContainer(ctx)
//	    os.Exit(code)
//	}
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = StartPostgres(ctx)
		if containerErr != nil {
			return
		}
		globalDB, containerErr = globalContainer.Connect(ctx)
	})
	if containerErr != nil {
		return nil, containerErr
	}

	return &IntegrationSuite{
		Container: globalContainer,
		RawDB:     globalDB,
		Schemas:   NewSchemaManager(globalDB),
		Logger:    logger.New("test", "test"),
	}, nil
}

// SetupSchema creates an isolated schema with migrations and returns a
// database handle whose connections default to it.
func (s *IntegrationSuite) SetupSchema(t *testing.T, ctx context.Context, name string, migrations []string) *database.DB {
	t.Helper()

	schema, err := s.Schemas.Create(ctx, name, migrations)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	sep := "?"
	if strings.Contains(s.Container.DSN, "?") {
		sep = "&"
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", fmt.Sprintf("%s%ssearch_path=%s", s.Container.DSN, sep, schema))
	if err != nil {
		t.Fatalf("failed to connect to schema %s: %v", schema, err)
	}

	t.Cleanup(func() {
		db.Close()
		if err := s.Schemas.Drop(ctx, schema); err != nil {
			t.Logf("warning: failed to drop schema %s: %v", schema, err)
		}
	})

	return database.Wrap(db, s.Logger)
}

// Cleanup drops every schema the suite created.
func (s *IntegrationSuite) Cleanup(ctx context.Context) error {
	return s.Schemas.Cleanup(ctx)
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
func TerminateContainer(ctx context.Context) {
	if globalContainer != nil {
		globalContainer.Terminate(ctx)
	}
}
