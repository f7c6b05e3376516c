// Package testutil provides testing utilities for zlagoda services: the
// PostgreSQL and Redis testcontainers behind the integration suites,
// sqlmock wrappers and HTTP helpers.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:15-alpine"
	redisImage    = "redis:7-alpine"

	testDatabase = "zlagoda_test"
	testUser     = "zlagoda"
	testPassword = "zlagoda"
)

// PostgresContainer is the store behind the integration suites
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// imageFor lets CI pin a mirrored image, e.g. ZLAGODA_TEST_POSTGRES_IMAGE.
func imageFor(env, fallback string) string {
	if image := os.Getenv(env); image != "" {
		return image
	}
	return fallback
}

// StartPostgres starts an empty zlagoda database. Schemas are created per
// test by SchemaManager.
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(imageFor("ZLAGODA_TEST_POSTGRES_IMAGE", postgresImage)),
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testUser),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	// Expiry compares dates, so the session runs in UTC like production.
	dsn, err := container.ConnectionString(ctx, "sslmode=disable", "timezone=UTC")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: container, DSN: dsn}, nil
}

// Connect opens a pool on the container database
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// StartRedis starts a throwaway Redis for the product cache and returns
// its host:port. The container is terminated when t finishes.
func StartRedis(t *testing.T, ctx context.Context) string {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        imageFor("ZLAGODA_TEST_REDIS_IMAGE", redisImage),
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}
	return endpoint
}
