package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
)

// InventoryMigrations returns the inventory service schema.
func InventoryMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS category (
			category_number BIGSERIAL PRIMARY KEY,
			category_name   VARCHAR(50) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS product (
			id_product              BIGSERIAL PRIMARY KEY,
			category_number         BIGINT NOT NULL REFERENCES category (category_number),
			product_name            VARCHAR(50) NOT NULL,
			product_characteristics VARCHAR(100) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS store_product (
			upc                 VARCHAR(12) PRIMARY KEY,
			upc_prom            VARCHAR(12) REFERENCES store_product (upc),
			id_product          BIGINT NOT NULL REFERENCES product (id_product),
			selling_price       NUMERIC(13, 4) NOT NULL CHECK (selling_price >= 0),
			products_number     INTEGER NOT NULL CHECK (products_number >= 0),
			promotional_product BOOLEAN NOT NULL,
			is_deleted          BOOLEAN NOT NULL DEFAULT false
		)`,
		`CREATE TABLE IF NOT EXISTS batch (
			id            BIGSERIAL PRIMARY KEY,
			upc           VARCHAR(12) NOT NULL REFERENCES store_product (upc),
			delivery_date DATE NOT NULL,
			expiring_date DATE NOT NULL,
			quantity      INTEGER NOT NULL CHECK (quantity > 0),
			selling_price NUMERIC(13, 4) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS batch_expiring_date_idx ON batch (expiring_date)`,
		`CREATE INDEX IF NOT EXISTS product_name_idx ON product (product_name, id_product)`,
	}
}

// StaffMigrations returns the staff service schema.
func StaffMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS employee (
			id_employee     VARCHAR(10) PRIMARY KEY,
			empl_surname    VARCHAR(50) NOT NULL,
			empl_name       VARCHAR(50) NOT NULL,
			empl_patronymic VARCHAR(50),
			empl_role       VARCHAR(10) NOT NULL CHECK (empl_role IN ('MANAGER', 'CASHIER')),
			salary          NUMERIC(13, 4) NOT NULL CHECK (salary >= 0),
			date_of_birth   DATE NOT NULL,
			date_of_start   DATE NOT NULL,
			phone_number    VARCHAR(13) NOT NULL,
			city            VARCHAR(50) NOT NULL,
			street          VARCHAR(50) NOT NULL,
			zip_code        VARCHAR(9) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS employee_surname_idx ON employee (empl_surname, id_employee)`,
	}
}

// SchemaManager gives every test its own PostgreSQL schema so tests sharing
// one container never see each other's rows.
type SchemaManager struct {
	db      *sqlx.DB
	schemas []string
	mu      sync.Mutex
}

// NewSchemaManager creates a new schema manager
func NewSchemaManager(db *sqlx.DB) *SchemaManager {
	return &SchemaManager{db: db}
}

// Create creates schema name and runs migrations inside it.
func (sm *SchemaManager) Create(ctx context.Context, name string, migrations []string) (string, error) {
	schema := "test_" + strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(name))

	conn, err := sm.db.Connx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
		return "", fmt.Errorf("failed to reset schema: %w", err)
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA %s", schema)); err != nil {
		return "", fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", schema)); err != nil {
		return "", fmt.Errorf("failed to set search_path: %w", err)
	}
	defer conn.ExecContext(ctx, "RESET search_path")

	for i, m := range migrations {
		if _, err := conn.ExecContext(ctx, m); err != nil {
			return "", fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	sm.mu.Lock()
	sm.schemas = append(sm.schemas, schema)
	sm.mu.Unlock()

	return schema, nil
}

// Drop removes a schema created by Create.
func (sm *SchemaManager) Drop(ctx context.Context, schema string) error {
	_, err := sm.db.ExecContext(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema))
	return err
}

// Cleanup drops every schema created by this manager.
func (sm *SchemaManager) Cleanup(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for _, schema := range sm.schemas {
		if err := sm.Drop(ctx, schema); err != nil {
			return err
		}
	}
	sm.schemas = nil
	return nil
}
