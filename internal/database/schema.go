package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS product_dim (
		product_id BIGSERIAL PRIMARY KEY,
		sku VARCHAR(64) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		category VARCHAR(128),
		unit_cost DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS location_dim (
		location_id BIGINT PRIMARY KEY,
		type VARCHAR(16) NOT NULL DEFAULT '',
		city VARCHAR(64) NOT NULL DEFAULT '',
		region VARCHAR(64) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS sales_fact (
		id BIGSERIAL PRIMARY KEY,
		date_key DATE NOT NULL,
		product_id BIGINT NOT NULL REFERENCES product_dim(product_id),
		location_id BIGINT NOT NULL REFERENCES location_dim(location_id),
		units DOUBLE PRECISION NOT NULL DEFAULT 0,
		revenue DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS ix_sales_fact_date_key ON sales_fact (date_key)`,
	`CREATE INDEX IF NOT EXISTS ix_sales_fact_product_id ON sales_fact (product_id)`,
	`CREATE TABLE IF NOT EXISTS inventory_snapshot (
		id BIGSERIAL PRIMARY KEY,
		ts TIMESTAMP NOT NULL,
		product_id BIGINT NOT NULL REFERENCES product_dim(product_id),
		location_id BIGINT NOT NULL REFERENCES location_dim(location_id),
		on_hand DOUBLE PRECISION NOT NULL DEFAULT 0,
		on_order DOUBLE PRECISION NOT NULL DEFAULT 0,
		backorder DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS ix_inventory_snapshot_ts ON inventory_snapshot (ts)`,
	`CREATE INDEX IF NOT EXISTS ix_inventory_snapshot_product_id ON inventory_snapshot (product_id)`,
	`CREATE TABLE IF NOT EXISTS ingest_batch (
		batch_id VARCHAR(36) PRIMARY KEY,
		kind VARCHAR(16) NOT NULL,
		file_name VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL,
		rows_inserted INTEGER NOT NULL DEFAULT 0,
		rows_skipped INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS ix_ingest_batch_started_at ON ingest_batch (started_at)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS product_dim (
		product_id INTEGER PRIMARY KEY AUTOINCREMENT,
		sku TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		category TEXT,
		unit_cost REAL
	)`,
	`CREATE TABLE IF NOT EXISTS location_dim (
		location_id INTEGER PRIMARY KEY,
		type TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS sales_fact (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date_key DATE NOT NULL,
		product_id INTEGER NOT NULL REFERENCES product_dim(product_id),
		location_id INTEGER NOT NULL REFERENCES location_dim(location_id),
		units REAL NOT NULL DEFAULT 0,
		revenue REAL NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS ix_sales_fact_date_key ON sales_fact (date_key)`,
	`CREATE INDEX IF NOT EXISTS ix_sales_fact_product_id ON sales_fact (product_id)`,
	`CREATE TABLE IF NOT EXISTS inventory_snapshot (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts TIMESTAMP NOT NULL,
		product_id INTEGER NOT NULL REFERENCES product_dim(product_id),
		location_id INTEGER NOT NULL REFERENCES location_dim(location_id),
		on_hand REAL NOT NULL DEFAULT 0,
		on_order REAL NOT NULL DEFAULT 0,
		backorder REAL NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS ix_inventory_snapshot_ts ON inventory_snapshot (ts)`,
	`CREATE INDEX IF NOT EXISTS ix_inventory_snapshot_product_id ON inventory_snapshot (product_id)`,
	`CREATE TABLE IF NOT EXISTS ingest_batch (
		batch_id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		file_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		rows_inserted INTEGER NOT NULL DEFAULT 0,
		rows_skipped INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS ix_ingest_batch_started_at ON ingest_batch (started_at)`,
}

// Migrate creates the tables if they do not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	statements := postgresSchema
	if db.IsSQLite() {
		statements = sqliteSchema
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	log.Info().Str("driver", db.DriverName()).Int("statements", len(statements)).Msg("schema up to date")
	return nil
}
