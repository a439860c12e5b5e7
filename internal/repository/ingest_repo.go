package repository

import (
	"context"
	"fmt"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/database"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
)

// insertChunkSize keeps batched inserts below SQLite's bound-variable limit
const insertChunkSize = 500

// IngestRepository writes fact rows inside a caller-owned transaction
type IngestRepository struct {
	db *database.DB
}

func NewIngestRepository(db *database.DB) *IngestRepository {
	return &IngestRepository{db: db}
}

// WithTx runs fn in a single write transaction
func (r *IngestRepository) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return r.db.WithTx(ctx, fn)
}

// ProductIDsBySKU maps every known SKU to its product id
func (r *IngestRepository) ProductIDsBySKU(ctx context.Context, tx *sqlx.Tx) (map[string]int64, error) {
	var rows []struct {
		ID  int64  `db:"product_id"`
		SKU string `db:"sku"`
	}
	if err := tx.SelectContext(ctx, &rows, `SELECT product_id, sku FROM product_dim`); err != nil {
		return nil, fmt.Errorf("failed to load product ids: %w", err)
	}

	ids := make(map[string]int64, len(rows))
	for _, row := range rows {
		ids[row.SKU] = row.ID
	}
	return ids, nil
}

// EnsureLocations inserts placeholder location rows for ids not seen before
func (r *IngestRepository) EnsureLocations(ctx context.Context, tx *sqlx.Tx, ids []int64) error {
	query := tx.Rebind(`
		INSERT INTO location_dim (location_id, type, city, region)
		VALUES (?, '', '', '')
		ON CONFLICT (location_id) DO NOTHING
	`)
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("failed to ensure location %d: %w", id, err)
		}
	}
	return nil
}

func (r *IngestRepository) InsertSales(ctx context.Context, tx *sqlx.Tx, facts []domain.SalesFact) error {
	query := `
		INSERT INTO sales_fact (date_key, product_id, location_id, units, revenue)
		VALUES (:date_key, :product_id, :location_id, :units, :revenue)
	`
	for start := 0; start < len(facts); start += insertChunkSize {
		end := min(start+insertChunkSize, len(facts))
		if _, err := tx.NamedExecContext(ctx, query, facts[start:end]); err != nil {
			return fmt.Errorf("failed to insert sales facts: %w", err)
		}
	}
	return nil
}

func (r *IngestRepository) InsertSnapshots(ctx context.Context, tx *sqlx.Tx, snapshots []domain.InventorySnapshot) error {
	query := `
		INSERT INTO inventory_snapshot (ts, product_id, location_id, on_hand, on_order, backorder)
		VALUES (:ts, :product_id, :location_id, :on_hand, :on_order, :backorder)
	`
	for start := 0; start < len(snapshots); start += insertChunkSize {
		end := min(start+insertChunkSize, len(snapshots))
		if _, err := tx.NamedExecContext(ctx, query, snapshots[start:end]); err != nil {
			return fmt.Errorf("failed to insert inventory snapshots: %w", err)
		}
	}
	return nil
}

// ResetFacts deletes every sales and inventory row. Products and locations are kept.
func (r *IngestRepository) ResetFacts(ctx context.Context) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"sales_fact", "inventory_snapshot"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to reset %s: %w", table, err)
			}
		}
		return nil
	})
}
