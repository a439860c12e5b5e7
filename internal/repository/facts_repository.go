package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
)

// SalesRepository reads the sales fact table
type SalesRepository interface {
	ListSalesSince(ctx context.Context, since time.Time) ([]domain.SalesObservation, error)
	SummaryBySKU(ctx context.Context) ([]domain.SKUSummary, error)
}

// InventoryRepository reads the inventory snapshot table
type InventoryRepository interface {
	ListSnapshots(ctx context.Context) ([]domain.InventoryObservation, error)
}

type salesRepository struct {
	db *sqlx.DB
}

func NewSalesRepository(db *sqlx.DB) SalesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) ListSalesSince(ctx context.Context, since time.Time) ([]domain.SalesObservation, error) {
	query := r.db.Rebind(`
		SELECT s.date_key, p.sku, s.units, s.revenue
		FROM sales_fact s
		JOIN product_dim p ON p.product_id = s.product_id
		WHERE s.date_key >= ?
		ORDER BY s.id
	`)

	sales := make([]domain.SalesObservation, 0)
	if err := r.db.SelectContext(ctx, &sales, query, since.UTC()); err != nil {
		return nil, fmt.Errorf("error listing sales since %s: %w", since.Format("2006-01-02"), err)
	}
	return sales, nil
}

func (r *salesRepository) SummaryBySKU(ctx context.Context) ([]domain.SKUSummary, error) {
	query := `
		SELECT
			p.sku,
			COALESCE(SUM(s.units), 0) AS total_units,
			COALESCE(SUM(s.revenue), 0) AS total_revenue
		FROM product_dim p
		JOIN sales_fact s ON s.product_id = p.product_id
		GROUP BY p.sku
		ORDER BY p.sku
	`

	var rows []struct {
		SKU          string  `db:"sku"`
		TotalUnits   float64 `db:"total_units"`
		TotalRevenue float64 `db:"total_revenue"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error summarising sales: %w", err)
	}

	// Units are reported as whole units, truncated toward zero.
	summaries := make([]domain.SKUSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, domain.SKUSummary{
			SKU:          row.SKU,
			TotalUnits:   int64(math.Trunc(row.TotalUnits)),
			TotalRevenue: row.TotalRevenue,
		})
	}
	return summaries, nil
}

type inventoryRepository struct {
	db *sqlx.DB
}

func NewInventoryRepository(db *sqlx.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) ListSnapshots(ctx context.Context) ([]domain.InventoryObservation, error) {
	query := `
		SELECT i.id, i.ts, p.sku, i.location_id, i.on_hand
		FROM inventory_snapshot i
		JOIN product_dim p ON p.product_id = i.product_id
		ORDER BY i.id
	`

	snapshots := make([]domain.InventoryObservation, 0)
	if err := r.db.SelectContext(ctx, &snapshots, query); err != nil {
		return nil, fmt.Errorf("error listing inventory snapshots: %w", err)
	}
	return snapshots, nil
}
