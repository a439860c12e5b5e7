package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/database"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
)

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Upsert(ctx context.Context, product *domain.Product) error
	List(ctx context.Context) ([]domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	Update(ctx context.Context, sku string, update domain.ProductUpdate) (*domain.Product, error)
	UnitCosts(ctx context.Context) (map[string]float64, error)
}

const productColumns = `product_id, sku, name, COALESCE(category, '') AS category, unit_cost`

type productRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := r.db.Rebind(`
		INSERT INTO product_dim (sku, name, category, unit_cost)
		VALUES (?, ?, ?, ?)
		RETURNING product_id
	`)

	err := r.db.QueryRowxContext(ctx, query,
		product.SKU, product.Name, product.Category, product.UnitCost,
	).Scan(&product.ID)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("create product %s: %w", product.SKU, domain.ErrDuplicateSKU)
	}
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *productRepository) Upsert(ctx context.Context, product *domain.Product) error {
	query := r.db.Rebind(`
		INSERT INTO product_dim (sku, name, category, unit_cost)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (sku)
		DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			unit_cost = EXCLUDED.unit_cost
		RETURNING product_id
	`)

	err := r.db.QueryRowxContext(ctx, query,
		product.SKU, product.Name, product.Category, product.UnitCost,
	).Scan(&product.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0)
	query := `SELECT ` + productColumns + ` FROM product_dim ORDER BY product_id DESC`
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}
	return products, nil
}

func (r *productRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	var product domain.Product
	query := r.db.Rebind(`SELECT ` + productColumns + ` FROM product_dim WHERE sku = ?`)
	err := r.db.GetContext(ctx, &product, query, sku)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting product %s: %w", sku, err)
	}
	return &product, nil
}

func (r *productRepository) Update(ctx context.Context, sku string, update domain.ProductUpdate) (*domain.Product, error) {
	current, err := r.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	if update.Category != nil {
		current.Category = *update.Category
	}
	if update.UnitCost != nil {
		current.UnitCost = update.UnitCost
	}

	query := r.db.Rebind(`UPDATE product_dim SET category = ?, unit_cost = ? WHERE product_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, current.Category, current.UnitCost, current.ID); err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", sku, err)
	}
	return current, nil
}

// UnitCosts returns the configured unit cost per SKU, skipping products without one
func (r *productRepository) UnitCosts(ctx context.Context) (map[string]float64, error) {
	var rows []struct {
		SKU      string  `db:"sku"`
		UnitCost float64 `db:"unit_cost"`
	}
	query := `SELECT sku, unit_cost FROM product_dim WHERE unit_cost IS NOT NULL`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error loading unit costs: %w", err)
	}

	costs := make(map[string]float64, len(rows))
	for _, row := range rows {
		costs[row.SKU] = row.UnitCost
	}
	return costs, nil
}
