package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/database"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, database.SQLiteDSN(filepath.Join(t.TempDir(), "repo.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func ptr[T any](v T) *T { return &v }

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestProductRepository_CreateListUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newTestDB(t).DB)

	a := &domain.Product{SKU: "A", Name: "Alpha", Category: "snacks"}
	require.NoError(t, repo.Create(ctx, a))
	assert.NotZero(t, a.ID)

	b := &domain.Product{SKU: "B", Name: "Beta", UnitCost: ptr(2.5)}
	require.NoError(t, repo.Create(ctx, b))

	err := repo.Create(ctx, &domain.Product{SKU: "A", Name: "dup"})
	assert.ErrorIs(t, err, domain.ErrDuplicateSKU)

	products, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "B", products[0].SKU, "newest first")
	assert.Equal(t, "snacks", products[1].Category)

	updated, err := repo.Update(ctx, "A", domain.ProductUpdate{Category: ptr("drinks"), UnitCost: ptr(4.0)})
	require.NoError(t, err)
	assert.Equal(t, "drinks", updated.Category)
	require.NotNil(t, updated.UnitCost)
	assert.Equal(t, 4.0, *updated.UnitCost)

	_, err = repo.Update(ctx, "NOPE", domain.ProductUpdate{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	costs, err := repo.UnitCosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"A": 4.0, "B": 2.5}, costs)
}

func TestProductRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newTestDB(t).DB)

	require.NoError(t, repo.Upsert(ctx, &domain.Product{SKU: "A", Name: "Alpha"}))
	require.NoError(t, repo.Upsert(ctx, &domain.Product{SKU: "A", Name: "Alpha v2", UnitCost: ptr(3.0)}))

	p, err := repo.GetBySKU(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "Alpha v2", p.Name)
	assert.Equal(t, 3.0, *p.UnitCost)
}

func TestFactsRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	products := NewProductRepository(db.DB)
	ingest := NewIngestRepository(db)

	a := &domain.Product{SKU: "A", Name: "Alpha"}
	b := &domain.Product{SKU: "B", Name: "Beta"}
	require.NoError(t, products.Create(ctx, a))
	require.NoError(t, products.Create(ctx, b))

	err := ingest.WithTx(ctx, func(tx *sqlx.Tx) error {
		ids, err := ingest.ProductIDsBySKU(ctx, tx)
		if err != nil {
			return err
		}
		assert.Equal(t, map[string]int64{"A": a.ID, "B": b.ID}, ids)

		if err := ingest.EnsureLocations(ctx, tx, []int64{1, 2, 1}); err != nil {
			return err
		}
		if err := ingest.InsertSales(ctx, tx, []domain.SalesFact{
			{Date: date("2024-01-01"), ProductID: a.ID, LocationID: 1, Units: 10, Revenue: 100},
			{Date: date("2024-03-05"), ProductID: a.ID, LocationID: 1, Units: 4, Revenue: 40},
			{Date: date("2024-03-06"), ProductID: b.ID, LocationID: 2, Units: 1.5, Revenue: 9},
		}); err != nil {
			return err
		}
		return ingest.InsertSnapshots(ctx, tx, []domain.InventorySnapshot{
			{Timestamp: time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC), ProductID: a.ID, LocationID: 1, OnHand: 5},
			{Timestamp: time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC), ProductID: a.ID, LocationID: 2, OnHand: 3, OnOrder: 2},
		})
	})
	require.NoError(t, err)

	sales := NewSalesRepository(db.DB)
	recent, err := sales.ListSalesSince(ctx, date("2024-03-01"))
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "A", recent[0].SKU)
	assert.True(t, recent[0].Date.Equal(date("2024-03-05")))
	assert.Equal(t, 1.5, recent[1].Units)

	summary, err := sales.SummaryBySKU(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.SKUSummary{
		{SKU: "A", TotalUnits: 14, TotalRevenue: 140},
		{SKU: "B", TotalUnits: 1, TotalRevenue: 9},
	}, summary, "fractional units are truncated in the summary")

	snapshots, err := NewInventoryRepository(db.DB).ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, int64(2), snapshots[1].LocationID)
	assert.Equal(t, 3.0, snapshots[1].OnHand)
	assert.True(t, snapshots[1].Timestamp.After(snapshots[0].Timestamp))
}

func TestInsertSales_RejectsUnknownLocation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	products := NewProductRepository(db.DB)
	ingest := NewIngestRepository(db)

	a := &domain.Product{SKU: "A", Name: "Alpha"}
	require.NoError(t, products.Create(ctx, a))

	err := ingest.WithTx(ctx, func(tx *sqlx.Tx) error {
		return ingest.InsertSales(ctx, tx, []domain.SalesFact{
			{Date: date("2024-01-01"), ProductID: a.ID, LocationID: 99, Units: 1},
		})
	})
	assert.Error(t, err, "foreign keys are enforced")
}

func TestBatchRepository_RecordAndListRecent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewBatchRepository(db.DB)

	started := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	done := started.Add(time.Second)

	require.NoError(t, db.WithTx(ctx, func(tx *sqlx.Tx) error {
		return repo.Record(ctx, tx, &domain.IngestBatch{
			BatchID:      "b-1",
			Kind:         domain.UploadSales,
			FileName:     "sales.csv",
			Status:       domain.BatchCompleted,
			RowsInserted: 4,
			StartedAt:    started,
			CompletedAt:  &done,
		})
	}))
	require.NoError(t, repo.Record(ctx, nil, &domain.IngestBatch{
		BatchID:      "b-2",
		Kind:         domain.UploadInventory,
		FileName:     "inventory.csv",
		Status:       domain.BatchFailed,
		ErrorMessage: "missing columns",
		StartedAt:    started.Add(time.Hour),
	}))

	batches, err := repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "b-2", batches[0].BatchID)
	assert.Equal(t, domain.BatchFailed, batches[0].Status)
	assert.Nil(t, batches[0].CompletedAt)
	assert.Equal(t, 4, batches[1].RowsInserted)
	require.NotNil(t, batches[1].CompletedAt)
	assert.True(t, done.Equal(*batches[1].CompletedAt))

	limited, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	err = repo.Record(ctx, nil, &domain.IngestBatch{BatchID: "b-1", Kind: domain.UploadSales, Status: domain.BatchCompleted, StartedAt: started})
	assert.Error(t, err)
}

func TestResetFacts_KeepsProducts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	products := NewProductRepository(db.DB)
	ingest := NewIngestRepository(db)

	a := &domain.Product{SKU: "A", Name: "Alpha"}
	require.NoError(t, products.Create(ctx, a))
	require.NoError(t, ingest.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := ingest.EnsureLocations(ctx, tx, []int64{1}); err != nil {
			return err
		}
		if err := ingest.InsertSales(ctx, tx, []domain.SalesFact{
			{Date: date("2024-01-01"), ProductID: a.ID, LocationID: 1, Units: 2},
		}); err != nil {
			return err
		}
		return ingest.InsertSnapshots(ctx, tx, []domain.InventorySnapshot{
			{Timestamp: date("2024-01-01"), ProductID: a.ID, LocationID: 1, OnHand: 5},
		})
	}))

	require.NoError(t, ingest.ResetFacts(ctx))

	var sales, snapshots int
	require.NoError(t, db.GetContext(ctx, &sales, `SELECT COUNT(*) FROM sales_fact`))
	require.NoError(t, db.GetContext(ctx, &snapshots, `SELECT COUNT(*) FROM inventory_snapshot`))
	assert.Zero(t, sales)
	assert.Zero(t, snapshots)

	list, err := products.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
