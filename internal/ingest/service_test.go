package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/database"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/repository"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    bool
}

func (m *memoryObjects) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (m *memoryObjects) DownloadObject(ctx context.Context, key, destPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return os.WriteFile(destPath, m.objects[key], 0o644)
}

func (m *memoryObjects) UploadObject(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("bucket unavailable")
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return nil
}

type recordingPlans struct {
	mu      sync.Mutex
	cleared int
}

func (r *recordingPlans) Record(ctx context.Context, plan domain.ArchivedPlan) error { return nil }

func (r *recordingPlans) Latest(ctx context.Context) (*domain.ArchivedPlan, bool, error) {
	return nil, false, nil
}

func (r *recordingPlans) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
	return nil
}

type fixture struct {
	svc      *Service
	db       *database.DB
	objects  *memoryObjects
	plans    *recordingPlans
	products repository.ProductRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, database.SQLiteDSN(filepath.Join(t.TempDir(), "ingest.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	products := repository.NewProductRepository(db.DB)
	for _, sku := range []string{"A", "B"} {
		require.NoError(t, products.Create(context.Background(), &domain.Product{SKU: sku, Name: sku}))
	}

	objects := &memoryObjects{}
	plans := &recordingPlans{}
	svc := NewService(repository.NewIngestRepository(db), repository.NewBatchRepository(db.DB), objects, plans)
	svc.now = func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }

	return &fixture{svc: svc, db: db, objects: objects, plans: plans, products: products}
}

func TestIngest_SalesSkipsUnknownSKUs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	data := []byte("date_key,sku,location_id,units,revenue\n" +
		"2024-01-08,A,1,3,30\n" +
		"2024-01-08,ZZZ,1,9,90\n" +
		"2024-01-09,B,7,2,20\n")

	result, err := f.svc.Ingest(ctx, domain.UploadSales, "sales.csv", data)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, 2, result.RowsInserted)
	assert.Equal(t, 1, result.RowsSkipped)
	assert.NotEmpty(t, result.BatchID)

	sales, err := repository.NewSalesRepository(f.db.DB).ListSalesSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, sales, 2)

	var locations int
	require.NoError(t, f.db.GetContext(ctx, &locations, `SELECT COUNT(*) FROM location_dim`))
	assert.Equal(t, 2, locations)

	key := "uploads/sales/2024-01-10/" + result.BatchID + ".csv"
	assert.Equal(t, data, f.objects.objects[key])
	assert.Equal(t, 1, f.plans.cleared)

	batches, err := f.svc.RecentBatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, result.BatchID, batches[0].BatchID)
	assert.Equal(t, domain.BatchCompleted, batches[0].Status)
	assert.Equal(t, 2, batches[0].RowsInserted)
	assert.Equal(t, 1, batches[0].RowsSkipped)
	assert.NotNil(t, batches[0].CompletedAt)
}

func TestIngest_InventoryXLSX(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	data := xlsxFixture(t, [][]any{
		{"ts", "sku", "location_id", "on_hand", "on_order", "backorder"},
		{"2024-01-09T08:00:00", "A", 1, 5, 0, 0},
		{"2024-01-09T09:00:00", "A", 1, 4, 0, 0},
	})

	result, err := f.svc.Ingest(ctx, domain.UploadInventory, "inventory.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowsInserted)

	snapshots, err := repository.NewInventoryRepository(f.db.DB).ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, 4.0, snapshots[1].OnHand)
}

func TestIngest_ParseErrorWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, domain.UploadSales, "sales.csv", []byte("date_key,sku,location_id,units,revenue\n2024-01-08,A,1,x,30\n"))
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)

	_, err = f.svc.Ingest(ctx, domain.UploadSales, "sales.txt", []byte("anything"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = f.svc.Ingest(ctx, domain.UploadKind("returns"), "returns.csv", []byte("a\n"))
	assert.ErrorIs(t, err, ErrUnknownKind)

	var count int
	require.NoError(t, f.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sales_fact`))
	assert.Zero(t, count)
	assert.Empty(t, f.objects.objects)
	assert.Zero(t, f.plans.cleared)

	batches, err := f.svc.RecentBatches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	for _, batch := range batches {
		assert.Equal(t, domain.BatchFailed, batch.Status)
		assert.NotEmpty(t, batch.ErrorMessage)
		assert.Nil(t, batch.CompletedAt)
	}
}

func TestIngest_ArchiveFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.objects.fail = true

	result, err := f.svc.Ingest(context.Background(), domain.UploadSales, "sales.csv",
		[]byte("date_key,sku,location_id,units,revenue\n2024-01-08,A,1,3,30\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsInserted)
}

func TestIngestAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	load := func(body string) func(context.Context) ([]byte, error) {
		return func(context.Context) ([]byte, error) { return []byte(body), nil }
	}
	sources := []Source{
		{Name: "sales.csv", Kind: domain.UploadSales, Load: load("date_key,sku,location_id,units,revenue\n2024-01-08,A,1,3,30\n")},
		{Name: "inventory.csv", Kind: domain.UploadInventory, Load: load("ts,sku,location_id,on_hand,on_order,backorder\n2024-01-08,B,1,3,0,0\n")},
	}

	results, err := f.svc.IngestAll(ctx, sources, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, domain.UploadSales, results[0].Kind)
	assert.Equal(t, domain.UploadInventory, results[1].Kind)

	sources = append(sources, Source{
		Name: "broken.csv",
		Kind: domain.UploadSales,
		Load: func(context.Context) ([]byte, error) { return nil, errors.New("download failed") },
	})
	_, err = f.svc.IngestAll(ctx, sources, 1)
	assert.ErrorContains(t, err, "broken.csv")
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("inventory")
	require.NoError(t, err)
	assert.Equal(t, domain.UploadInventory, kind)

	_, err = ParseKind("returns")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
