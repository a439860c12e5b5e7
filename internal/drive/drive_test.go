package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/database"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/ingest"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/repository"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	files    []*File
	contents map[string]string
	folders  map[string]string
}

func (f *fakeSource) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	return f.files, nil
}

func (f *fakeSource) GetFile(ctx context.Context, fileID string) (*File, error) {
	for _, file := range f.files {
		if file.ID == fileID {
			return file, nil
		}
	}
	return nil, fmt.Errorf("file %s not found", fileID)
}

func (f *fakeSource) FindFolderByPath(ctx context.Context, path string) (string, error) {
	id, ok := f.folders[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrFolderNotFound, path)
	}
	return id, nil
}

func (f *fakeSource) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	body, ok := f.contents[fileID]
	if !ok {
		return fmt.Errorf("no content for %s", fileID)
	}
	_, err := io.WriteString(w, body)
	return err
}

const (
	salesCSV     = "date_key,sku,location_id,units,revenue\n2024-01-08,A,1,3,30\n2024-01-08,Z,1,1,10\n"
	inventoryCSV = "ts,sku,location_id,on_hand,on_order,backorder\n2024-01-08,A,1,3,0,0\n"
)

func newSource() *fakeSource {
	return &fakeSource{
		files: []*File{
			{ID: "f1", Name: "sales_week1.csv", MimeType: "text/csv"},
			{ID: "f2", Name: "inventory_week1.csv", MimeType: "text/csv"},
			{ID: "f3", Name: "notes.txt", MimeType: "text/plain"},
			{ID: "f4", Name: "products.csv", MimeType: "text/csv"},
			{ID: "d1", Name: "sales_archive", MimeType: folderMimeType},
		},
		contents: map[string]string{"f1": salesCSV, "f2": inventoryCSV},
		folders:  map[string]string{"exports/weekly": "folder-1"},
	}
}

func newTestIngest(t *testing.T, source FileSource) *IngestService {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, database.SQLiteDSN(filepath.Join(t.TempDir(), "drive.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	require.NoError(t, repository.NewProductRepository(db.DB).Create(context.Background(), &domain.Product{SKU: "A", Name: "Alpha"}))

	return NewIngestService(source, ingest.NewService(repository.NewIngestRepository(db), repository.NewBatchRepository(db.DB), nil, nil), 2)
}

func TestIngestFile_InfersKind(t *testing.T) {
	svc := newTestIngest(t, newSource())

	result, err := svc.IngestFile(context.Background(), "f1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.UploadSales, result.Kind)
	assert.Equal(t, 1, result.RowsInserted)
	assert.Equal(t, 1, result.RowsSkipped)
}

func TestIngestFile_KindRequired(t *testing.T) {
	source := newSource()
	source.contents["f4"] = salesCSV
	svc := newTestIngest(t, source)

	_, err := svc.IngestFile(context.Background(), "f4", "")
	assert.ErrorIs(t, err, ErrKindRequired)

	result, err := svc.IngestFile(context.Background(), "f4", domain.UploadSales)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsInserted)
}

func TestIngestFolder_SkipsUnrelatedFiles(t *testing.T) {
	svc := newTestIngest(t, newSource())

	results, err := svc.IngestFolder(context.Background(), "folder-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, domain.UploadSales, results[0].Kind)
	assert.Equal(t, domain.UploadInventory, results[1].Kind)
}

func serve(h *Handler, method, target string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestHandler(t *testing.T) {
	source := newSource()
	h := NewHandler(source, newTestIngest(t, source))

	w := serve(h, http.MethodGet, "/api/drive/files?path=exports/weekly")
	require.Equal(t, http.StatusOK, w.Code)
	var files []File
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &files))
	assert.Len(t, files, 5)

	w = serve(h, http.MethodGet, "/api/drive/files?path=missing")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(h, http.MethodPost, "/api/drive/ingest")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(h, http.MethodPost, "/api/drive/ingest?fileId=f1&kind=returns")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(h, http.MethodPost, "/api/drive/ingest?fileId=f2&kind=inventory")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result domain.UploadResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.RowsInserted)

	w = serve(h, http.MethodPost, "/api/drive/ingest?fileId=f1&kind=inventory")
	assert.Equal(t, http.StatusBadRequest, w.Code, "sales columns do not satisfy the inventory schema")

	w = serve(h, http.MethodGet, "/api/drive/files/download?fileId=f1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, salesCSV, w.Body.String())

	w = serve(h, http.MethodPost, "/api/drive/ingest/folder?folderId=folder-1")
	assert.Equal(t, http.StatusOK, w.Code)
}
