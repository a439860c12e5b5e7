package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/cache"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/repository"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/storage"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Service turns uploaded files into fact rows. One call is one batch and one transaction.
type Service struct {
	repo    *repository.IngestRepository
	batches repository.BatchRepository
	objects storage.ObjectStorage
	plans   cache.PlanArchive
	now     func() time.Time
}

// NewService wires the ingest pipeline. objects may be nil when raw uploads are not archived
// and batches may be nil when batch outcomes are not tracked.
func NewService(repo *repository.IngestRepository, batches repository.BatchRepository, objects storage.ObjectStorage, plans cache.PlanArchive) *Service {
	if plans == nil {
		plans = cache.NewNoopPlanArchive()
	}
	return &Service{
		repo:    repo,
		batches: batches,
		objects: objects,
		plans:   plans,
		now:     time.Now,
	}
}

func ParseKind(s string) (domain.UploadKind, error) {
	switch domain.UploadKind(s) {
	case domain.UploadSales, domain.UploadInventory:
		return domain.UploadKind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// IngestFile reads a local file and ingests it.
func (s *Service) IngestFile(ctx context.Context, kind domain.UploadKind, path string) (*domain.UploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s.Ingest(ctx, kind, filepath.Base(path), data)
}

// Ingest parses data according to filename's extension and appends the rows whose SKU is known.
func (s *Service) Ingest(ctx context.Context, kind domain.UploadKind, filename string, data []byte) (*domain.UploadResult, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	result := &domain.UploadResult{
		Status:  "ok",
		Kind:    kind,
		BatchID: uuid.NewString(),
	}
	batch := &domain.IngestBatch{
		BatchID:   result.BatchID,
		Kind:      kind,
		FileName:  filename,
		StartedAt: s.now().UTC(),
	}

	if err := s.parseAndStore(ctx, kind, format, data, result, batch); err != nil {
		s.recordFailure(ctx, batch, err)
		return nil, err
	}

	log.Info().
		Str("kind", string(kind)).
		Str("batch_id", result.BatchID).
		Str("file", filename).
		Int("rows_inserted", result.RowsInserted).
		Int("rows_skipped", result.RowsSkipped).
		Msg("ingested upload")

	s.archiveRaw(ctx, kind, result.BatchID, format, data)
	if result.RowsInserted > 0 {
		if err := s.plans.Clear(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to clear archived reorder plan")
		}
	}

	return result, nil
}

func (s *Service) parseAndStore(ctx context.Context, kind domain.UploadKind, format Format, data []byte, result *domain.UploadResult, batch *domain.IngestBatch) error {
	switch kind {
	case domain.UploadSales:
		rows, err := ParseSales(data, format)
		if err != nil {
			return err
		}
		return s.storeSales(ctx, rows, result, batch)
	case domain.UploadInventory:
		rows, err := ParseInventory(data, format)
		if err != nil {
			return err
		}
		return s.storeInventory(ctx, rows, result, batch)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (s *Service) storeSales(ctx context.Context, rows []SalesRow, result *domain.UploadResult, batch *domain.IngestBatch) error {
	return s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		ids, err := s.repo.ProductIDsBySKU(ctx, tx)
		if err != nil {
			return err
		}

		facts := make([]domain.SalesFact, 0, len(rows))
		locations := make(map[int64]struct{})
		for _, row := range rows {
			productID, ok := ids[row.SKU]
			if !ok {
				result.RowsSkipped++
				continue
			}
			locations[row.LocationID] = struct{}{}
			facts = append(facts, domain.SalesFact{
				Date:       row.Date,
				ProductID:  productID,
				LocationID: row.LocationID,
				Units:      row.Units,
				Revenue:    row.Revenue,
			})
		}

		if err := s.repo.EnsureLocations(ctx, tx, sortedIDs(locations)); err != nil {
			return err
		}
		if err := s.repo.InsertSales(ctx, tx, facts); err != nil {
			return err
		}
		result.RowsInserted = len(facts)
		return s.recordSuccess(ctx, tx, batch, result)
	})
}

func (s *Service) storeInventory(ctx context.Context, rows []InventoryRow, result *domain.UploadResult, batch *domain.IngestBatch) error {
	return s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		ids, err := s.repo.ProductIDsBySKU(ctx, tx)
		if err != nil {
			return err
		}

		snapshots := make([]domain.InventorySnapshot, 0, len(rows))
		locations := make(map[int64]struct{})
		for _, row := range rows {
			productID, ok := ids[row.SKU]
			if !ok {
				result.RowsSkipped++
				continue
			}
			locations[row.LocationID] = struct{}{}
			snapshots = append(snapshots, domain.InventorySnapshot{
				Timestamp:  row.Timestamp,
				ProductID:  productID,
				LocationID: row.LocationID,
				OnHand:     row.OnHand,
				OnOrder:    row.OnOrder,
				Backorder:  row.Backorder,
			})
		}

		if err := s.repo.EnsureLocations(ctx, tx, sortedIDs(locations)); err != nil {
			return err
		}
		if err := s.repo.InsertSnapshots(ctx, tx, snapshots); err != nil {
			return err
		}
		result.RowsInserted = len(snapshots)
		return s.recordSuccess(ctx, tx, batch, result)
	})
}

// recordSuccess writes the batch row in the same transaction as its facts.
func (s *Service) recordSuccess(ctx context.Context, tx *sqlx.Tx, batch *domain.IngestBatch, result *domain.UploadResult) error {
	if s.batches == nil {
		return nil
	}
	completed := s.now().UTC()
	batch.Status = domain.BatchCompleted
	batch.RowsInserted = result.RowsInserted
	batch.RowsSkipped = result.RowsSkipped
	batch.CompletedAt = &completed
	return s.batches.Record(ctx, tx, batch)
}

// recordFailure is best effort; the caller already has the real error.
func (s *Service) recordFailure(ctx context.Context, batch *domain.IngestBatch, cause error) {
	if s.batches == nil {
		return
	}
	batch.Status = domain.BatchFailed
	batch.RowsInserted = 0
	batch.RowsSkipped = 0
	batch.ErrorMessage = cause.Error()
	if err := s.batches.Record(ctx, nil, batch); err != nil {
		log.Warn().Err(err).Str("batch_id", batch.BatchID).Msg("failed to record failed batch")
	}
}

// RecentBatches lists the latest ingestion batches, newest first.
func (s *Service) RecentBatches(ctx context.Context, limit int) ([]domain.IngestBatch, error) {
	if s.batches == nil {
		return make([]domain.IngestBatch, 0), nil
	}
	return s.batches.ListRecent(ctx, limit)
}

// archiveRaw is best effort; the rows are already committed.
func (s *Service) archiveRaw(ctx context.Context, kind domain.UploadKind, batchID string, format Format, data []byte) {
	if s.objects == nil {
		return
	}
	key := storage.UploadKey(string(kind), batchID, string(format), s.now())
	if err := s.objects.UploadObject(ctx, key, data); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to archive raw upload")
		return
	}
	log.Debug().Str("key", key).Msg("archived raw upload")
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
