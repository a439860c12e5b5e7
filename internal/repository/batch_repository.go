package repository

import (
	"context"
	"fmt"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
)

const defaultBatchLimit = 50

// BatchRepository records the outcome of every ingestion batch
type BatchRepository interface {
	// Record writes a batch row. ext is the transaction of the batch itself when it committed rows.
	Record(ctx context.Context, ext sqlx.ExtContext, batch *domain.IngestBatch) error
	ListRecent(ctx context.Context, limit int) ([]domain.IngestBatch, error)
}

type batchRepository struct {
	db *sqlx.DB
}

func NewBatchRepository(db *sqlx.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) Record(ctx context.Context, ext sqlx.ExtContext, batch *domain.IngestBatch) error {
	if ext == nil {
		ext = r.db
	}
	query := `
		INSERT INTO ingest_batch (
			batch_id, kind, file_name, status, rows_inserted,
			rows_skipped, error_message, started_at, completed_at
		) VALUES (
			:batch_id, :kind, :file_name, :status, :rows_inserted,
			:rows_skipped, :error_message, :started_at, :completed_at
		)
	`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, batch); err != nil {
		return fmt.Errorf("failed to record batch %s: %w", batch.BatchID, err)
	}
	return nil
}

// ListRecent returns the newest batches first
func (r *batchRepository) ListRecent(ctx context.Context, limit int) ([]domain.IngestBatch, error) {
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	query := r.db.Rebind(`
		SELECT batch_id, kind, file_name, status, rows_inserted,
		       rows_skipped, error_message, started_at, completed_at
		FROM ingest_batch
		ORDER BY started_at DESC, batch_id
		LIMIT ?
	`)

	batches := make([]domain.IngestBatch, 0)
	if err := r.db.SelectContext(ctx, &batches, query, limit); err != nil {
		return nil, fmt.Errorf("error listing ingest batches: %w", err)
	}
	return batches, nil
}
