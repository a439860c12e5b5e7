package drive

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/ingest"
	"github.com/rs/zerolog/log"
)

var (
	ErrFolderNotFound = errors.New("folder not found")
	ErrKindRequired   = errors.New("kind is required when the file name has no sales or inventory prefix")
)

// IngestService feeds Drive files through the regular upload pipeline.
type IngestService struct {
	source      FileSource
	ingest      *ingest.Service
	concurrency int
}

func NewIngestService(source FileSource, ingestService *ingest.Service, concurrency int) *IngestService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &IngestService{
		source:      source,
		ingest:      ingestService,
		concurrency: concurrency,
	}
}

// IngestFile downloads one file and ingests it. An empty kind is inferred from the file name.
func (s *IngestService) IngestFile(ctx context.Context, fileID string, kind domain.UploadKind) (*domain.UploadResult, error) {
	file, err := s.source.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if kind == "" {
		inferred, ok := ingest.KindFromName(file.Name)
		if !ok {
			return nil, ErrKindRequired
		}
		kind = inferred
	}

	data, err := download(ctx, s.source, fileID)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", file.Name, err)
	}

	return s.ingest.Ingest(ctx, kind, file.Name, data)
}

// IngestFolder ingests every sales* and inventory* spreadsheet in the folder with bounded concurrency.
// Other files are skipped.
func (s *IngestService) IngestFolder(ctx context.Context, folderID string) ([]*domain.UploadResult, error) {
	files, err := s.source.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	sources := make([]ingest.Source, 0, len(files))
	for _, f := range files {
		if f.IsFolder() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != string(ingest.FormatCSV) && ext != string(ingest.FormatXLSX) {
			continue
		}
		kind, ok := ingest.KindFromName(f.Name)
		if !ok {
			log.Debug().Str("file", f.Name).Msg("drive: skipping file without a known prefix")
			continue
		}

		fileID := f.ID
		sources = append(sources, ingest.Source{
			Name: f.Name,
			Kind: kind,
			Load: func(ctx context.Context) ([]byte, error) {
				return download(ctx, s.source, fileID)
			},
		})
	}

	log.Info().
		Str("folder_id", folderID).
		Int("files", len(sources)).
		Int("concurrency", s.concurrency).
		Msg("drive: ingesting folder")

	return s.ingest.IngestAll(ctx, sources, s.concurrency)
}
