package ingest

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Source is one file waiting to be ingested. Load is called at most once.
type Source struct {
	Name string
	Kind domain.UploadKind
	Load func(ctx context.Context) ([]byte, error)
}

// KindFromName infers the upload kind from a file-name prefix such as sales_2024-01.csv.
func KindFromName(name string) (domain.UploadKind, bool) {
	base := strings.ToLower(path.Base(name))
	switch {
	case strings.HasPrefix(base, string(domain.UploadSales)):
		return domain.UploadSales, true
	case strings.HasPrefix(base, string(domain.UploadInventory)):
		return domain.UploadInventory, true
	default:
		return "", false
	}
}

// IngestAll runs sources with at most limit in flight and stops at the first failure.
// Results are returned in source order.
func (s *Service) IngestAll(ctx context.Context, sources []Source, limit int) ([]*domain.UploadResult, error) {
	if limit <= 0 {
		limit = 1
	}

	results := make([]*domain.UploadResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, src := range sources {
		g.Go(func() error {
			data, err := src.Load(gctx)
			if err != nil {
				return fmt.Errorf("load %s: %w", src.Name, err)
			}
			result, err := s.Ingest(gctx, src.Kind, src.Name, data)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", src.Name, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
