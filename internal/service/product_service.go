package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

type ProductService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) Create(ctx context.Context, product *domain.Product) error {
	product.SKU = strings.TrimSpace(product.SKU)
	product.Name = strings.TrimSpace(product.Name)
	if product.SKU == "" || product.Name == "" {
		return fmt.Errorf("%w: sku and name are required", domain.ErrInvalidInput)
	}
	if err := validateUnitCost(product.UnitCost); err != nil {
		return err
	}
	return s.repo.Create(ctx, product)
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = make([]domain.Product, 0)
	}
	return products, nil
}

func (s *ProductService) Update(ctx context.Context, sku string, update domain.ProductUpdate) (*domain.Product, error) {
	if update.Category == nil && update.UnitCost == nil {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}
	if err := validateUnitCost(update.UnitCost); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, sku, update)
}

// ImportCSV upserts products from a sku,name,category,unit_cost file and returns the row count.
// category and unit_cost columns are optional.
func (s *ProductService) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}
	for _, col := range []string{"sku", "name"} {
		if _, ok := colMap[col]; !ok {
			return 0, fmt.Errorf("%w: missing required column %s", domain.ErrInvalidInput, col)
		}
	}

	getValue := func(record []string, col string) string {
		if idx, ok := colMap[col]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	count := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read CSV record: %w", err)
		}

		product := &domain.Product{
			SKU:      getValue(record, "sku"),
			Name:     getValue(record, "name"),
			Category: getValue(record, "category"),
		}
		if product.SKU == "" {
			continue
		}
		if product.Name == "" {
			return count, fmt.Errorf("%w: line %d: name is required for sku %q", domain.ErrInvalidInput, line, product.SKU)
		}
		if raw := getValue(record, "unit_cost"); raw != "" {
			cost, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return count, fmt.Errorf("%w: line %d: invalid unit_cost %q", domain.ErrInvalidInput, line, raw)
			}
			product.UnitCost = &cost
		}
		if err := validateUnitCost(product.UnitCost); err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}

		if err := s.repo.Upsert(ctx, product); err != nil {
			return count, err
		}
		count++
	}

	log.Info().Int("products", count).Msg("products imported")
	return count, nil
}

func validateUnitCost(cost *float64) error {
	if cost == nil {
		return nil
	}
	if *cost <= 0 || math.IsNaN(*cost) || math.IsInf(*cost, 0) {
		return fmt.Errorf("%w: unit_cost must be a positive number", domain.ErrInvalidInput)
	}
	return nil
}
