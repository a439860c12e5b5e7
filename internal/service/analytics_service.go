package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/analytics"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/cache"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/config"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/optimizer"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const NoDataMessage = "No data available for optimization."

// AnalyticsService answers every analytics query from the persisted facts.
// Nothing is cached between calls; the plan archive is only written to.
type AnalyticsService struct {
	sales     repository.SalesRepository
	inventory repository.InventoryRepository
	products  repository.ProductRepository
	optimizer *optimizer.Optimizer
	plans     cache.PlanArchive
	cfg       config.AnalyticsConfig
	now       func() time.Time
}

func NewAnalyticsService(
	sales repository.SalesRepository,
	inventory repository.InventoryRepository,
	products repository.ProductRepository,
	opt *optimizer.Optimizer,
	plans cache.PlanArchive,
	cfg config.AnalyticsConfig,
) *AnalyticsService {
	if opt == nil {
		opt = optimizer.New(nil)
	}
	if plans == nil {
		plans = cache.NewNoopPlanArchive()
	}
	if cfg.ForecastWindowDays <= 0 {
		cfg.ForecastWindowDays = analytics.DefaultForecastWindowDays
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = analytics.DefaultLowStockThreshold
	}
	if cfg.DefaultUnitCost <= 0 {
		cfg.DefaultUnitCost = 1.0
	}
	return &AnalyticsService{
		sales:     sales,
		inventory: inventory,
		products:  products,
		optimizer: opt,
		plans:     plans,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *AnalyticsService) Summary(ctx context.Context) ([]domain.SKUSummary, error) {
	summary, err := s.sales.SummaryBySKU(ctx)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		summary = make([]domain.SKUSummary, 0)
	}
	return summary, nil
}

func (s *AnalyticsService) LowStock(ctx context.Context) ([]domain.LowStockItem, error) {
	history, err := s.inventory.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.LowStock(history, s.cfg.LowStockThreshold), nil
}

func (s *AnalyticsService) DemandForecast(ctx context.Context) (domain.ForecastMap, error) {
	since := analytics.WindowStart(s.now(), s.cfg.ForecastWindowDays)
	sales, err := s.sales.ListSalesSince(ctx, since)
	if err != nil {
		return nil, err
	}
	return analytics.EstimateDemand(sales, since), nil
}

// OptimizeInventory recomputes forecast, stock and cost and solves for the reorder plan.
// Missing data is reported as a message, not an error.
func (s *AnalyticsService) OptimizeInventory(ctx context.Context) (*domain.OptimizationResult, error) {
	forecast, err := s.DemandForecast(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.inventory.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	stock := analytics.ResolveStock(history)

	cost, err := s.costMap(ctx, forecast)
	if err != nil {
		return nil, err
	}

	plan, err := s.optimizer.Optimize(forecast, stock, cost)
	if errors.Is(err, optimizer.ErrNoData) {
		return &domain.OptimizationResult{Message: NoDataMessage}, nil
	}
	if err != nil {
		return nil, err
	}

	archived := domain.ArchivedPlan{
		SuggestedOrders: plan,
		Solver:          s.optimizer.SolverName(),
		ComputedAt:      s.now().UTC(),
	}
	if err := s.plans.Record(ctx, archived); err != nil {
		log.Warn().Err(err).Msg("analytics: failed to archive reorder plan")
	}

	log.Debug().
		Int("skus", len(plan)).
		Str("solver", archived.Solver).
		Msg("reorder plan computed")

	return &domain.OptimizationResult{SuggestedOrders: plan}, nil
}

// LatestPlan returns the last archived plan, if any.
func (s *AnalyticsService) LatestPlan(ctx context.Context) (*domain.ArchivedPlan, error) {
	plan, ok, err := s.plans.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no reorder plan archived", domain.ErrNotFound)
	}
	return plan, nil
}

func (s *AnalyticsService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	var dashboard domain.Dashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		forecast, err := s.DemandForecast(gctx)
		dashboard.Forecast = forecast
		return err
	})
	g.Go(func() error {
		lowStock, err := s.LowStock(gctx)
		dashboard.LowStock = lowStock
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &dashboard, nil
}

// costMap prices every forecast SKU from its product row, falling back to the configured default.
func (s *AnalyticsService) costMap(ctx context.Context, forecast domain.ForecastMap) (domain.CostMap, error) {
	unitCosts, err := s.products.UnitCosts(ctx)
	if err != nil {
		return nil, err
	}

	cost := make(domain.CostMap, len(forecast))
	for sku := range forecast {
		if c, ok := unitCosts[sku]; ok {
			cost[sku] = c
			continue
		}
		cost[sku] = s.cfg.DefaultUnitCost
	}
	return cost, nil
}
