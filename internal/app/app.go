// Package app wires configuration into the repositories and services every binary shares.
package app

import (
	"context"
	"fmt"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/cache"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/config"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/database"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/ingest"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/optimizer"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/repository"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/service"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

type App struct {
	Config *config.Config
	DB     *database.DB

	Plans   cache.PlanArchive
	Objects storage.ObjectStorage

	IngestRepo *repository.IngestRepository

	Products  *service.ProductService
	Analytics *service.AnalyticsService
	Ingest    *ingest.Service
}

// New connects to the database, migrates it and builds the services.
// Redis and object storage failures are logged and the app falls back to running without them.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	solver, err := optimizer.NewSolver(cfg.Analytics.Solver)
	if err != nil {
		db.Close()
		return nil, err
	}

	plans, err := cache.NewPlanArchive(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("plan archive unavailable, continuing without it")
		plans = cache.NewNoopPlanArchive()
	}

	var objects storage.ObjectStorage
	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			log.Warn().Err(err).Msg("object storage unavailable, raw uploads will not be archived")
		} else {
			objects = client
		}
	}

	products := repository.NewProductRepository(db.DB)
	ingestRepo := repository.NewIngestRepository(db)

	return &App{
		Config:     cfg,
		DB:         db,
		Plans:      plans,
		Objects:    objects,
		IngestRepo: ingestRepo,
		Products:   service.NewProductService(products),
		Analytics: service.NewAnalyticsService(
			repository.NewSalesRepository(db.DB),
			repository.NewInventoryRepository(db.DB),
			products,
			optimizer.New(solver),
			plans,
			cfg.Analytics,
		),
		Ingest: ingest.NewService(ingestRepo, repository.NewBatchRepository(db.DB), objects, plans),
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
