package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/config"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:      "test",
		Database: config.DatabaseConfig{URL: "sqlite:///" + filepath.Join(t.TempDir(), "app.db")},
		Analytics: config.AnalyticsConfig{
			ForecastWindowDays: 7,
			LowStockThreshold:  10,
			DefaultUnitCost:    1,
			Solver:             "simplex",
		},
	}
}

func TestNew_WiresSQLiteStack(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.DB.IsSQLite())
	assert.Nil(t, a.Objects)

	require.NoError(t, a.Products.Create(ctx, &domain.Product{SKU: "A", Name: "Alpha"}))
	result, err := a.Analytics.OptimizeInventory(ctx)
	require.NoError(t, err)
	assert.False(t, result.HasPlan())
}

func TestNew_UnknownSolver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analytics.Solver = "genetic"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
