package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "sqlite:///./dev.db", cfg.Database.URL)
	assert.Equal(t, 7, cfg.Analytics.ForecastWindowDays)
	assert.Equal(t, 10.0, cfg.Analytics.LowStockThreshold)
	assert.Equal(t, 1.0, cfg.Analytics.DefaultUnitCost)
	assert.Equal(t, "closed_form", cfg.Analytics.Solver)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 86400, cfg.Cache.PlanTTLSeconds)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ANALYTICS_SOLVER", "SIMPLEX")
	v.Set("DB_DRIVER", "PGX")
	v.Set("ANALYTICS_LOW_STOCK_THRESHOLD", 25.5)

	cfg := fromViper(v)

	assert.Equal(t, "simplex", cfg.Analytics.Solver)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, 25.5, cfg.Analytics.LowStockThreshold)
}
