package analytics

import (
	"time"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
)

// DefaultForecastWindowDays is the trailing lookback used when none is configured.
const DefaultForecastWindowDays = 7

// WindowStart returns the first day included in a trailing window of days ending today.
func WindowStart(today time.Time, days int) time.Time {
	if days <= 0 {
		days = DefaultForecastWindowDays
	}
	today = today.UTC()
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -days)
}

// EstimateDemand averages units per SKU over the observations dated on or after since.
// SKUs without observations in the window are left out of the result.
func EstimateDemand(sales []domain.SalesObservation, since time.Time) domain.ForecastMap {
	type acc struct {
		sum   float64
		count int
	}

	groups := make(map[string]*acc)
	for _, s := range sales {
		if s.Date.Before(since) {
			continue
		}
		g, ok := groups[s.SKU]
		if !ok {
			g = &acc{}
			groups[s.SKU] = g
		}
		g.sum += s.Units
		g.count++
	}

	forecast := make(domain.ForecastMap, len(groups))
	for sku, g := range groups {
		forecast[sku] = Round2(g.sum / float64(g.count))
	}
	return forecast
}
