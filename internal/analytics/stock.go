package analytics

import (
	"sort"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
)

// DefaultLowStockThreshold is the on-hand level below which a SKU is reported as low.
const DefaultLowStockThreshold = 10.0

// LatestSnapshots picks, per SKU, the observation with the greatest timestamp.
// When two observations share that timestamp the one with the higher ID wins.
func LatestSnapshots(history []domain.InventoryObservation) map[string]domain.InventoryObservation {
	latest := make(map[string]domain.InventoryObservation)
	for _, obs := range history {
		cur, ok := latest[obs.SKU]
		if !ok || newer(obs, cur) {
			latest[obs.SKU] = obs
		}
	}
	return latest
}

func newer(a, b domain.InventoryObservation) bool {
	if a.Timestamp.Equal(b.Timestamp) {
		return a.ID > b.ID
	}
	return a.Timestamp.After(b.Timestamp)
}

// ResolveStock returns the latest on-hand quantity per SKU. Values are not clamped.
func ResolveStock(history []domain.InventoryObservation) domain.StockMap {
	latest := LatestSnapshots(history)
	stock := make(domain.StockMap, len(latest))
	for sku, obs := range latest {
		stock[sku] = obs.OnHand
	}
	return stock
}

// LowStock lists the latest snapshots whose on-hand is strictly below threshold, ordered by SKU.
func LowStock(history []domain.InventoryObservation, threshold float64) []domain.LowStockItem {
	latest := LatestSnapshots(history)
	items := make([]domain.LowStockItem, 0)
	for sku, obs := range latest {
		if obs.OnHand < threshold {
			items = append(items, domain.LowStockItem{
				SKU:        sku,
				OnHand:     obs.OnHand,
				LocationID: obs.LocationID,
			})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	return items
}
