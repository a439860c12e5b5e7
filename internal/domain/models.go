// backend-go/internal/domain/models.go
package domain

import "time"

// Product is a catalogue entry keyed by SKU
type Product struct {
	ID       int64    `json:"product_id" db:"product_id"`
	SKU      string   `json:"sku" db:"sku"`
	Name     string   `json:"name" db:"name"`
	Category string   `json:"category" db:"category"`
	UnitCost *float64 `json:"unit_cost,omitempty" db:"unit_cost"`
}

// ProductUpdate carries the mutable product fields; nil means unchanged.
type ProductUpdate struct {
	Category *string  `json:"category"`
	UnitCost *float64 `json:"unit_cost"`
}

// Location represents a store, warehouse or distribution center
type Location struct {
	ID     int64  `json:"location_id" db:"location_id"`
	Type   string `json:"type" db:"type"`
	City   string `json:"city" db:"city"`
	Region string `json:"region" db:"region"`
}

// SalesFact is one ingested sales line
type SalesFact struct {
	ID         int64     `json:"id" db:"id"`
	Date       time.Time `json:"date_key" db:"date_key"`
	ProductID  int64     `json:"product_id" db:"product_id"`
	LocationID int64     `json:"location_id" db:"location_id"`
	Units      float64   `json:"units" db:"units"`
	Revenue    float64   `json:"revenue" db:"revenue"`
}

// InventorySnapshot is one point-in-time stock observation
type InventorySnapshot struct {
	ID         int64     `json:"id" db:"id"`
	Timestamp  time.Time `json:"ts" db:"ts"`
	ProductID  int64     `json:"product_id" db:"product_id"`
	LocationID int64     `json:"location_id" db:"location_id"`
	OnHand     float64   `json:"on_hand" db:"on_hand"`
	OnOrder    float64   `json:"on_order" db:"on_order"`
	Backorder  float64   `json:"backorder" db:"backorder"`
}

// SalesObservation is a sales fact joined with its SKU
type SalesObservation struct {
	Date    time.Time `json:"date" db:"date_key"`
	SKU     string    `json:"sku" db:"sku"`
	Units   float64   `json:"units" db:"units"`
	Revenue float64   `json:"revenue" db:"revenue"`
}

// InventoryObservation is an inventory snapshot joined with its SKU
type InventoryObservation struct {
	ID         int64     `json:"id" db:"id"`
	Timestamp  time.Time `json:"ts" db:"ts"`
	SKU        string    `json:"sku" db:"sku"`
	LocationID int64     `json:"location_id" db:"location_id"`
	OnHand     float64   `json:"on_hand" db:"on_hand"`
}

// ForecastMap maps SKU to predicted next-period demand
type ForecastMap map[string]float64

// StockMap maps SKU to the most recent on-hand quantity
type StockMap map[string]float64

// CostMap maps SKU to the per-unit reorder cost
type CostMap map[string]float64

// ReorderPlan maps SKU to the suggested reorder quantity
type ReorderPlan map[string]float64

// SKUSummary is the full-history sales aggregate for one SKU
type SKUSummary struct {
	SKU          string  `json:"sku" db:"sku"`
	TotalUnits   int64   `json:"total_units" db:"total_units"`
	TotalRevenue float64 `json:"total_revenue" db:"total_revenue"`
}

// LowStockItem is a SKU whose latest on-hand is under the alert threshold
type LowStockItem struct {
	SKU        string  `json:"sku"`
	OnHand     float64 `json:"on_hand"`
	LocationID int64   `json:"location_id"`
}

// OptimizationResult is what the optimize endpoint returns.
// Exactly one of SuggestedOrders or Message is set.
type OptimizationResult struct {
	SuggestedOrders ReorderPlan `json:"suggested_orders,omitempty"`
	Message         string      `json:"message,omitempty"`
}

// HasPlan reports whether the optimizer produced a plan.
func (r *OptimizationResult) HasPlan() bool {
	return r != nil && r.Message == ""
}

// ArchivedPlan is a plan recorded for later retrieval
type ArchivedPlan struct {
	SuggestedOrders ReorderPlan `json:"suggested_orders"`
	Solver          string      `json:"solver"`
	ComputedAt      time.Time   `json:"computed_at"`
}

// Dashboard bundles the views the dashboard polls
type Dashboard struct {
	Forecast ForecastMap    `json:"forecast"`
	LowStock []LowStockItem `json:"low_stock"`
}

// UploadKind identifies which fact table an upload feeds
type UploadKind string

const (
	UploadSales     UploadKind = "sales"
	UploadInventory UploadKind = "inventory"
)

// UploadResult summarises an ingestion batch
type UploadResult struct {
	Status       string     `json:"status"`
	Kind         UploadKind `json:"kind"`
	BatchID      string     `json:"batch_id"`
	RowsInserted int        `json:"rows_inserted"`
	RowsSkipped  int        `json:"rows_skipped"`
}

// BatchStatus is the outcome of an ingestion batch
type BatchStatus string

const (
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
)

// IngestBatch tracks one uploaded file through ingestion
type IngestBatch struct {
	BatchID      string      `json:"batch_id" db:"batch_id"`
	Kind         UploadKind  `json:"kind" db:"kind"`
	FileName     string      `json:"file_name" db:"file_name"`
	Status       BatchStatus `json:"status" db:"status"`
	RowsInserted int         `json:"rows_inserted" db:"rows_inserted"`
	RowsSkipped  int         `json:"rows_skipped" db:"rows_skipped"`
	ErrorMessage string      `json:"error_message,omitempty" db:"error_message"`
	StartedAt    time.Time   `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
}
