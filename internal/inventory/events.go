package inventory

import (
	"context"
	"time"
)

// LowStockEvent is emitted when a movement takes an item from adequate to low.
type LowStockEvent struct {
	ItemID       int64
	Name         string
	Unit         string
	CurrentStock float64
	MinStock     float64
	At           time.Time
}

// LowStockNotifier receives LowStockEvent values. Delivery failures are
// logged by the caller and never roll back the movement.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, evt LowStockEvent) error
}
