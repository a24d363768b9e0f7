package inventory

import (
	"fmt"
	"time"

	"github.com/mitrahub/mitrahub/internal/format"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

// StockStatus classifies an item against its minimum stock.
type StockStatus string

const (
	// StatusLow marks items at or below their minimum.
	StatusLow StockStatus = "low"
	// StatusAdequate marks items above their minimum.
	StatusAdequate StockStatus = "adequate"
)

// EvaluateStatus returns StatusLow when current is at or below min.
func EvaluateStatus(current, min float64) StockStatus {
	if current <= min {
		return StatusLow
	}
	return StatusAdequate
}

// Label returns the Indonesian display label of the status.
func (s StockStatus) Label() string {
	if s == StatusLow {
		return "Stok Rendah"
	}
	return "Cukup"
}

// Badge returns the status badge.
func (s StockStatus) Badge() format.Badge {
	if s == StatusLow {
		return format.NewBadge(s.Label(), format.ToneRed)
	}
	return format.NewBadge(s.Label(), format.ToneGreen)
}

// Item is a stock-keeping row of raw material or packaging.
type Item struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Category      string       `json:"category"`
	CategoryLabel string       `json:"categoryLabel"`
	Unit          string       `json:"unit"`
	CurrentStock  float64      `json:"currentStock"`
	MinStock      float64      `json:"minStock"`
	Price         float64      `json:"price"`
	PriceLabel    string       `json:"priceLabel"`
	Status        StockStatus  `json:"status"`
	StatusBadge   format.Badge `json:"statusBadge"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementIn represents an inbound movement.
	MovementIn MovementType = "IN"
	// MovementOut represents an outbound movement.
	MovementOut MovementType = "OUT"
	// MovementAdjust indicates manual corrections, positive or negative.
	MovementAdjust MovementType = "ADJUST"
)

// Movement is one entry of an item's stock card.
type Movement struct {
	ID        int64        `json:"id"`
	ItemID    int64        `json:"itemId"`
	Type      MovementType `json:"type"`
	QtyChange float64      `json:"qtyChange"`
	Before    float64      `json:"before"`
	After     float64      `json:"after"`
	Note      string       `json:"note,omitempty"`
	Reference string       `json:"reference,omitempty"`
	ActorID   int64        `json:"actorId,omitempty"`
	At        time.Time    `json:"at"`
}

// ItemInput is the create/replace payload. CurrentStock changes made through
// a replace are recorded as an adjustment movement.
type ItemInput struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Category     string  `json:"category" validate:"required,max=40"`
	Unit         string  `json:"unit" validate:"required,max=20"`
	CurrentStock float64 `json:"currentStock" validate:"gte=0"`
	MinStock     float64 `json:"minStock" validate:"gte=0"`
	Price        float64 `json:"price" validate:"gte=0"`
}

// MovementInput describes a stock movement request. Qty is always positive
// for IN and OUT; ADJUST carries a signed Qty.
type MovementInput struct {
	Type      MovementType `json:"type" validate:"required,oneof=IN OUT ADJUST"`
	Qty       float64      `json:"qty" validate:"required"`
	Note      string       `json:"note" validate:"max=255"`
	Reference string       `json:"reference" validate:"max=64"`
}

// ListFilter narrows item listings.
type ListFilter struct {
	Category string
	LowOnly  bool
}

var (
	// ErrItemNotFound is returned for unknown inventory items.
	ErrItemNotFound = fmt.Errorf("item inventori tidak ditemukan: %w", httpx.ErrNotFound)
	// ErrNegativeStock is returned when a movement would push stock below zero.
	ErrNegativeStock = fmt.Errorf("stok tidak mencukupi: %w", httpx.ErrConflict)
	// ErrInvalidQuantity is returned for zero or wrongly signed quantities.
	ErrInvalidQuantity = fmt.Errorf("jumlah tidak valid: %w", httpx.ErrValidation)
	errMissingItem     = fmt.Errorf("item id wajib diisi: %w", httpx.ErrValidation)
)
