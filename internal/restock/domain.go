package restock

import (
	"fmt"
	"time"

	"github.com/mitrahub/mitrahub/internal/format"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

// Item is one product line of an order, priced when the order is placed.
type Item struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Qty         int     `json:"qty"`
	UnitPrice   float64 `json:"unitPrice"`
	Subtotal    float64 `json:"subtotal"`
}

// Order is a mitra's restock request.
type Order struct {
	ID              int64         `json:"id"`
	OrderNumber     string        `json:"orderNumber"`
	MitraID         int64         `json:"mitraId"`
	MitraName       string        `json:"mitraName"`
	Items           []Item        `json:"items"`
	TotalItemsCost  float64       `json:"totalItemsCost"`
	ShippingCost    float64       `json:"shippingCost"`
	GrandTotal      float64       `json:"grandTotal"`
	GrandTotalLabel string        `json:"grandTotalLabel"`
	ShippingAddress string        `json:"shippingAddress"`
	Courier         string        `json:"courier"`
	TrackingNumber  string        `json:"trackingNumber"`
	Status          Status        `json:"status"`
	StatusBadge     format.Badge  `json:"statusBadge"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	Notes           string        `json:"notes"`
	CreatedBy       int64         `json:"createdBy"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
	IdempotencyKey  string        `json:"-"`
	Replayed        bool          `json:"replayed,omitempty"`
}

// ItemInput is one requested product line.
type ItemInput struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Qty       int   `json:"qty" validate:"required,gte=1"`
}

// CreateInput places an order. MitraID is ignored when a mitra orders for itself.
type CreateInput struct {
	MitraID         int64       `json:"mitraId"`
	Items           []ItemInput `json:"items" validate:"required,min=1,dive"`
	ShippingCost    float64     `json:"shippingCost" validate:"gte=0"`
	ShippingAddress string      `json:"shippingAddress" validate:"required,max=500"`
	Courier         string      `json:"courier" validate:"max=60"`
	Notes           string      `json:"notes" validate:"max=500"`
}

// TransitionInput moves an order to another status.
type TransitionInput struct {
	Status         Status `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
	Courier        string `json:"courier" validate:"max=60"`
	TrackingNumber string `json:"trackingNumber" validate:"max=80"`
}

// PaymentInput changes the payment status.
type PaymentInput struct {
	PaymentStatus PaymentStatus `json:"paymentStatus" validate:"required,oneof=unpaid paid"`
}

// ListFilter narrows order listings.
type ListFilter struct {
	MitraID int64
	Status  Status
	From    time.Time
	To      time.Time
}

var (
	// ErrOrderNotFound is returned for unknown order IDs.
	ErrOrderNotFound = fmt.Errorf("order restock tidak ditemukan: %w", httpx.ErrNotFound)
	// ErrPaymentChange is returned when a cancelled order's payment is changed.
	ErrPaymentChange = fmt.Errorf("status pembayaran order yang dibatalkan tidak dapat diubah: %w", httpx.ErrConflict)
	// ErrNotDeletable is returned when deleting an order that is in progress.
	ErrNotDeletable = fmt.Errorf("hanya order menunggu atau dibatalkan yang dapat dihapus: %w", httpx.ErrConflict)
)

func decorate(o *Order) {
	o.GrandTotal = o.TotalItemsCost + o.ShippingCost
	o.GrandTotalLabel = format.Rupiah(o.GrandTotal)
	o.StatusBadge = o.Status.Badge()
	if o.Items == nil {
		o.Items = []Item{}
	}
}
