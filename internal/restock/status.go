package restock

import (
	"fmt"

	"github.com/mitrahub/mitrahub/internal/format"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// PaymentStatus tracks whether the mitra has paid.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

var forward = map[Status]Status{
	StatusPending:    StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = fmt.Errorf("perubahan status tidak diizinkan: %w", httpx.ErrConflict)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Next returns the single forward step from s, if any.
func (s Status) Next() (Status, bool) {
	next, ok := forward[s]
	return next, ok
}

// CanTransition allows exactly one forward step, or cancellation of a
// non-terminal order.
func CanTransition(from, to Status) bool {
	if to == StatusCancelled {
		return from.Valid() && !from.Terminal()
	}
	next, ok := from.Next()
	return ok && next == to
}

// Label is the Indonesian display name of s.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Menunggu"
	case StatusProcessing:
		return "Diproses"
	case StatusShipped:
		return "Dikirim"
	case StatusDelivered:
		return "Diterima"
	case StatusCancelled:
		return "Dibatalkan"
	default:
		return string(s)
	}
}

// Badge returns the status badge.
func (s Status) Badge() format.Badge {
	tone := format.ToneGray
	switch s {
	case StatusPending:
		tone = format.ToneAmber
	case StatusProcessing, StatusShipped:
		tone = format.ToneBlue
	case StatusDelivered:
		tone = format.ToneGreen
	case StatusCancelled:
		tone = format.ToneRed
	}
	return format.NewBadge(s.Label(), tone)
}
