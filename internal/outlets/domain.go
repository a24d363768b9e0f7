package outlets

import (
	"fmt"
	"time"

	"github.com/mitrahub/mitrahub/internal/format"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

// MaxMitraPerOutlet caps how many partners may share one outlet.
const MaxMitraPerOutlet = 3

// Ownership says who owns an outlet.
type Ownership string

const (
	OwnershipCompany Ownership = "company"
	OwnershipMitra   Ownership = "mitra"
)

// Status is the operating status of an outlet.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Badge returns the status badge.
func (s Status) Badge() format.Badge {
	if s == StatusActive {
		return format.NewBadge("Aktif", format.ToneGreen)
	}
	return format.NewBadge("Nonaktif", format.ToneGray)
}

// Assignment links a mitra to an outlet.
type Assignment struct {
	MitraID   int64  `json:"mitraId"`
	MitraName string `json:"mitraName"`
}

// Outlet is a physical retail location.
type Outlet struct {
	ID               int64        `json:"id"`
	Name             string       `json:"name"`
	Address          string       `json:"address"`
	WorkerID         *int64       `json:"workerId,omitempty"`
	WorkerName       string       `json:"workerName,omitempty"`
	Ownership        Ownership    `json:"ownership"`
	MitraAssignments []Assignment `json:"mitraAssignments"`
	Status           Status       `json:"status"`
	StatusBadge      format.Badge `json:"statusBadge"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// Input is the create/replace payload.
type Input struct {
	Name      string    `json:"name" validate:"required,max=120"`
	Address   string    `json:"address" validate:"required,max=255"`
	WorkerID  *int64    `json:"workerId" validate:"omitempty,gt=0"`
	Ownership Ownership `json:"ownership" validate:"required,oneof=company mitra"`
	MitraIDs  []int64   `json:"mitraIds" validate:"dive,gt=0"`
	Status    Status    `json:"status" validate:"omitempty,oneof=active inactive"`
}

// Counts summarises outlets for the dashboard.
type Counts struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	MitraOwned int `json:"mitraOwned"`
}

// ListFilter narrows outlet listings.
type ListFilter struct {
	Status    Status
	Ownership Ownership
	WorkerID  int64
}

var (
	// ErrOutletNotFound is returned for unknown outlet IDs.
	ErrOutletNotFound = fmt.Errorf("outlet tidak ditemukan: %w", httpx.ErrNotFound)
	// ErrTooManyMitra is returned when more than MaxMitraPerOutlet partners are assigned.
	ErrTooManyMitra = &httpx.ValidationError{Fields: map[string]string{
		"mitraIds": fmt.Sprintf("maksimal %d mitra per outlet", MaxMitraPerOutlet),
	}}
)
