package mitra

import (
	"fmt"
	"time"

	"github.com/mitrahub/mitrahub/internal/format"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

// Type distinguishes outlet franchisees from passive investors.
type Type string

const (
	TypeOutlet    Type = "outlet"
	TypeInvestasi Type = "investasi"
)

// Mitra is a business partner on a fixed-term contract.
type Mitra struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Type              Type      `json:"type"`
	OutletID          *int64    `json:"outletId,omitempty"`
	OutletName        string    `json:"outletName,omitempty"`
	ModalAmount       *float64  `json:"modalAmount,omitempty"`
	BankName          string    `json:"bankName"`
	BankAccountNumber string    `json:"bankAccountNumber"`
	BankAccountHolder string    `json:"bankAccountHolder"`
	PayoutDay         int       `json:"payoutDay"`
	StartDate         time.Time `json:"startDate"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	UserID            *int64    `json:"userId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`

	Contract Contract `json:"contract"`
}

// Contract carries the values derived from StartDate at read time.
type Contract struct {
	EndDate         string       `json:"endDate"`
	EndDateLabel    string       `json:"endDateLabel"`
	MonthsRemaining int          `json:"monthsRemaining"`
	Badge           format.Badge `json:"badge"`
	NextPayoutDate  string       `json:"nextPayoutDate"`
	ModalLabel      string       `json:"modalLabel,omitempty"`
}

// Input is the create/replace payload.
type Input struct {
	Name              string   `json:"name" validate:"required,max=120"`
	Type              Type     `json:"type" validate:"required,oneof=outlet investasi"`
	OutletID          *int64   `json:"outletId" validate:"omitempty,gt=0"`
	ModalAmount       *float64 `json:"modalAmount"`
	BankName          string   `json:"bankName" validate:"required,max=60"`
	BankAccountNumber string   `json:"bankAccountNumber" validate:"required,numeric,max=30"`
	BankAccountHolder string   `json:"bankAccountHolder" validate:"required,max=120"`
	PayoutDay         int      `json:"payoutDay" validate:"required,min=1,max=28"`
	StartDate         string   `json:"startDate" validate:"required,datetime=2006-01-02"`
	Email             string   `json:"email" validate:"omitempty,email"`
	Phone             string   `json:"phone" validate:"omitempty,max=20"`
	UserID            *int64   `json:"userId" validate:"omitempty,gt=0"`
}

// ListFilter narrows mitra listings.
type ListFilter struct {
	Type     Type
	OutletID int64
}

var (
	// ErrMitraNotFound is returned for unknown mitra IDs.
	ErrMitraNotFound = fmt.Errorf("mitra tidak ditemukan: %w", httpx.ErrNotFound)
	// ErrUserAlreadyLinked is returned when a login is bound to two mitra.
	ErrUserAlreadyLinked = fmt.Errorf("akun sudah terhubung ke mitra lain: %w", httpx.ErrDuplicate)
)
