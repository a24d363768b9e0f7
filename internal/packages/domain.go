package packages

import (
	"fmt"
	"time"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

// Status controls public visibility.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Package is a partnership offer shown on the public site.
type Package struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	PriceLabel string    `json:"priceLabel"`
	Features   []string  `json:"features"`
	Status     Status    `json:"status"`
	IsPopular  bool      `json:"isPopular"`
	SortOrder  int       `json:"sortOrder"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Input is the create/replace payload.
type Input struct {
	Name      string   `json:"name" validate:"required,max=120"`
	Price     float64  `json:"price" validate:"gte=0"`
	Features  []string `json:"features" validate:"max=20,dive,required,max=200"`
	Status    Status   `json:"status" validate:"omitempty,oneof=active inactive"`
	IsPopular bool     `json:"isPopular"`
	SortOrder int      `json:"sortOrder" validate:"gte=0"`
}

// Source tells clients where a public listing came from.
type Source string

const (
	SourceDatabase Source = "database"
	SourceDefault  Source = "default"
)

// Listing is the public catalogue response.
type Listing struct {
	Data   []Package `json:"data"`
	Source Source    `json:"source"`
}

// ErrPackageNotFound is returned for unknown package IDs.
var ErrPackageNotFound = fmt.Errorf("paket kemitraan tidak ditemukan: %w", httpx.ErrNotFound)

// DefaultCatalogue is served publicly while no package has been stored yet.
func DefaultCatalogue() []Package {
	return []Package{
		{
			ID:    -1,
			Name:  "Paket Booth",
			Price: 7500000,
			Features: []string{
				"Booth portable siap pakai",
				"Peralatan masak lengkap",
				"Bahan baku awal 300 porsi",
				"Pelatihan crew 1 hari",
			},
			Status:    StatusActive,
			SortOrder: 1,
		},
		{
			ID:    -2,
			Name:  "Paket Outlet",
			Price: 15000000,
			Features: []string{
				"Desain outlet dan branding",
				"Peralatan masak lengkap",
				"Bahan baku awal 750 porsi",
				"Pelatihan crew 3 hari",
				"Pendampingan pembukaan outlet",
			},
			Status:    StatusActive,
			IsPopular: true,
			SortOrder: 2,
		},
		{
			ID:    -3,
			Name:  "Paket Investasi",
			Price: 25000000,
			Features: []string{
				"Outlet dikelola tim pusat",
				"Bagi hasil bulanan",
				"Laporan penjualan transparan",
				"Kontrak 24 bulan",
			},
			Status:    StatusActive,
			SortOrder: 3,
		},
	}
}
