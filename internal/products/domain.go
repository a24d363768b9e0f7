package products

import (
	"fmt"
	"time"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

// Product is a menu/catalogue row sold at outlets and ordered by mitra.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	CategoryLabel string    `json:"categoryLabel"`
	Price         float64   `json:"price"`
	PriceLabel    string    `json:"priceLabel"`
	PcsPerPortion int       `json:"pcsPerPortion"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Input is the create/replace payload.
type Input struct {
	Name          string  `json:"name" validate:"required,max=120"`
	Category      string  `json:"category" validate:"required,max=40"`
	Price         float64 `json:"price" validate:"gte=0"`
	PcsPerPortion int     `json:"pcsPerPortion" validate:"gte=1"`
	IsActive      *bool   `json:"isActive"`
}

// ListFilter narrows List results.
type ListFilter struct {
	Category   string
	ActiveOnly bool
}

// ErrProductNotFound is returned for unknown product IDs.
var ErrProductNotFound = fmt.Errorf("produk tidak ditemukan: %w", httpx.ErrNotFound)
