// Package dashboard assembles the admin overview from the domain services.
package dashboard

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mitrahub/mitrahub/internal/inventory"
	"github.com/mitrahub/mitrahub/internal/mitra"
	"github.com/mitrahub/mitrahub/internal/outlets"
	"github.com/mitrahub/mitrahub/internal/restock"
	"github.com/mitrahub/mitrahub/internal/sales"
)

// MitraSource reports partner figures.
type MitraSource interface {
	ActiveCount(ctx context.Context) (int, error)
	Expiring(ctx context.Context, withinMonths int) ([]mitra.Mitra, error)
}

// OutletSource reports outlet figures.
type OutletSource interface {
	Counts(ctx context.Context) (outlets.Counts, error)
}

// InventorySource lists low stock items.
type InventorySource interface {
	LowStock(ctx context.Context) ([]inventory.Item, error)
}

// RestockSource lists orders by status.
type RestockSource interface {
	ByStatus(ctx context.Context, status restock.Status) ([]restock.Order, error)
}

// SalesSource aggregates sales.
type SalesSource interface {
	Summary(ctx context.Context, period sales.Period, from, to time.Time, outletID int64) (sales.Summary, error)
}

// Overview is the admin landing payload.
type Overview struct {
	ActiveMitra    int              `json:"activeMitra"`
	Outlets        outlets.Counts   `json:"outlets"`
	LowStockCount  int              `json:"lowStockCount"`
	LowStock       []inventory.Item `json:"lowStock"`
	PendingRestock int              `json:"pendingRestock"`
	PendingOrders  []restock.Order  `json:"pendingOrders"`
	MonthSales     sales.Group      `json:"monthSales"`
	ExpiringMitra  []mitra.Mitra    `json:"expiringMitra"`
	ExpiringMonths int              `json:"expiringMonths"`
	GeneratedAt    time.Time        `json:"generatedAt"`
}

// Service gathers the overview concurrently.
type Service struct {
	mitra          MitraSource
	outlets        OutletSource
	inventory      InventorySource
	restock        RestockSource
	sales          SalesSource
	expiringMonths int
	logger         *slog.Logger
	now            func() time.Time
}

// Sources groups the dashboard's dependencies.
type Sources struct {
	Mitra     MitraSource
	Outlets   OutletSource
	Inventory InventorySource
	Restock   RestockSource
	Sales     SalesSource
}

// NewService builds Service. expiringMonths is the contract reminder window.
func NewService(src Sources, expiringMonths int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if expiringMonths <= 0 {
		expiringMonths = 3
	}
	return &Service{
		mitra:          src.Mitra,
		outlets:        src.Outlets,
		inventory:      src.Inventory,
		restock:        src.Restock,
		sales:          src.Sales,
		expiringMonths: expiringMonths,
		logger:         logger,
		now:            time.Now,
	}
}

// maxListed caps the preview lists on the overview.
const maxListed = 5

// Overview runs every query in parallel and fails if any of them fails.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	out := Overview{ExpiringMonths: s.expiringMonths, GeneratedAt: s.now().UTC()}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.mitra.ActiveCount(gctx)
		out.ActiveMitra = n
		return err
	})
	g.Go(func() error {
		rows, err := s.mitra.Expiring(gctx, s.expiringMonths)
		out.ExpiringMitra = rows
		return err
	})
	g.Go(func() error {
		c, err := s.outlets.Counts(gctx)
		out.Outlets = c
		return err
	})
	g.Go(func() error {
		rows, err := s.inventory.LowStock(gctx)
		out.LowStockCount = len(rows)
		out.LowStock = head(rows)
		return err
	})
	g.Go(func() error {
		rows, err := s.restock.ByStatus(gctx, restock.StatusPending)
		out.PendingRestock = len(rows)
		out.PendingOrders = head(rows)
		return err
	})
	g.Go(func() error {
		sum, err := s.sales.Summary(gctx, sales.PeriodMonthly, time.Time{}, time.Time{}, 0)
		out.MonthSales = sum.Totals
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard overview", slog.Any("error", err))
		return Overview{}, err
	}
	if out.ExpiringMitra == nil {
		out.ExpiringMitra = []mitra.Mitra{}
	}
	return out, nil
}

func head[T any](rows []T) []T {
	if len(rows) > maxListed {
		return rows[:maxListed]
	}
	if rows == nil {
		return []T{}
	}
	return rows
}
