package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/mitrahub/mitrahub/internal/inventory"
	"github.com/mitrahub/mitrahub/internal/mitra"
	"github.com/mitrahub/mitrahub/internal/outlets"
	"github.com/mitrahub/mitrahub/internal/restock"
	"github.com/mitrahub/mitrahub/internal/sales"
)

type stubMitra struct {
	active   int
	expiring []mitra.Mitra
	months   int
}

func (s *stubMitra) ActiveCount(ctx context.Context) (int, error) { return s.active, nil }

func (s *stubMitra) Expiring(ctx context.Context, withinMonths int) ([]mitra.Mitra, error) {
	s.months = withinMonths
	return s.expiring, nil
}

type stubOutlets struct{ err error }

func (s stubOutlets) Counts(ctx context.Context) (outlets.Counts, error) {
	return outlets.Counts{Total: 4, Active: 3, MitraOwned: 2}, s.err
}

type stubInventory int

func (n stubInventory) LowStock(ctx context.Context) ([]inventory.Item, error) {
	return make([]inventory.Item, int(n)), nil
}

type stubRestock struct{ status restock.Status }

func (s *stubRestock) ByStatus(ctx context.Context, status restock.Status) ([]restock.Order, error) {
	s.status = status
	return []restock.Order{{ID: 1}, {ID: 2}}, nil
}

type stubSales struct{}

func (stubSales) Summary(ctx context.Context, period sales.Period, from, to time.Time, outletID int64) (sales.Summary, error) {
	return sales.Summary{Period: period, Totals: sales.Group{NetIncome: 1500000, Transactions: 12}}, nil
}

func newTestService(outletErr error) (*Service, *stubMitra, *stubRestock) {
	m := &stubMitra{active: 7, expiring: []mitra.Mitra{{ID: 3, Name: "Sari"}}}
	r := &stubRestock{}
	svc := NewService(Sources{
		Mitra:     m,
		Outlets:   stubOutlets{err: outletErr},
		Inventory: stubInventory(8),
		Restock:   r,
		Sales:     stubSales{},
	}, 0, nil)
	return svc, m, r
}

func TestOverviewGathersEverySource(t *testing.T) {
	svc, m, r := newTestService(nil)

	out, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, out.ActiveMitra)
	require.Equal(t, 3, out.Outlets.Active)
	require.Equal(t, 8, out.LowStockCount)
	require.Len(t, out.LowStock, maxListed)
	require.Equal(t, 2, out.PendingRestock)
	require.Equal(t, restock.StatusPending, r.status)
	require.Equal(t, 1500000.0, out.MonthSales.NetIncome)
	require.Len(t, out.ExpiringMitra, 1)
	require.Equal(t, 3, m.months)
	require.Equal(t, 3, out.ExpiringMonths)
}

func TestOverviewFailsWhenAnySourceFails(t *testing.T) {
	svc, _, _ := newTestService(errors.New("db down"))

	_, err := svc.Overview(context.Background())
	require.EqualError(t, err, "db down")

	h := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.Route("/dashboard", h.MountRoutes)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
