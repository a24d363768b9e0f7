package sales

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mitrahub/mitrahub/internal/platform/cache"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

type memoryRepo struct {
	rows   []Record
	nextID int64
	lists  int
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	r.lists++
	var out []Record
	for _, rec := range r.rows {
		if !filter.From.IsZero() && rec.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && rec.Date.After(filter.To) {
			continue
		}
		if filter.OutletID > 0 && rec.OutletID != filter.OutletID {
			continue
		}
		if filter.RecordedBy > 0 && rec.RecordedBy != filter.RecordedBy {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Record, error) {
	for _, rec := range r.rows {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (r *memoryRepo) Create(ctx context.Context, rec Record) (Record, error) {
	r.nextID++
	rec.ID = r.nextID
	r.rows = append(r.rows, rec)
	return rec, nil
}

func (r *memoryRepo) Update(ctx context.Context, rec Record) (Record, error) {
	for i := range r.rows {
		if r.rows[i].ID == rec.ID {
			r.rows[i] = rec
			return rec, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return ErrRecordNotFound
}

type cacheCounter struct {
	hits, misses int
}

func (c *cacheCounter) CacheLookup(namespace string, hit bool) {
	if hit {
		c.hits++
		return
	}
	c.misses++
}

var today = time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *memoryRepo, *cacheCounter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := &memoryRepo{}
	counter := &cacheCounter{}
	svc := NewService(repo, nil, cache.NewVersioned(client, CacheNamespace, time.Minute), counter, nil)
	svc.now = func() time.Time { return today }
	return svc, repo, counter
}

func asUser(id int64, role shared.Role) context.Context {
	return shared.ContextWithPrincipal(context.Background(), &shared.Principal{UserID: id, Role: role})
}

func TestCreateStampsRecorderAndNetIncome(t *testing.T) {
	svc, _, _ := newService(t)

	rec, err := svc.Create(asUser(7, shared.RoleCrew), Input{
		Date:      "2026-10-15",
		OutletID:  3,
		CashValue: 250000,
		QrisValue: 150000,
		CashOut:   100000,
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), rec.RecordedBy)
	require.Equal(t, 400000.0, rec.CashIn)
	require.Equal(t, 300000.0, rec.NetIncome)
	require.Equal(t, "15 Oktober 2026", rec.DateLabel)
}

func TestCreateRejectsCashInThatDisagreesWithSplit(t *testing.T) {
	svc, repo, _ := newService(t)

	_, err := svc.Create(asUser(7, shared.RoleCrew), Input{
		Date:      "2026-10-15",
		OutletID:  3,
		CashIn:    500000,
		CashValue: 300000,
		CashOut:   50000,
	})
	var verr *httpx.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "cashIn")
	require.Empty(t, repo.rows)

	rec, err := svc.Create(asUser(7, shared.RoleCrew), Input{
		Date:      "2026-10-15",
		OutletID:  3,
		CashIn:    500000,
		CashValue: 300000,
		QrisValue: 200000,
		CashOut:   50000,
	})
	require.NoError(t, err)
	require.Equal(t, 450000.0, rec.NetIncome)
}

func TestUpdateKeepsRecorder(t *testing.T) {
	svc, _, _ := newService(t)
	rec, err := svc.Create(asUser(7, shared.RoleStaff), Input{Date: "2026-10-15", OutletID: 3, CashIn: 100000})
	require.NoError(t, err)

	rec, err = svc.Update(asUser(1, shared.RoleAdmin), rec.ID, Input{Date: "2026-10-15", OutletID: 3, CashIn: 120000, CashOut: 20000})
	require.NoError(t, err)
	require.Equal(t, int64(7), rec.RecordedBy)
	require.Equal(t, 100000.0, rec.NetIncome)

	_, err = svc.Update(context.Background(), 99, Input{Date: "2026-10-15", OutletID: 3})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestSummaryCachedUntilWrite(t *testing.T) {
	svc, repo, counter := newService(t)
	ctx := asUser(7, shared.RoleStaff)
	_, err := svc.Create(ctx, Input{Date: "2026-10-02", OutletID: 1, CashIn: 100000, CashOut: 10000})
	require.NoError(t, err)

	first, err := svc.Summary(ctx, PeriodMonthly, time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, first.Groups, 1)
	require.Equal(t, 90000.0, first.Totals.NetIncome)
	require.Equal(t, day("2026-10-01"), first.From)
	require.Equal(t, day("2026-10-16"), first.To)

	_, err = svc.Summary(ctx, PeriodMonthly, time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	require.Equal(t, 1, repo.lists)
	require.Equal(t, 1, counter.hits)
	require.Equal(t, 1, counter.misses)

	_, err = svc.Create(ctx, Input{Date: "2026-10-03", OutletID: 1, CashIn: 50000})
	require.NoError(t, err)

	again, err := svc.Summary(ctx, PeriodMonthly, time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	require.Equal(t, 2, repo.lists)
	require.Equal(t, 140000.0, again.Totals.NetIncome)
	require.Equal(t, 2, again.Totals.Transactions)
}

func TestSummaryRejectsInvertedRange(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Summary(context.Background(), PeriodWeekly, day("2026-10-10"), day("2026-10-01"), 0)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSummaryDefaultRangeUsesBusinessDay(t *testing.T) {
	svc, _, _ := newService(t)
	svc.now = func() time.Time { return time.Date(2026, time.October, 31, 18, 30, 0, 0, time.UTC) }
	sum, err := svc.Summary(context.Background(), PeriodMonthly, time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	require.Equal(t, day("2026-11-01"), sum.From)
	require.Equal(t, day("2026-11-01"), sum.To)
}

func TestWarmUpPreparesBothPeriods(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()
	for _, d := range []string{"2026-10-01", "2026-10-06", "2026-10-13"} {
		_, err := svc.Create(ctx, Input{Date: d, OutletID: 1, CashIn: 1000})
		require.NoError(t, err)
	}

	groups, err := svc.WarmUp(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, groups)
	require.Equal(t, 2, repo.lists)
}

func TestWorkerListingOnlyShowsOwnRecords(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Create(asUser(7, shared.RoleCrew), Input{Date: "2026-10-15", OutletID: 1, CashIn: 1000})
	require.NoError(t, err)
	_, err = svc.Create(asUser(8, shared.RoleCrew), Input{Date: "2026-10-15", OutletID: 2, CashIn: 2000})
	require.NoError(t, err)

	h := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.Route("/sales", h.MountWorkerRoutes)

	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	req = req.WithContext(asUser(7, shared.RoleCrew))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"recordedBy":7`)
	require.NotContains(t, rr.Body.String(), `"recordedBy":8`)

	req = httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(`{"date":"15-10-2026","outletId":1}`))
	req = req.WithContext(asUser(7, shared.RoleCrew))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminSummaryEndpoint(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Create(context.Background(), Input{Date: "2026-10-15", OutletID: 1, CashIn: 1000})
	require.NoError(t, err)

	h := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.Route("/sales", h.MountAdminRoutes)

	req := httptest.NewRequest(http.MethodGet, "/sales/summary?period=weekly&from=2026-10-01&to=2026-10-31", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Contains(t, rr.Body.String(), `"key":"2026-10-11"`)

	req = httptest.NewRequest(http.MethodGet, "/sales/summary?period=yearly", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
