package attendance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

type memoryRepo struct {
	rows   []Record
	nextID int64
}

func (r *memoryRepo) taken(rec Record) bool {
	for _, existing := range r.rows {
		if existing.ID != rec.ID && existing.UserID == rec.UserID && existing.Date.Equal(rec.Date) {
			return true
		}
	}
	return false
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	var out []Record
	for _, rec := range r.rows {
		if filter.UserID > 0 && rec.UserID != filter.UserID {
			continue
		}
		if !filter.From.IsZero() && rec.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && rec.Date.After(filter.To) {
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

func (r *memoryRepo) GetByUserDate(ctx context.Context, userID int64, date time.Time) (Record, error) {
	for _, rec := range r.rows {
		if rec.UserID == userID && rec.Date.Equal(date) {
			return rec, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (r *memoryRepo) Create(ctx context.Context, rec Record) (Record, error) {
	if r.taken(rec) {
		return Record{}, ErrAlreadyRecorded
	}
	r.nextID++
	rec.ID = r.nextID
	rec.UserName = "User " + string(rune('A'+rec.UserID%26))
	r.rows = append(r.rows, rec)
	return rec, nil
}

func (r *memoryRepo) Update(ctx context.Context, rec Record) (Record, error) {
	if r.taken(rec) {
		return Record{}, ErrAlreadyRecorded
	}
	for i := range r.rows {
		if r.rows[i].ID == rec.ID {
			rec.UserName = r.rows[i].UserName
			r.rows[i] = rec
			return rec, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

var wib = time.FixedZone("WIB", 7*60*60)

func newService(at time.Time) (*Service, *memoryRepo, *time.Time) {
	repo := &memoryRepo{}
	svc := NewService(repo, nil, wib, nil)
	clock := at
	svc.now = func() time.Time { return clock }
	return svc, repo, &clock
}

func TestCheckInAndOut(t *testing.T) {
	svc, _, clock := newService(time.Date(2026, time.October, 16, 1, 30, 0, 0, time.UTC))
	ctx := context.Background()

	rec, err := svc.CheckIn(ctx, 5, CheckInput{})
	require.NoError(t, err)
	require.Equal(t, StatusHadir, rec.Status)
	require.Equal(t, time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC), rec.Date)
	require.Equal(t, "Hadir", rec.StatusBadge.Label)

	*clock = clock.Add(9 * time.Hour)
	rec, err = svc.CheckOut(ctx, 5, CheckInput{Note: "tutup toko"})
	require.NoError(t, err)
	require.NotNil(t, rec.CheckOut)
	require.Equal(t, 9.0, rec.WorkHours)
	require.Equal(t, "tutup toko", rec.Note)

	_, err = svc.CheckOut(ctx, 5, CheckInput{})
	require.ErrorIs(t, err, ErrAlreadyCheckedOut)
}

func TestDuplicateAttendanceRejected(t *testing.T) {
	svc, _, _ := newService(time.Date(2026, time.October, 16, 1, 30, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, 5, CheckInput{})
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, 5, CheckInput{})
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	_, err = svc.Create(ctx, RecordInput{UserID: 5, Date: "2026-10-16", Status: StatusIzin})
	require.ErrorIs(t, err, ErrAlreadyRecorded)

	_, err = svc.CheckIn(ctx, 6, CheckInput{})
	require.NoError(t, err)
}

func TestDayIsCutInBusinessTimeZone(t *testing.T) {
	svc, _, _ := newService(time.Date(2026, time.October, 16, 18, 0, 0, 0, time.UTC))
	rec, err := svc.CheckIn(context.Background(), 5, CheckInput{})
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC), rec.Date)
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	svc, _, _ := newService(time.Date(2026, time.October, 16, 1, 30, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := svc.CheckOut(ctx, 5, CheckInput{})
	require.ErrorIs(t, err, ErrNotCheckedIn)

	_, err = svc.Create(ctx, RecordInput{UserID: 5, Date: "2026-10-16", Status: StatusSakit})
	require.NoError(t, err)
	_, err = svc.CheckOut(ctx, 5, CheckInput{})
	require.ErrorIs(t, err, ErrNotCheckedIn)
}

func TestAdminRecordValidatesTimes(t *testing.T) {
	svc, _, _ := newService(time.Date(2026, time.October, 16, 1, 30, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := svc.Create(ctx, RecordInput{UserID: 5, Date: "2026-10-10", Status: StatusHadir, CheckIn: "17:00", CheckOut: "08:00"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, RecordInput{UserID: 5, Date: "2026-10-10", Status: StatusHadir, CheckOut: "08:00"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, RecordInput{UserID: 5, Date: "2026-10-10", Status: StatusAlpha, CheckIn: "08:00"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	rec, err := svc.Create(ctx, RecordInput{UserID: 5, Date: "2026-10-10", Status: StatusHadir, CheckIn: "08:00", CheckOut: "16:30"})
	require.NoError(t, err)
	require.Equal(t, 8.5, rec.WorkHours)
}

func TestMonthlyRecap(t *testing.T) {
	svc, _, _ := newService(time.Date(2026, time.October, 16, 1, 30, 0, 0, time.UTC))
	ctx := context.Background()
	entries := []RecordInput{
		{UserID: 1, Date: "2026-10-01", Status: StatusHadir, CheckIn: "08:00", CheckOut: "16:00"},
		{UserID: 1, Date: "2026-10-02", Status: StatusHadir, CheckIn: "08:00", CheckOut: "12:00"},
		{UserID: 1, Date: "2026-10-03", Status: StatusIzin},
		{UserID: 2, Date: "2026-10-01", Status: StatusSakit},
		{UserID: 2, Date: "2026-10-02", Status: StatusAlpha},
		{UserID: 2, Date: "2026-09-30", Status: StatusAlpha},
	}
	for _, in := range entries {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	rows, err := svc.Recap(ctx, "2026-10", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, RecapRow{UserID: 1, UserName: "User B", Hadir: 2, Izin: 1, Total: 3, WorkHours: 12}, rows[0])
	require.Equal(t, RecapRow{UserID: 2, UserName: "User C", Sakit: 1, Alpha: 1, Total: 2}, rows[1])

	_, err = svc.Recap(ctx, "Oktober", 0)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestWorkerCheckInEndpoint(t *testing.T) {
	svc, _, _ := newService(time.Date(2026, time.October, 16, 1, 30, 0, 0, time.UTC))
	h := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.Route("/attendance", h.MountWorkerRoutes)
	ctx := shared.ContextWithPrincipal(context.Background(), &shared.Principal{UserID: 5, Role: shared.RoleCrew})

	req := httptest.NewRequest(http.MethodPost, "/attendance/check-in", nil).WithContext(ctx)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/attendance/check-in", strings.NewReader(`{"note":"lagi"}`)).WithContext(ctx)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusConflict, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/attendance/today", nil).WithContext(ctx)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"status":"hadir"`)
}
