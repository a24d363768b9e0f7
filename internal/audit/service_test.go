package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	rows    []TimelineRow
	err     error
	filters TimelineFilters
	offset  int
	limit   int
}

func (f *fakeRepo) Timeline(ctx context.Context, filters TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	f.filters, f.offset, f.limit = filters, offset, limit
	if f.err != nil {
		return nil, f.err
	}
	if offset >= len(f.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.rows) {
		end = len(f.rows)
	}
	out := make([]TimelineRow, end-offset)
	copy(out, f.rows[offset:end])
	return out, nil
}

func sampleRows(n int) []TimelineRow {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rows := make([]TimelineRow, n)
	for i := range rows {
		rows[i] = TimelineRow{
			ID:       int64(i + 1),
			At:       base.Add(-time.Duration(i) * time.Hour),
			Actor:    "admin@mitrahub.id",
			Action:   "product:update",
			Entity:   "product",
			EntityID: "7",
		}
	}
	return rows
}

func TestTimelinePagingDetectsNextPage(t *testing.T) {
	repo := &fakeRepo{rows: sampleRows(25)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1})
	require.NoError(t, err)
	require.Len(t, result.Rows, defaultPageSize)
	require.True(t, result.Paging.HasNext)
	require.Equal(t, 2, result.Paging.NextPage)
	require.Equal(t, defaultPageSize+1, repo.limit)

	result, err = svc.Timeline(context.Background(), TimelineFilters{Page: 2})
	require.NoError(t, err)
	require.Len(t, result.Rows, 5)
	require.False(t, result.Paging.HasNext)
	require.Equal(t, 1, result.Paging.PrevPage)
	require.Equal(t, defaultPageSize, repo.offset)
}

func TestTimelineClampsPageSize(t *testing.T) {
	repo := &fakeRepo{}
	_, err := NewService(repo).Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	require.Equal(t, maxPageSize+1, repo.limit)
}

func TestTimelineLabelsSystemActor(t *testing.T) {
	repo := &fakeRepo{rows: []TimelineRow{{ID: 1, At: time.Now()}, {ID: 2, ActorID: 9, At: time.Now()}}}
	result, err := NewService(repo).Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	require.Equal(t, "sistem", result.Rows[0].Actor)
	require.Equal(t, "user#9", result.Rows[1].Actor)
	require.NotEmpty(t, result.Rows[0].AtLabel)
}

func TestWriteCSV(t *testing.T) {
	rows := sampleRows(1)
	rows[0].Meta = json.RawMessage(`{"name":"Bakso, Urat"}`)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "waktu,aktor,aksi,entitas,id_entitas,meta", lines[0])
	require.Contains(t, lines[1], "2026-03-10T09:00:00Z,admin@mitrahub.id,product:update,product,7")
	require.Contains(t, lines[1], `"{""name"":""Bakso, Urat""}"`)
}

func newTestHandler(repo Repository) *Handler {
	h := NewHandler(nil, NewService(repo))
	h.now = func() time.Time { return time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC) }
	return h
}

func serve(h *Handler, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandlerDefaultsToLastWeek(t *testing.T) {
	repo := &fakeRepo{rows: sampleRows(2)}
	rec := serve(newTestHandler(repo), "/?actor=admin")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), repo.filters.To)
	require.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), repo.filters.From)
	require.Equal(t, "admin", repo.filters.Actor)

	var body Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rows, 2)
}

func TestHandlerRejectsBadRanges(t *testing.T) {
	h := newTestHandler(&fakeRepo{})
	require.Equal(t, http.StatusBadRequest, serve(h, "/?from=2026-03-10&to=2026-03-01").Code)
	require.Equal(t, http.StatusBadRequest, serve(h, "/?from=2025-01-01&to=2026-03-01").Code)
	require.Equal(t, http.StatusBadRequest, serve(h, "/?from=10-03-2026").Code)
}

func TestHandlerExportCSV(t *testing.T) {
	rec := serve(newTestHandler(&fakeRepo{rows: sampleRows(3)}), "/export.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "audit-timeline.csv")
	require.Equal(t, 4, strings.Count(rec.Body.String(), "\n"))
}

func TestHandlerRepositoryErrorIs500(t *testing.T) {
	rec := serve(newTestHandler(&fakeRepo{err: errors.New("db down")}), "/")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
