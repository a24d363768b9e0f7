package packages

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows   []Package
	nextID int64
	err    error
}

func (r *memoryRepo) List(ctx context.Context, activeOnly bool) ([]Package, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []Package
	for _, p := range r.rows {
		if activeOnly && p.Status != StatusActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) Count(ctx context.Context) (int, error) { return len(r.rows), r.err }

func (r *memoryRepo) Get(ctx context.Context, id int64) (Package, error) {
	for _, p := range r.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return Package{}, ErrPackageNotFound
}

func (r *memoryRepo) Create(ctx context.Context, p Package) (Package, error) {
	r.nextID++
	p.ID = r.nextID
	r.rows = append(r.rows, p)
	return p, nil
}

func (r *memoryRepo) Update(ctx context.Context, p Package) (Package, error) {
	for i := range r.rows {
		if r.rows[i].ID == p.ID {
			r.rows[i] = p
			return p, nil
		}
	}
	return Package{}, ErrPackageNotFound
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error { return nil }

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, nil)), buf
}

func TestPublicFallsBackOnlyWhenEmpty(t *testing.T) {
	logger, logs := bufferLogger()
	repo := &memoryRepo{}
	svc := NewService(repo, nil, logger, true)
	ctx := context.Background()

	listing, err := svc.Public(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceDefault, listing.Source)
	require.Len(t, listing.Data, 3)
	require.Equal(t, "Rp 15.000.000", listing.Data[1].PriceLabel)
	require.Contains(t, logs.String(), "level=WARN")

	_, err = svc.Create(ctx, Input{Name: "Paket Lama", Price: 1000, Status: StatusInactive})
	require.NoError(t, err)
	listing, err = svc.Public(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceDatabase, listing.Source)
	require.Empty(t, listing.Data)
	require.NotNil(t, listing.Data)

	_, err = svc.Create(ctx, Input{Name: "Paket Baru", Price: 2000, Features: []string{" Booth ", ""}})
	require.NoError(t, err)
	listing, err = svc.Public(ctx)
	require.NoError(t, err)
	require.Len(t, listing.Data, 1)
	require.Equal(t, []string{"Booth"}, listing.Data[0].Features)
}

func TestPublicWithoutFallback(t *testing.T) {
	svc := NewService(&memoryRepo{}, nil, nil, false)
	listing, err := svc.Public(context.Background())
	require.NoError(t, err)
	require.Equal(t, SourceDatabase, listing.Source)
	require.Empty(t, listing.Data)
}

func TestRepositoryFailureIsNotMasked(t *testing.T) {
	repo := &memoryRepo{err: errors.New("connection refused")}
	svc := NewService(repo, nil, nil, true)

	_, err := svc.Public(context.Background())
	require.EqualError(t, err, "connection refused")

	h := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.Route("/packages", h.MountPublicRoutes)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/packages", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "Paket Booth")
}

func TestPublicEndpointReportsSource(t *testing.T) {
	logger, _ := bufferLogger()
	h := NewHandler(nil, NewService(&memoryRepo{}, nil, logger, true))
	r := chi.NewRouter()
	r.Route("/packages", h.MountPublicRoutes)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/packages", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"source":"default"`)
}
