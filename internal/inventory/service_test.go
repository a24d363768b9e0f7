package inventory

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

type memoryRepo struct {
	items     map[int64]Item
	movements []Movement
	nextID    int64
}

type memoryTx struct {
	repo    *memoryRepo
	items   map[int64]Item
	pending []Movement
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Item)}
}

// WithTx applies changes only when fn succeeds, mimicking a rollback.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{repo: r, items: make(map[int64]Item, len(r.items))}
	for k, v := range r.items {
		tx.items[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.items = tx.items
	r.movements = append(r.movements, tx.pending...)
	return nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	var out []Item
	for _, it := range r.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Item, error) {
	it, ok := r.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return it, nil
}

func (r *memoryRepo) Create(ctx context.Context, it Item) (Item, error) {
	r.nextID++
	it.ID = r.nextID
	r.items[it.ID] = it
	return it, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	delete(r.items, id)
	return nil
}

func (r *memoryRepo) Movements(ctx context.Context, itemID int64, limit int) ([]Movement, error) {
	var out []Movement
	for _, m := range r.movements {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id int64) (Item, error) {
	it, ok := tx.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return it, nil
}

func (tx *memoryTx) UpdateItem(ctx context.Context, it Item) (Item, error) {
	tx.items[it.ID] = it
	return it, nil
}

func (tx *memoryTx) SetStock(ctx context.Context, id int64, qty float64) (Item, error) {
	it := tx.items[id]
	it.CurrentStock = qty
	tx.items[id] = it
	return it, nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	m.ID = int64(len(tx.repo.movements) + len(tx.pending) + 1)
	tx.pending = append(tx.pending, m)
	return m, nil
}

type captureNotifier struct {
	events []LowStockEvent
}

func (n *captureNotifier) NotifyLowStock(ctx context.Context, evt LowStockEvent) error {
	n.events = append(n.events, evt)
	return nil
}

type memoryIdempotency struct {
	keys map[string]bool
}

func (m *memoryIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if m.keys[module+key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[module+key] = true
	return nil
}

func (m *memoryIdempotency) Delete(ctx context.Context, key, module string) error {
	delete(m.keys, module+key)
	return nil
}

func TestEvaluateStatusBoundaries(t *testing.T) {
	cases := []struct {
		current, min float64
		want         StockStatus
		label        string
	}{
		{5, 8, StatusLow, "Stok Rendah"},
		{10, 8, StatusAdequate, "Cukup"},
		{8, 8, StatusLow, "Stok Rendah"},
		{8.01, 8, StatusAdequate, "Cukup"},
		{0, 0, StatusLow, "Stok Rendah"},
	}
	for _, tc := range cases {
		got := EvaluateStatus(tc.current, tc.min)
		require.Equal(t, tc.want, got, "current=%v min=%v", tc.current, tc.min)
		require.Equal(t, tc.label, got.Label())
	}
}

func TestStatusIsLowIffCurrentAtOrBelowMin(t *testing.T) {
	for current := 0.0; current <= 20; current++ {
		for min := 0.0; min <= 20; min++ {
			low := EvaluateStatus(current, min) == StatusLow
			require.Equal(t, current <= min, low)
		}
	}
}

func seedItem(t *testing.T, svc *Service, stock, min float64) Item {
	t.Helper()
	it, err := svc.Create(context.Background(), ItemInput{Name: "Tepung", Category: "bahan_baku", Unit: "kg", CurrentStock: stock, MinStock: min, Price: 12000})
	require.NoError(t, err)
	return it
}

func TestPostMovementUpdatesStockAndCard(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	item := seedItem(t, svc, 10, 3)
	ctx := context.Background()

	m, updated, err := svc.PostMovement(ctx, item.ID, MovementInput{Type: MovementIn, Qty: 5})
	require.NoError(t, err)
	require.InDelta(t, 15, updated.CurrentStock, 1e-9)
	require.InDelta(t, 10, m.Before, 1e-9)
	require.InDelta(t, 15, m.After, 1e-9)

	m, updated, err = svc.PostMovement(ctx, item.ID, MovementInput{Type: MovementOut, Qty: 4})
	require.NoError(t, err)
	require.InDelta(t, -4, m.QtyChange, 1e-9)
	require.InDelta(t, 11, updated.CurrentStock, 1e-9)
	require.Equal(t, StatusAdequate, updated.Status)

	cards, err := svc.Movements(ctx, item.ID, 0)
	require.NoError(t, err)
	require.Len(t, cards, 2)
}

func TestPostMovementRejectsNegativeStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	item := seedItem(t, svc, 2, 1)

	_, _, err := svc.PostMovement(context.Background(), item.ID, MovementInput{Type: MovementOut, Qty: 3})
	require.ErrorIs(t, err, ErrNegativeStock)
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.InDelta(t, 2, repo.items[item.ID].CurrentStock, 1e-9)
	require.Empty(t, repo.movements)
}

func TestPostMovementValidatesQuantity(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	item := seedItem(t, svc, 2, 1)
	ctx := context.Background()

	_, _, err := svc.PostMovement(ctx, item.ID, MovementInput{Type: MovementIn, Qty: -1})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, _, err = svc.PostMovement(ctx, item.ID, MovementInput{Type: MovementAdjust, Qty: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, _, err = svc.PostMovement(ctx, item.ID, MovementInput{Type: "TRANSFER", Qty: 1})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, updated, err := svc.PostMovement(ctx, item.ID, MovementInput{Type: MovementAdjust, Qty: -2})
	require.NoError(t, err)
	require.Zero(t, updated.CurrentStock)
}

func TestPostMovementNotifiesWhenCrossingIntoLow(t *testing.T) {
	notifier := &captureNotifier{}
	svc := NewService(newMemoryRepo(), nil, nil, notifier, nil)
	item := seedItem(t, svc, 10, 8)
	ctx := context.Background()

	_, _, err := svc.PostMovement(ctx, item.ID, MovementInput{Type: MovementOut, Qty: 1})
	require.NoError(t, err)
	require.Empty(t, notifier.events)

	_, updated, err := svc.PostMovement(ctx, item.ID, MovementInput{Type: MovementOut, Qty: 1})
	require.NoError(t, err)
	require.Equal(t, StatusLow, updated.Status)
	require.Len(t, notifier.events, 1)

	_, _, err = svc.PostMovement(ctx, item.ID, MovementInput{Type: MovementOut, Qty: 1})
	require.NoError(t, err)
	require.Len(t, notifier.events, 1, "already low, no second alert")
}

func TestPostMovementReferenceIsIdempotent(t *testing.T) {
	idem := &memoryIdempotency{keys: map[string]bool{}}
	svc := NewService(newMemoryRepo(), nil, idem, nil, nil)
	item := seedItem(t, svc, 10, 1)
	ctx := context.Background()

	_, _, err := svc.PostMovement(ctx, item.ID, MovementInput{Type: MovementIn, Qty: 5, Reference: "GRN-1"})
	require.NoError(t, err)
	_, _, err = svc.PostMovement(ctx, item.ID, MovementInput{Type: MovementIn, Qty: 5, Reference: "GRN-1"})
	require.True(t, errors.Is(err, httpx.ErrConflict))

	// a failed movement frees its reference
	_, _, err = svc.PostMovement(ctx, item.ID, MovementInput{Type: MovementOut, Qty: 100, Reference: "OUT-1"})
	require.ErrorIs(t, err, ErrNegativeStock)
	_, _, err = svc.PostMovement(ctx, item.ID, MovementInput{Type: MovementOut, Qty: 1, Reference: "OUT-1"})
	require.NoError(t, err)
}

func TestUpdateBooksAdjustment(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC) }
	item := seedItem(t, svc, 10, 3)

	updated, err := svc.Update(context.Background(), item.ID, ItemInput{Name: "Tepung Terigu", Category: "bahan_baku", Unit: "kg", CurrentStock: 7, MinStock: 3, Price: 12500})
	require.NoError(t, err)
	require.Equal(t, "Tepung Terigu", updated.Name)
	require.Len(t, repo.movements, 1)
	require.Equal(t, MovementAdjust, repo.movements[0].Type)
	require.InDelta(t, -3, repo.movements[0].QtyChange, 1e-9)
}

func TestListLowOnly(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	seedItem(t, svc, 5, 8)
	seedItem(t, svc, 10, 8)

	rows, meta, err := svc.List(context.Background(), ListFilter{LowOnly: true}, shared.TableQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, meta.Total)
	require.Equal(t, "Stok Rendah", rows[0].StatusBadge.Label)
}
