package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mitrahub/mitrahub/internal/format"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, filter ListFilter) ([]Item, error)
	Get(ctx context.Context, id int64) (Item, error)
	Create(ctx context.Context, item Item) (Item, error)
	Delete(ctx context.Context, id int64) error
	Movements(ctx context.Context, itemID int64, limit int) ([]Movement, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards against replayed movement references.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Service coordinates inventory operations.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
	notifier    LowStockNotifier
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service. audit, idem and notifier may be nil.
func NewService(repo RepositoryPort, audit AuditPort, idem IdempotencyPort, notifier LowStockNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, idempotency: idem, notifier: notifier, logger: logger, now: time.Now}
}

// List returns a page of items with their stock status.
func (s *Service) List(ctx context.Context, filter ListFilter, q shared.TableQuery) ([]Item, shared.Pagination, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	for i := range rows {
		decorate(&rows[i])
	}
	if filter.LowOnly {
		rows = onlyLow(rows)
	}
	page, meta := shared.FilterPage(rows, q, func(it Item) string { return it.Name + " " + it.Category })
	return page, meta, nil
}

// LowStock returns every item at or below its minimum.
func (s *Service) LowStock(ctx context.Context) ([]Item, error) {
	rows, err := s.repo.List(ctx, ListFilter{LowOnly: true})
	if err != nil {
		return nil, err
	}
	for i := range rows {
		decorate(&rows[i])
	}
	return onlyLow(rows), nil
}

// Get returns an item by ID.
func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	decorate(&item)
	return item, nil
}

// Create inserts an item.
func (s *Service) Create(ctx context.Context, in ItemInput) (Item, error) {
	item, err := fromInput(in)
	if err != nil {
		return Item{}, err
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return Item{}, err
	}
	s.record(ctx, "inventory:create", created.ID, map[string]any{"name": created.Name, "stock": created.CurrentStock})
	decorate(&created)
	return created, nil
}

// Update replaces an item. A changed CurrentStock is booked as an ADJUST
// movement in the same transaction.
func (s *Service) Update(ctx context.Context, id int64, in ItemInput) (Item, error) {
	next, err := fromInput(in)
	if err != nil {
		return Item{}, err
	}
	next.ID = id
	var (
		updated Item
		crossed bool
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		delta := next.CurrentStock - current.CurrentStock
		updated, err = tx.UpdateItem(ctx, next)
		if err != nil {
			return err
		}
		if math.Abs(delta) > 1e-9 {
			if _, err := tx.InsertMovement(ctx, Movement{
				ItemID:    id,
				Type:      MovementAdjust,
				QtyChange: delta,
				Before:    current.CurrentStock,
				After:     next.CurrentStock,
				Note:      "koreksi melalui edit item",
				ActorID:   shared.ActorID(ctx),
				At:        s.now().UTC(),
			}); err != nil {
				return err
			}
		}
		crossed = EvaluateStatus(current.CurrentStock, current.MinStock) == StatusAdequate &&
			EvaluateStatus(updated.CurrentStock, updated.MinStock) == StatusLow
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	s.record(ctx, "inventory:update", id, map[string]any{"name": updated.Name, "stock": updated.CurrentStock})
	if crossed {
		s.notifyLow(ctx, updated)
	}
	decorate(&updated)
	return updated, nil
}

// Delete removes an item together with its stock card.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "inventory:delete", id, nil)
	return nil
}

// Movements lists the latest stock card entries of an item.
func (s *Service) Movements(ctx context.Context, itemID int64, limit int) ([]Movement, error) {
	if itemID <= 0 {
		return nil, errMissingItem
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.Movements(ctx, itemID, limit)
}

// PostMovement books a stock movement. Stock never goes below zero.
func (s *Service) PostMovement(ctx context.Context, itemID int64, in MovementInput) (Movement, Item, error) {
	if itemID <= 0 {
		return Movement{}, Item{}, errMissingItem
	}
	qtyChange, err := signedQty(in.Type, in.Qty)
	if err != nil {
		return Movement{}, Item{}, err
	}
	reference := strings.TrimSpace(in.Reference)
	key := ""
	if s.idempotency != nil && reference != "" {
		key = fmt.Sprintf("%s:%d:%s", in.Type, itemID, reference)
		if err := s.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
			return Movement{}, Item{}, err
		}
	}

	var (
		movement Movement
		item     Item
		before   Item
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		before = current
		newQty := current.CurrentStock + qtyChange
		if math.Abs(newQty) < 1e-9 {
			newQty = 0
		}
		if newQty < 0 {
			return ErrNegativeStock
		}
		movement, err = tx.InsertMovement(ctx, Movement{
			ItemID:    itemID,
			Type:      in.Type,
			QtyChange: qtyChange,
			Before:    current.CurrentStock,
			After:     newQty,
			Note:      strings.TrimSpace(in.Note),
			Reference: reference,
			ActorID:   shared.ActorID(ctx),
			At:        s.now().UTC(),
		})
		if err != nil {
			return err
		}
		item, err = tx.SetStock(ctx, itemID, newQty)
		return err
	})
	if err != nil {
		if key != "" {
			_ = s.idempotency.Delete(ctx, key, "inventory")
		}
		return Movement{}, Item{}, err
	}
	s.record(ctx, "inventory:"+strings.ToLower(string(in.Type)), itemID, map[string]any{
		"qty":    qtyChange,
		"before": movement.Before,
		"after":  movement.After,
		"note":   movement.Note,
	})
	if EvaluateStatus(before.CurrentStock, before.MinStock) == StatusAdequate &&
		EvaluateStatus(item.CurrentStock, item.MinStock) == StatusLow {
		s.notifyLow(ctx, item)
	}
	decorate(&item)
	return movement, item, nil
}

func (s *Service) notifyLow(ctx context.Context, item Item) {
	if s.notifier == nil {
		return
	}
	evt := LowStockEvent{
		ItemID:       item.ID,
		Name:         item.Name,
		Unit:         item.Unit,
		CurrentStock: item.CurrentStock,
		MinStock:     item.MinStock,
		At:           s.now().UTC(),
	}
	if err := s.notifier.NotifyLowStock(ctx, evt); err != nil {
		s.logger.Warn("notify low stock", slog.Int64("item_id", item.ID), slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "inventory_item",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}

func signedQty(t MovementType, qty float64) (float64, error) {
	switch t {
	case MovementIn:
		if qty <= 0 {
			return 0, ErrInvalidQuantity
		}
		return qty, nil
	case MovementOut:
		if qty <= 0 {
			return 0, ErrInvalidQuantity
		}
		return -qty, nil
	case MovementAdjust:
		if math.Abs(qty) < 1e-9 {
			return 0, ErrInvalidQuantity
		}
		return qty, nil
	default:
		return 0, fmt.Errorf("%w: unknown movement type %q", httpx.ErrValidation, t)
	}
}

func fromInput(in ItemInput) (Item, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "is required"
	}
	if strings.TrimSpace(in.Unit) == "" {
		fields["unit"] = "is required"
	}
	if in.CurrentStock < 0 {
		fields["currentStock"] = "must be at least 0"
	}
	if in.MinStock < 0 {
		fields["minStock"] = "must be at least 0"
	}
	if in.Price < 0 {
		fields["price"] = "must be at least 0"
	}
	if len(fields) > 0 {
		return Item{}, &httpx.ValidationError{Fields: fields}
	}
	return Item{
		Name:         strings.TrimSpace(in.Name),
		Category:     strings.ToLower(strings.TrimSpace(in.Category)),
		Unit:         strings.TrimSpace(in.Unit),
		CurrentStock: in.CurrentStock,
		MinStock:     in.MinStock,
		Price:        in.Price,
	}, nil
}

func decorate(it *Item) {
	it.Status = EvaluateStatus(it.CurrentStock, it.MinStock)
	it.StatusBadge = it.Status.Badge()
	it.CategoryLabel = format.CategoryLabel(it.Category)
	it.PriceLabel = format.Rupiah(it.Price)
}

func onlyLow(rows []Item) []Item {
	out := rows[:0]
	for _, it := range rows {
		if it.Status == StatusLow {
			out = append(out, it)
		}
	}
	return out
}

