package restock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/products"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Repository persists orders.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	Get(ctx context.Context, id int64) (Order, error)
	Create(ctx context.Context, o Order) (Order, error)
	// UpdateStatus applies the change only while the stored status still equals from.
	UpdateStatus(ctx context.Context, id int64, from, to Status, courier, tracking string) (Order, error)
	SetPayment(ctx context.Context, id int64, status PaymentStatus) (Order, error)
	Delete(ctx context.Context, id int64) error
	// FindByIdempotencyKey returns the order created under key.
	FindByIdempotencyKey(ctx context.Context, key string) (Order, error)
}

// ProductLookup prices order lines.
type ProductLookup interface {
	Lookup(ctx context.Context, ids []int64) (map[int64]products.Product, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards order creation against replays.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// TransitionRecorder counts status transitions.
type TransitionRecorder interface {
	RestockTransition(from, to string)
}

const idempotencyModule = "restock"

// Service applies restock order rules.
type Service struct {
	repo     Repository
	products ProductLookup
	audit    AuditPort
	idem     IdempotencyPort
	metrics  TransitionRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service. audit, idem and metrics may be nil.
func NewService(repo Repository, lookup ProductLookup, audit AuditPort, idem IdempotencyPort, metrics TransitionRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		products: lookup,
		audit:    audit,
		idem:     idem,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns a page of orders.
func (s *Service) List(ctx context.Context, filter ListFilter, q shared.TableQuery) ([]Order, shared.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, shared.Pagination{}, &httpx.ValidationError{Fields: map[string]string{"status": "unknown status"}}
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	for i := range rows {
		decorate(&rows[i])
	}
	page, meta := shared.FilterPage(rows, q, func(o Order) string {
		return o.OrderNumber + " " + o.MitraName + " " + o.TrackingNumber
	})
	return page, meta, nil
}

// Get returns an order.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	decorate(&o)
	return o, nil
}

// ByStatus returns every order in the given status.
func (s *Service) ByStatus(ctx context.Context, status Status) ([]Order, error) {
	rows, err := s.repo.List(ctx, ListFilter{Status: status})
	if err != nil {
		return nil, err
	}
	for i := range rows {
		decorate(&rows[i])
	}
	return rows, nil
}

func (s *Service) replay(ctx context.Context, key string, mitraID int64, conflict error) (Order, error) {
	o, err := s.repo.FindByIdempotencyKey(ctx, key)
	if errors.Is(err, ErrOrderNotFound) {
		return Order{}, conflict
	}
	if err != nil {
		return Order{}, err
	}
	if o.MitraID != mitraID {
		return Order{}, conflict
	}
	decorate(&o)
	o.Replayed = true
	return o, nil
}

// GetOwned returns an order only when it belongs to mitraID.
func (s *Service) GetOwned(ctx context.Context, mitraID, id int64) (Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.MitraID != mitraID {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

// Create prices and stores a new pending order. A replay of a non-empty
// idempotencyKey returns the order first created under it, flagged Replayed.
// A replay that arrives while the first request is still running, or that
// names another mitra, fails with a conflict.
func (s *Service) Create(ctx context.Context, in CreateInput, idempotencyKey string) (Order, error) {
	if in.MitraID <= 0 {
		return Order{}, &httpx.ValidationError{Fields: map[string]string{"mitraId": "is required"}}
	}
	items, total, err := s.price(ctx, in.Items)
	if err != nil {
		return Order{}, err
	}
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return s.replay(ctx, idempotencyKey, in.MitraID, err)
			}
			return Order{}, err
		}
	}
	order := Order{
		OrderNumber:     s.orderNumber(),
		MitraID:         in.MitraID,
		Items:           items,
		TotalItemsCost:  total,
		ShippingCost:    in.ShippingCost,
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		Courier:         strings.TrimSpace(in.Courier),
		Status:          StatusPending,
		PaymentStatus:   PaymentUnpaid,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedBy:       shared.ActorID(ctx),
		IdempotencyKey:  idempotencyKey,
	}
	saved, err := s.repo.Create(ctx, order)
	if err != nil {
		if idempotencyKey != "" && s.idem != nil {
			if derr := s.idem.Delete(ctx, idempotencyKey, idempotencyModule); derr != nil {
				s.logger.Warn("release idempotency key", slog.String("key", idempotencyKey), slog.Any("error", derr))
			}
		}
		return Order{}, err
	}
	decorate(&saved)
	s.record(ctx, "restock:create", saved.ID, map[string]any{
		"order_number": saved.OrderNumber,
		"mitra_id":     saved.MitraID,
		"total":        saved.GrandTotal,
	})
	if s.metrics != nil {
		s.metrics.RestockTransition("new", string(StatusPending))
	}
	return saved, nil
}

// Transition moves an order one step forward or cancels it.
func (s *Service) Transition(ctx context.Context, id int64, in TransitionInput) (Order, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(current.Status, in.Status) {
		return Order{}, fmt.Errorf("%s -> %s: %w", current.Status, in.Status, ErrInvalidTransition)
	}
	courier := strings.TrimSpace(in.Courier)
	if courier == "" {
		courier = current.Courier
	}
	tracking := strings.TrimSpace(in.TrackingNumber)
	if tracking == "" {
		tracking = current.TrackingNumber
	}
	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, in.Status, courier, tracking)
	if err != nil {
		return Order{}, err
	}
	decorate(&updated)
	s.record(ctx, "restock:transition", id, map[string]any{
		"from": string(current.Status),
		"to":   string(in.Status),
	})
	if s.metrics != nil {
		s.metrics.RestockTransition(string(current.Status), string(in.Status))
	}
	return updated, nil
}

// CancelOwned lets a mitra cancel its own order while it is still pending.
func (s *Service) CancelOwned(ctx context.Context, mitraID, id int64) (Order, error) {
	o, err := s.GetOwned(ctx, mitraID, id)
	if err != nil {
		return Order{}, err
	}
	if o.Status != StatusPending {
		return Order{}, fmt.Errorf("order sudah diproses: %w", ErrInvalidTransition)
	}
	return s.Transition(ctx, id, TransitionInput{Status: StatusCancelled})
}

// SetPayment records the payment status.
func (s *Service) SetPayment(ctx context.Context, id int64, status PaymentStatus) (Order, error) {
	if status != PaymentPaid && status != PaymentUnpaid {
		return Order{}, &httpx.ValidationError{Fields: map[string]string{"paymentStatus": "must be one of: unpaid paid"}}
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if current.Status == StatusCancelled {
		return Order{}, ErrPaymentChange
	}
	updated, err := s.repo.SetPayment(ctx, id, status)
	if err != nil {
		return Order{}, err
	}
	decorate(&updated)
	s.record(ctx, "restock:payment", id, map[string]any{
		"from": string(current.PaymentStatus),
		"to":   string(status),
	})
	return updated, nil
}

// Delete removes a pending or cancelled order.
func (s *Service) Delete(ctx context.Context, id int64) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Status != StatusPending && current.Status != StatusCancelled {
		return ErrNotDeletable
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "restock:delete", id, map[string]any{"order_number": current.OrderNumber})
	return nil
}

func (s *Service) price(ctx context.Context, lines []ItemInput) ([]Item, float64, error) {
	if len(lines) == 0 {
		return nil, 0, &httpx.ValidationError{Fields: map[string]string{"items": "at least one item is required"}}
	}
	ids := make([]int64, 0, len(lines))
	for i, line := range lines {
		if line.Qty < 1 {
			return nil, 0, &httpx.ValidationError{Fields: map[string]string{
				fmt.Sprintf("items[%d].qty", i): "must be at least 1",
			}}
		}
		ids = append(ids, line.ProductID)
	}
	catalogue, err := s.products.Lookup(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	items := make([]Item, 0, len(lines))
	var total float64
	for i, line := range lines {
		p, ok := catalogue[line.ProductID]
		if !ok || !p.IsActive {
			return nil, 0, &httpx.ValidationError{Fields: map[string]string{
				fmt.Sprintf("items[%d].productId", i): "product is unknown or inactive",
			}}
		}
		subtotal := p.Price * float64(line.Qty)
		items = append(items, Item{
			ProductID:   p.ID,
			ProductName: p.Name,
			Qty:         line.Qty,
			UnitPrice:   p.Price,
			Subtotal:    subtotal,
		})
		total += subtotal
	}
	return items, total, nil
}

func (s *Service) orderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "RST-" + s.now().Format("20060102") + "-" + suffix
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "restock_order",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
