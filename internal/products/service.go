package products

import (
	"context"
	"strconv"
	"strings"

	"github.com/mitrahub/mitrahub/internal/format"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Repository persists products.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	SetActive(ctx context.Context, id int64, active bool) (Product, error)
	Delete(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates product catalogue operations.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns a filtered, searched and paginated catalogue page.
func (s *Service) List(ctx context.Context, filter ListFilter, q shared.TableQuery) ([]Product, shared.Pagination, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	page, meta := shared.FilterPage(rows, q, func(p Product) string { return p.Name + " " + p.Category })
	for i := range page {
		decorate(&page[i])
	}
	return page, meta, nil
}

// Get returns a product by ID.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	decorate(&p)
	return p, nil
}

// Lookup returns the products with the given IDs keyed by ID.
func (s *Service) Lookup(ctx context.Context, ids []int64) (map[int64]Product, error) {
	return s.repo.GetMany(ctx, ids)
}

// Create inserts a product. New products are active unless stated otherwise.
func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	p, err := fromInput(in, true)
	if err != nil {
		return Product{}, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.record(ctx, "product:create", created.ID, map[string]any{"name": created.Name})
	decorate(&created)
	return created, nil
}

// Update replaces the product identified by id.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Product, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p, err := fromInput(in, current.IsActive)
	if err != nil {
		return Product{}, err
	}
	p.ID = id
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.record(ctx, "product:update", id, map[string]any{"name": updated.Name})
	decorate(&updated)
	return updated, nil
}

// SetActive toggles whether the product is offered.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (Product, error) {
	p, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return Product{}, err
	}
	s.record(ctx, "product:set_active", id, map[string]any{"active": active})
	decorate(&p)
	return p, nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "product:delete", id, nil)
	return nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "product",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}

func fromInput(in Input, defaultActive bool) (Product, error) {
	fields := map[string]string{}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		fields["name"] = "is required"
	}
	if in.Price < 0 {
		fields["price"] = "must be at least 0"
	}
	if in.PcsPerPortion < 1 {
		fields["pcsPerPortion"] = "must be at least 1"
	}
	if len(fields) > 0 {
		return Product{}, &httpx.ValidationError{Fields: fields}
	}
	active := defaultActive
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return Product{
		Name:          name,
		Category:      strings.ToLower(strings.TrimSpace(in.Category)),
		Price:         in.Price,
		PcsPerPortion: in.PcsPerPortion,
		IsActive:      active,
	}, nil
}

func decorate(p *Product) {
	p.CategoryLabel = format.CategoryLabel(p.Category)
	p.PriceLabel = format.Rupiah(p.Price)
}
