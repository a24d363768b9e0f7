package packages

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mitrahub/mitrahub/internal/format"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Repository persists packages.
type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]Package, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id int64) (Package, error)
	Create(ctx context.Context, p Package) (Package, error)
	Update(ctx context.Context, p Package) (Package, error)
	Delete(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages partnership packages.
type Service struct {
	repo     Repository
	audit    AuditPort
	logger   *slog.Logger
	fallback bool
}

// NewService builds Service. With fallback set, the public listing serves
// DefaultCatalogue while the table is empty.
func NewService(repo Repository, audit AuditPort, logger *slog.Logger, fallback bool) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, fallback: fallback}
}

// Public lists active packages for the marketing site. Repository errors are
// returned as is.
func (s *Service) Public(ctx context.Context) (Listing, error) {
	rows, err := s.repo.List(ctx, true)
	if err != nil {
		return Listing{}, err
	}
	if len(rows) == 0 && s.fallback {
		total, err := s.repo.Count(ctx)
		if err != nil {
			return Listing{}, err
		}
		if total == 0 {
			s.logger.Warn("no partnership packages stored, serving default catalogue")
			defaults := DefaultCatalogue()
			for i := range defaults {
				decorate(&defaults[i])
			}
			return Listing{Data: defaults, Source: SourceDefault}, nil
		}
	}
	for i := range rows {
		decorate(&rows[i])
	}
	if rows == nil {
		rows = []Package{}
	}
	return Listing{Data: rows, Source: SourceDatabase}, nil
}

// List returns every package for administration.
func (s *Service) List(ctx context.Context, q shared.TableQuery) ([]Package, shared.Pagination, error) {
	rows, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	for i := range rows {
		decorate(&rows[i])
	}
	page, meta := shared.FilterPage(rows, q, func(p Package) string {
		return p.Name + " " + strings.Join(p.Features, " ")
	})
	return page, meta, nil
}

// Get returns a package.
func (s *Service) Get(ctx context.Context, id int64) (Package, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Package{}, err
	}
	decorate(&p)
	return p, nil
}

// Create inserts a package, active unless stated otherwise.
func (s *Service) Create(ctx context.Context, in Input) (Package, error) {
	p := fromInput(in)
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Package{}, err
	}
	decorate(&created)
	s.record(ctx, "package:create", created.ID, created.Name)
	return created, nil
}

// Update replaces a package.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Package, error) {
	p := fromInput(in)
	p.ID = id
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return Package{}, err
	}
	decorate(&updated)
	s.record(ctx, "package:update", id, updated.Name)
	return updated, nil
}

// Delete removes a package.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "package:delete", id, "")
	return nil
}

func (s *Service) record(ctx context.Context, action string, id int64, name string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "partnership_package",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"name": name},
	})
}

func fromInput(in Input) Package {
	status := in.Status
	if status == "" {
		status = StatusActive
	}
	features := make([]string, 0, len(in.Features))
	for _, f := range in.Features {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	return Package{
		Name:      strings.TrimSpace(in.Name),
		Price:     in.Price,
		Features:  features,
		Status:    status,
		IsPopular: in.IsPopular,
		SortOrder: in.SortOrder,
	}
}

func decorate(p *Package) {
	p.PriceLabel = format.Rupiah(p.Price)
	if p.Features == nil {
		p.Features = []string{}
	}
}
