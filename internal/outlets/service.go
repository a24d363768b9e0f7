package outlets

import (
	"context"
	"strconv"
	"strings"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Repository persists outlets and their mitra assignments.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Outlet, error)
	Get(ctx context.Context, id int64) (Outlet, error)
	Save(ctx context.Context, o Outlet, mitraIDs []int64) (Outlet, error)
	Delete(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service holds outlet rules.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns a page of outlets.
func (s *Service) List(ctx context.Context, filter ListFilter, q shared.TableQuery) ([]Outlet, shared.Pagination, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	for i := range rows {
		decorate(&rows[i])
	}
	page, meta := shared.FilterPage(rows, q, func(o Outlet) string { return o.Name + " " + o.Address })
	return page, meta, nil
}

// Get returns an outlet.
func (s *Service) Get(ctx context.Context, id int64) (Outlet, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Outlet{}, err
	}
	decorate(&o)
	return o, nil
}

// ForWorker returns the outlets a staff or crew member is assigned to.
func (s *Service) ForWorker(ctx context.Context, userID int64) ([]Outlet, error) {
	rows, err := s.repo.List(ctx, ListFilter{WorkerID: userID})
	if err != nil {
		return nil, err
	}
	for i := range rows {
		decorate(&rows[i])
	}
	return rows, nil
}

// Counts tallies outlets by status.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	rows, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return Counts{}, err
	}
	c := Counts{Total: len(rows)}
	for _, o := range rows {
		if o.Status == StatusActive {
			c.Active++
		}
		if o.Ownership == OwnershipMitra {
			c.MitraOwned++
		}
	}
	return c, nil
}

// Create inserts an outlet with its assignments.
func (s *Service) Create(ctx context.Context, in Input) (Outlet, error) {
	o, mitraIDs, err := fromInput(in)
	if err != nil {
		return Outlet{}, err
	}
	saved, err := s.repo.Save(ctx, o, mitraIDs)
	if err != nil {
		return Outlet{}, err
	}
	s.record(ctx, "outlet:create", saved.ID, map[string]any{"name": saved.Name, "mitra_ids": mitraIDs})
	decorate(&saved)
	return saved, nil
}

// Update replaces an outlet and its assignments.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Outlet, error) {
	o, mitraIDs, err := fromInput(in)
	if err != nil {
		return Outlet{}, err
	}
	o.ID = id
	saved, err := s.repo.Save(ctx, o, mitraIDs)
	if err != nil {
		return Outlet{}, err
	}
	s.record(ctx, "outlet:update", id, map[string]any{"name": saved.Name, "mitra_ids": mitraIDs})
	decorate(&saved)
	return saved, nil
}

// Delete removes an outlet.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "outlet:delete", id, nil)
	return nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "outlet",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}

// DistinctMitra removes duplicate and non-positive IDs, keeping order.
func DistinctMitra(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func fromInput(in Input) (Outlet, []int64, error) {
	mitraIDs := DistinctMitra(in.MitraIDs)
	if len(mitraIDs) > MaxMitraPerOutlet {
		return Outlet{}, nil, ErrTooManyMitra
	}
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "is required"
	}
	switch in.Ownership {
	case OwnershipCompany:
		if len(mitraIDs) > 0 {
			fields["mitraIds"] = "company outlets cannot have mitra"
		}
	case OwnershipMitra:
		if len(mitraIDs) == 0 {
			fields["mitraIds"] = "mitra outlets need at least one mitra"
		}
	default:
		fields["ownership"] = "must be one of: company mitra"
	}
	if len(fields) > 0 {
		return Outlet{}, nil, &httpx.ValidationError{Fields: fields}
	}
	status := in.Status
	if status == "" {
		status = StatusActive
	}
	return Outlet{
		Name:      strings.TrimSpace(in.Name),
		Address:   strings.TrimSpace(in.Address),
		WorkerID:  in.WorkerID,
		Ownership: in.Ownership,
		Status:    status,
	}, mitraIDs, nil
}

func decorate(o *Outlet) {
	o.StatusBadge = o.Status.Badge()
	if o.MitraAssignments == nil {
		o.MitraAssignments = []Assignment{}
	}
}
