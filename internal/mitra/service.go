package mitra

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mitrahub/mitrahub/internal/format"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Repository persists mitra rows.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Mitra, error)
	Get(ctx context.Context, id int64) (Mitra, error)
	GetByUser(ctx context.Context, userID int64) (Mitra, error)
	Create(ctx context.Context, m Mitra) (Mitra, error)
	Update(ctx context.Context, m Mitra) (Mitra, error)
	Delete(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service holds mitra business rules.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// List returns a page of mitra with contract values computed for today.
func (s *Service) List(ctx context.Context, filter ListFilter, q shared.TableQuery) ([]Mitra, shared.Pagination, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	page, meta := shared.FilterPage(rows, q, func(m Mitra) string {
		return m.Name + " " + m.OutletName + " " + m.Email
	})
	now := s.now()
	for i := range page {
		s.derive(&page[i], now)
	}
	return page, meta, nil
}

// Get returns a mitra by ID.
func (s *Service) Get(ctx context.Context, id int64) (Mitra, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return Mitra{}, err
	}
	s.derive(&m, s.now())
	return m, nil
}

// ForUser returns the mitra record linked to a login.
func (s *Service) ForUser(ctx context.Context, userID int64) (Mitra, error) {
	m, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return Mitra{}, err
	}
	s.derive(&m, s.now())
	return m, nil
}

// IDForUser resolves the mitra ID linked to a login.
func (s *Service) IDForUser(ctx context.Context, userID int64) (int64, error) {
	m, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

// Expiring lists mitra whose contract ends within the given number of
// months, soonest first. Ended contracts are excluded.
func (s *Service) Expiring(ctx context.Context, withinMonths int) ([]Mitra, error) {
	rows, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Mitra, 0)
	for _, m := range rows {
		s.derive(&m, now)
		if months := m.Contract.MonthsRemaining; months > 0 && months <= withinMonths {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Contract.MonthsRemaining < out[j].Contract.MonthsRemaining
	})
	return out, nil
}

// ActiveCount counts mitra whose contract has not ended.
func (s *Service) ActiveCount(ctx context.Context) (int, error) {
	rows, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return 0, err
	}
	now := s.now()
	active := 0
	for _, m := range rows {
		if MonthsRemaining(m.StartDate, now) > 0 {
			active++
		}
	}
	return active, nil
}

// Create inserts a mitra.
func (s *Service) Create(ctx context.Context, in Input) (Mitra, error) {
	m, err := fromInput(in)
	if err != nil {
		return Mitra{}, err
	}
	created, err := s.repo.Create(ctx, m)
	if err != nil {
		return Mitra{}, err
	}
	s.record(ctx, "mitra:create", created.ID, map[string]any{"name": created.Name, "type": created.Type})
	s.derive(&created, s.now())
	return created, nil
}

// Update replaces a mitra.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Mitra, error) {
	m, err := fromInput(in)
	if err != nil {
		return Mitra{}, err
	}
	m.ID = id
	updated, err := s.repo.Update(ctx, m)
	if err != nil {
		return Mitra{}, err
	}
	s.record(ctx, "mitra:update", id, map[string]any{"name": updated.Name, "type": updated.Type})
	s.derive(&updated, s.now())
	return updated, nil
}

// Delete removes a mitra.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "mitra:delete", id, nil)
	return nil
}

func (s *Service) derive(m *Mitra, now time.Time) {
	months := MonthsRemaining(m.StartDate, now)
	end := ContractEnd(m.StartDate)
	m.Contract = Contract{
		EndDate:         end.Format(httpx.DateLayout),
		EndDateLabel:    format.Date(end),
		MonthsRemaining: months,
		Badge:           ContractBadge(months),
		NextPayoutDate:  NextPayoutDate(m.PayoutDay, now).Format(httpx.DateLayout),
	}
	if m.ModalAmount != nil {
		m.Contract.ModalLabel = format.Rupiah(*m.ModalAmount)
	}
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "mitra",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}

func fromInput(in Input) (Mitra, error) {
	fields := map[string]string{}
	switch in.Type {
	case TypeOutlet:
		if in.OutletID == nil || *in.OutletID <= 0 {
			fields["outletId"] = "is required for outlet mitra"
		}
	case TypeInvestasi:
		if in.ModalAmount == nil || *in.ModalAmount <= 0 {
			fields["modalAmount"] = "must be greater than 0 for investasi mitra"
		}
	default:
		fields["type"] = "must be one of: outlet investasi"
	}
	if in.PayoutDay < 1 || in.PayoutDay > 28 {
		fields["payoutDay"] = "must be between 1 and 28"
	}
	start, err := time.Parse(httpx.DateLayout, in.StartDate)
	if err != nil {
		fields["startDate"] = "must be a date formatted 2006-01-02"
	}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "is required"
	}
	if len(fields) > 0 {
		return Mitra{}, &httpx.ValidationError{Fields: fields}
	}
	m := Mitra{
		Name:              strings.TrimSpace(in.Name),
		Type:              in.Type,
		BankName:          strings.TrimSpace(in.BankName),
		BankAccountNumber: strings.TrimSpace(in.BankAccountNumber),
		BankAccountHolder: strings.TrimSpace(in.BankAccountHolder),
		PayoutDay:         in.PayoutDay,
		StartDate:         start,
		Email:             strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:             strings.TrimSpace(in.Phone),
		UserID:            in.UserID,
	}
	// Only outlet mitra are tied to a location.
	if in.Type == TypeOutlet {
		m.OutletID = in.OutletID
	}
	if in.ModalAmount != nil && *in.ModalAmount > 0 {
		m.ModalAmount = in.ModalAmount
	}
	return m, nil
}
