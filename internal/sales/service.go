package sales

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mitrahub/mitrahub/internal/platform/cache"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Repository persists sales records.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Record, error)
	Get(ctx context.Context, id int64) (Record, error)
	Create(ctx context.Context, r Record) (Record, error)
	Update(ctx context.Context, r Record) (Record, error)
	Delete(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CacheRecorder counts summary cache hits and misses.
type CacheRecorder interface {
	CacheLookup(namespace string, hit bool)
}

// CacheNamespace is the Redis namespace of sales summaries.
const CacheNamespace = "sales"

// Service records takings and aggregates them.
type Service struct {
	repo    Repository
	audit   AuditPort
	cache   *cache.Versioned
	metrics CacheRecorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds Service. cache and metrics may be nil.
func NewService(repo Repository, audit AuditPort, summaries *cache.Versioned, metrics CacheRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, cache: summaries, metrics: metrics, logger: logger, now: time.Now}
}

// List returns a page of records.
func (s *Service) List(ctx context.Context, filter ListFilter, q shared.TableQuery) ([]Record, shared.Pagination, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	for i := range rows {
		Normalize(&rows[i])
	}
	page, meta := shared.FilterPage(rows, q, func(r Record) string {
		return r.OutletName + " " + r.Note + " " + r.DateLabel
	})
	return page, meta, nil
}

// Get returns a record.
func (s *Service) Get(ctx context.Context, id int64) (Record, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	Normalize(&r)
	return r, nil
}

// Create stores a record on behalf of the signed in user.
func (s *Service) Create(ctx context.Context, in Input) (Record, error) {
	rec, err := fromInput(in)
	if err != nil {
		return Record{}, err
	}
	rec.RecordedBy = shared.ActorID(ctx)
	saved, err := s.repo.Create(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	Normalize(&saved)
	s.invalidate(ctx)
	s.record(ctx, "sales:create", saved.ID, saved)
	return saved, nil
}

// Update replaces a record, keeping who recorded it.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Record, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	rec, err := fromInput(in)
	if err != nil {
		return Record{}, err
	}
	rec.ID = id
	rec.RecordedBy = current.RecordedBy
	saved, err := s.repo.Update(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	Normalize(&saved)
	s.invalidate(ctx)
	s.record(ctx, "sales:update", id, saved)
	return saved, nil
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.record(ctx, "sales:delete", id, Record{})
	return nil
}

// Summary aggregates records between from and to (inclusive) by period.
// Zero bounds default to the current month up to today.
func (s *Service) Summary(ctx context.Context, period Period, from, to time.Time, outletID int64) (Summary, error) {
	from, to = s.bounds(from, to)
	if to.Before(from) {
		return Summary{}, &httpx.ValidationError{Fields: map[string]string{"to": "must not be before from"}}
	}
	key, err := s.cache.BuildKey(ctx, "summary", string(period), from.Format("20060102"), to.Format("20060102"), strconv.FormatInt(outletID, 10))
	if err != nil {
		return Summary{}, err
	}
	loaded := false
	var out Summary
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		loaded = true
		rows, err := s.repo.List(ctx, ListFilter{From: from, To: to, OutletID: outletID})
		if err != nil {
			return nil, err
		}
		return Summary{
			Period:   period,
			From:     from,
			To:       to,
			OutletID: outletID,
			Groups:   Aggregate(rows, period),
			Totals:   Total(rows),
		}, nil
	})
	if err != nil {
		return Summary{}, err
	}
	if s.metrics != nil {
		s.metrics.CacheLookup(CacheNamespace, !loaded)
	}
	return out, nil
}

// WarmUp loads this month's weekly and monthly summaries into the cache and
// returns how many groups were prepared.
func (s *Service) WarmUp(ctx context.Context) (int, error) {
	groups := 0
	for _, period := range []Period{PeriodWeekly, PeriodMonthly} {
		sum, err := s.Summary(ctx, period, time.Time{}, time.Time{}, 0)
		if err != nil {
			return groups, err
		}
		groups += len(sum.Groups)
	}
	return groups, nil
}

func (s *Service) bounds(from, to time.Time) (time.Time, time.Time) {
	monthStart, today := shared.MonthToDate(s.now())
	if from.IsZero() {
		from = monthStart
	}
	if to.IsZero() {
		to = today
	}
	return from, to
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump sales cache", slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, action string, id int64, r Record) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "sales_record",
		EntityID: strconv.FormatInt(id, 10),
		Meta: map[string]any{
			"outlet_id":  r.OutletID,
			"net_income": r.NetIncome,
		},
	})
}

func fromInput(in Input) (Record, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(in.Date))
	if err != nil {
		return Record{}, &httpx.ValidationError{Fields: map[string]string{"date": "must use YYYY-MM-DD"}}
	}
	if in.OutletID <= 0 {
		return Record{}, &httpx.ValidationError{Fields: map[string]string{"outletId": "is required"}}
	}
	rec := Record{
		Date:      date,
		OutletID:  in.OutletID,
		CashIn:    in.CashIn,
		CashValue: in.CashValue,
		QrisValue: in.QrisValue,
		CashOut:   in.CashOut,
		Note:      strings.TrimSpace(in.Note),
	}
	if SplitMismatch(rec) {
		return Record{}, &httpx.ValidationError{Fields: map[string]string{"cashIn": "must equal cashValue + qrisValue"}}
	}
	Normalize(&rec)
	return rec, nil
}
