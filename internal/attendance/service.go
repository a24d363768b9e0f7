package attendance

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mitrahub/mitrahub/internal/format"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Repository persists attendance records. Create and Update return
// ErrAlreadyRecorded when (user, date) is taken.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Record, error)
	Get(ctx context.Context, id int64) (Record, error)
	GetByUserDate(ctx context.Context, userID int64, date time.Time) (Record, error)
	Create(ctx context.Context, r Record) (Record, error)
	Update(ctx context.Context, r Record) (Record, error)
	Delete(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service holds attendance rules.
type Service struct {
	repo   Repository
	audit  AuditPort
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewService builds Service. Days are cut in loc; nil means Asia/Jakarta.
func NewService(repo Repository, audit AuditPort, loc *time.Location, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = BusinessLocation()
	}
	return &Service{repo: repo, audit: audit, logger: logger, loc: loc, now: time.Now}
}

// BusinessLocation returns Asia/Jakarta, or a fixed UTC+7 zone when the
// tz database is unavailable.
func BusinessLocation() *time.Location {
	return shared.BusinessLocation()
}

func (s *Service) today() (time.Time, time.Time) {
	now := s.now().In(s.loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return now, day
}

// Today returns the caller's record for today.
func (s *Service) Today(ctx context.Context, userID int64) (Record, error) {
	_, day := s.today()
	r, err := s.repo.GetByUserDate(ctx, userID, day)
	if err != nil {
		return Record{}, err
	}
	decorate(&r)
	return r, nil
}

// CheckIn creates today's hadir record for userID.
func (s *Service) CheckIn(ctx context.Context, userID int64, in CheckInput) (Record, error) {
	now, day := s.today()
	rec := Record{
		UserID:  userID,
		Date:    day,
		CheckIn: &now,
		Status:  StatusHadir,
		Note:    strings.TrimSpace(in.Note),
	}
	saved, err := s.repo.Create(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	decorate(&saved)
	s.record(ctx, "attendance:check_in", saved)
	return saved, nil
}

// CheckOut stamps the check-out time on today's record.
func (s *Service) CheckOut(ctx context.Context, userID int64, in CheckInput) (Record, error) {
	now, day := s.today()
	rec, err := s.repo.GetByUserDate(ctx, userID, day)
	if errors.Is(err, ErrRecordNotFound) {
		return Record{}, ErrNotCheckedIn
	}
	if err != nil {
		return Record{}, err
	}
	if rec.Status != StatusHadir || rec.CheckIn == nil {
		return Record{}, ErrNotCheckedIn
	}
	if rec.CheckOut != nil {
		return Record{}, ErrAlreadyCheckedOut
	}
	if !now.After(*rec.CheckIn) {
		return Record{}, ErrCheckOutBeforeCheckIn
	}
	rec.CheckOut = &now
	if note := strings.TrimSpace(in.Note); note != "" {
		rec.Note = note
	}
	saved, err := s.repo.Update(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	decorate(&saved)
	s.record(ctx, "attendance:check_out", saved)
	return saved, nil
}

// List returns a page of records.
func (s *Service) List(ctx context.Context, filter ListFilter, q shared.TableQuery) ([]Record, shared.Pagination, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	for i := range rows {
		decorate(&rows[i])
	}
	page, meta := shared.FilterPage(rows, q, func(r Record) string {
		return r.UserName + " " + string(r.Status) + " " + r.Note
	})
	return page, meta, nil
}

// Create stores an admin entry such as izin, sakit or alpha.
func (s *Service) Create(ctx context.Context, in RecordInput) (Record, error) {
	rec, err := s.fromInput(in)
	if err != nil {
		return Record{}, err
	}
	saved, err := s.repo.Create(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	decorate(&saved)
	s.record(ctx, "attendance:create", saved)
	return saved, nil
}

// Update replaces an admin entry.
func (s *Service) Update(ctx context.Context, id int64, in RecordInput) (Record, error) {
	rec, err := s.fromInput(in)
	if err != nil {
		return Record{}, err
	}
	rec.ID = id
	saved, err := s.repo.Update(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	decorate(&saved)
	s.record(ctx, "attendance:update", saved)
	return saved, nil
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "attendance:delete", Record{ID: id})
	return nil
}

// Recap counts statuses per user over a "YYYY-MM" month. userID zero means everyone.
func (s *Service) Recap(ctx context.Context, month string, userID int64) ([]RecapRow, error) {
	if month == "" {
		_, day := s.today()
		month = day.Format("2006-01")
	}
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, &httpx.ValidationError{Fields: map[string]string{"month": "must use YYYY-MM"}}
	}
	rows, err := s.repo.List(ctx, ListFilter{UserID: userID, From: start, To: start.AddDate(0, 1, -1)})
	if err != nil {
		return nil, err
	}
	return Summarize(rows), nil
}

func (s *Service) fromInput(in RecordInput) (Record, error) {
	day, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return Record{}, &httpx.ValidationError{Fields: map[string]string{"date": "must use YYYY-MM-DD"}}
	}
	switch in.Status {
	case StatusHadir, StatusIzin, StatusSakit, StatusAlpha:
	default:
		return Record{}, &httpx.ValidationError{Fields: map[string]string{"status": "must be one of: hadir izin sakit alpha"}}
	}
	rec := Record{UserID: in.UserID, Date: day, Status: in.Status, Note: strings.TrimSpace(in.Note)}
	if rec.CheckIn, err = s.clock(day, in.CheckIn, "checkIn"); err != nil {
		return Record{}, err
	}
	if rec.CheckOut, err = s.clock(day, in.CheckOut, "checkOut"); err != nil {
		return Record{}, err
	}
	if rec.CheckOut != nil && (rec.CheckIn == nil || !rec.CheckOut.After(*rec.CheckIn)) {
		return Record{}, ErrCheckOutBeforeCheckIn
	}
	if in.Status != StatusHadir && rec.CheckIn != nil {
		return Record{}, &httpx.ValidationError{Fields: map[string]string{"checkIn": "only hadir records carry times"}}
	}
	return rec, nil
}

func (s *Service) clock(day time.Time, raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	hm, err := time.Parse("15:04", raw)
	if err != nil {
		return nil, &httpx.ValidationError{Fields: map[string]string{field: "must use HH:MM"}}
	}
	t := time.Date(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), 0, 0, s.loc)
	return &t, nil
}

func (s *Service) record(ctx context.Context, action string, r Record) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "attendance",
		EntityID: strconv.FormatInt(r.ID, 10),
		Meta: map[string]any{
			"user_id": r.UserID,
			"status":  string(r.Status),
		},
	})
}

func decorate(r *Record) {
	r.DateLabel = format.Date(r.Date)
	r.StatusBadge = r.Status.Badge()
	r.WorkHours = workHours(*r)
}
