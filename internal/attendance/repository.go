package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mitrahub/mitrahub/internal/platform/db"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

// PGRepository stores attendance in PostgreSQL. A unique index on
// (user_id, attendance_date) enforces one record per day.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectRecord = `SELECT a.id, a.user_id, COALESCE(u.name, ''), a.attendance_date, a.check_in, a.check_out,
	a.status, a.note, a.created_at, a.updated_at
FROM attendance a
LEFT JOIN users u ON u.id = a.user_id`

func scanRecord(row pgx.Row) (Record, error) {
	var (
		r      Record
		status string
	)
	err := row.Scan(&r.ID, &r.UserID, &r.UserName, &r.Date, &r.CheckIn, &r.CheckOut, &status, &r.Note, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	r.Status = Status(status)
	return r, err
}

// List returns records newest day first.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.UserID > 0 {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("a.user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conditions = append(conditions, fmt.Sprintf("a.attendance_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conditions = append(conditions, fmt.Sprintf("a.attendance_date <= $%d", len(args)))
	}
	query := selectRecord
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.attendance_date DESC, u.name"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get fetches a record.
func (r *PGRepository) Get(ctx context.Context, id int64) (Record, error) {
	return scanRecord(r.pool.QueryRow(ctx, selectRecord+` WHERE a.id = $1`, id))
}

// GetByUserDate fetches a user's record for a day.
func (r *PGRepository) GetByUserDate(ctx context.Context, userID int64, date time.Time) (Record, error) {
	return scanRecord(r.pool.QueryRow(ctx, selectRecord+` WHERE a.user_id = $1 AND a.attendance_date = $2`, userID, date))
}

// Create inserts a record.
func (r *PGRepository) Create(ctx context.Context, rec Record) (Record, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO attendance (user_id, attendance_date, check_in, check_out, status, note)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
		rec.UserID, rec.Date, rec.CheckIn, rec.CheckOut, string(rec.Status), rec.Note).Scan(&id)
	if err != nil {
		return Record{}, mapWriteError(err)
	}
	return r.Get(ctx, id)
}

// Update replaces a record.
func (r *PGRepository) Update(ctx context.Context, rec Record) (Record, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE attendance SET user_id = $2, attendance_date = $3, check_in = $4, check_out = $5,
	status = $6, note = $7, updated_at = NOW()
WHERE id = $1`,
		rec.ID, rec.UserID, rec.Date, rec.CheckIn, rec.CheckOut, string(rec.Status), rec.Note)
	if err != nil {
		return Record{}, mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return Record{}, ErrRecordNotFound
	}
	return r.Get(ctx, rec.ID)
}

// Delete removes a record.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return ErrAlreadyRecorded
	case db.IsForeignKeyViolation(err):
		return &httpx.ValidationError{Fields: map[string]string{"userId": "user does not exist"}}
	default:
		return err
	}
}

var _ Repository = (*PGRepository)(nil)
