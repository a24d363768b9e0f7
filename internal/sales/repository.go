package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mitrahub/mitrahub/internal/platform/db"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

// PGRepository stores sales records in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectRecord = `SELECT s.id, s.sales_date, s.outlet_id, COALESCE(o.name, ''), s.cash_in, s.cash_value, s.qris_value,
	s.cash_out, s.note, COALESCE(s.recorded_by, 0), COALESCE(u.name, ''), s.created_at, s.updated_at
FROM sales_records s
LEFT JOIN outlets o ON o.id = s.outlet_id
LEFT JOIN users u ON u.id = s.recorded_by`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.Date, &r.OutletID, &r.OutletName, &r.CashIn, &r.CashValue, &r.QrisValue,
		&r.CashOut, &r.Note, &r.RecordedBy, &r.RecordedByName, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return r, err
}

// List returns records newest first.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	var (
		conditions []string
		args       []any
	)
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conditions = append(conditions, fmt.Sprintf("s.sales_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conditions = append(conditions, fmt.Sprintf("s.sales_date <= $%d", len(args)))
	}
	if filter.OutletID > 0 {
		args = append(args, filter.OutletID)
		conditions = append(conditions, fmt.Sprintf("s.outlet_id = $%d", len(args)))
	}
	if filter.RecordedBy > 0 {
		args = append(args, filter.RecordedBy)
		conditions = append(conditions, fmt.Sprintf("s.recorded_by = $%d", len(args)))
	}
	query := selectRecord
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.sales_date DESC, s.id DESC"
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
	return scanRecord(r.pool.QueryRow(ctx, selectRecord+` WHERE s.id = $1`, id))
}

// Create inserts a record. net_income is stored for reporting queries.
func (r *PGRepository) Create(ctx context.Context, rec Record) (Record, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO sales_records
	(sales_date, outlet_id, cash_in, cash_value, qris_value, cash_out, net_income, note, recorded_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, 0))
RETURNING id`,
		rec.Date, rec.OutletID, rec.CashIn, rec.CashValue, rec.QrisValue, rec.CashOut, rec.NetIncome, rec.Note, rec.RecordedBy).Scan(&id)
	if err != nil {
		return Record{}, mapWriteError(err)
	}
	return r.Get(ctx, id)
}

// Update replaces a record.
func (r *PGRepository) Update(ctx context.Context, rec Record) (Record, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE sales_records SET
	sales_date = $2, outlet_id = $3, cash_in = $4, cash_value = $5, qris_value = $6, cash_out = $7,
	net_income = $8, note = $9, updated_at = NOW()
WHERE id = $1`,
		rec.ID, rec.Date, rec.OutletID, rec.CashIn, rec.CashValue, rec.QrisValue, rec.CashOut, rec.NetIncome, rec.Note)
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM sales_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	if db.IsForeignKeyViolation(err) {
		return &httpx.ValidationError{Fields: map[string]string{"outletId": "outlet does not exist"}}
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
