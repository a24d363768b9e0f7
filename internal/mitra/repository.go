package mitra

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

// PGRepository stores mitra in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectMitra = `SELECT m.id, m.name, m.mitra_type, m.outlet_id, COALESCE(o.name, ''), m.modal_amount,
	m.bank_name, m.bank_account_number, m.bank_account_holder, m.payout_day, m.start_date,
	COALESCE(m.email, ''), COALESCE(m.phone, ''), m.user_id, m.created_at, m.updated_at
FROM mitra m
LEFT JOIN outlets o ON o.id = m.outlet_id`

func scanMitra(row pgx.Row) (Mitra, error) {
	var (
		m   Mitra
		typ string
	)
	err := row.Scan(&m.ID, &m.Name, &typ, &m.OutletID, &m.OutletName, &m.ModalAmount,
		&m.BankName, &m.BankAccountNumber, &m.BankAccountHolder, &m.PayoutDay, &m.StartDate,
		&m.Email, &m.Phone, &m.UserID, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Mitra{}, ErrMitraNotFound
	}
	m.Type = Type(typ)
	return m, err
}

// List returns mitra ordered by name.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Mitra, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conditions = append(conditions, fmt.Sprintf("m.mitra_type = $%d", len(args)))
	}
	if filter.OutletID > 0 {
		args = append(args, filter.OutletID)
		conditions = append(conditions, fmt.Sprintf("m.outlet_id = $%d", len(args)))
	}
	query := selectMitra
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY m.name"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Mitra
	for rows.Next() {
		m, err := scanMitra(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get fetches a mitra.
func (r *PGRepository) Get(ctx context.Context, id int64) (Mitra, error) {
	return scanMitra(r.pool.QueryRow(ctx, selectMitra+` WHERE m.id = $1`, id))
}

// GetByUser fetches the mitra linked to a login.
func (r *PGRepository) GetByUser(ctx context.Context, userID int64) (Mitra, error) {
	return scanMitra(r.pool.QueryRow(ctx, selectMitra+` WHERE m.user_id = $1`, userID))
}

// Create inserts a mitra and returns the joined row.
func (r *PGRepository) Create(ctx context.Context, m Mitra) (Mitra, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO mitra
	(name, mitra_type, outlet_id, modal_amount, bank_name, bank_account_number, bank_account_holder,
	 payout_day, start_date, email, phone, user_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), $12)
RETURNING id`,
		m.Name, string(m.Type), m.OutletID, m.ModalAmount, m.BankName, m.BankAccountNumber, m.BankAccountHolder,
		m.PayoutDay, m.StartDate, m.Email, m.Phone, m.UserID).Scan(&id)
	if err != nil {
		return Mitra{}, mapWriteError(err)
	}
	return r.Get(ctx, id)
}

// Update replaces a mitra.
func (r *PGRepository) Update(ctx context.Context, m Mitra) (Mitra, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE mitra SET
	name = $2, mitra_type = $3, outlet_id = $4, modal_amount = $5, bank_name = $6, bank_account_number = $7,
	bank_account_holder = $8, payout_day = $9, start_date = $10, email = NULLIF($11, ''), phone = NULLIF($12, ''),
	user_id = $13, updated_at = NOW()
WHERE id = $1`,
		m.ID, m.Name, string(m.Type), m.OutletID, m.ModalAmount, m.BankName, m.BankAccountNumber,
		m.BankAccountHolder, m.PayoutDay, m.StartDate, m.Email, m.Phone, m.UserID)
	if err != nil {
		return Mitra{}, mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return Mitra{}, ErrMitraNotFound
	}
	return r.Get(ctx, m.ID)
}

// Delete removes a mitra.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM mitra WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("mitra masih memiliki order restock atau penugasan outlet: %w", httpx.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMitraNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return ErrUserAlreadyLinked
	case db.IsForeignKeyViolation(err):
		return &httpx.ValidationError{Fields: map[string]string{"outletId": "outlet or user does not exist"}}
	default:
		return err
	}
}

var _ Repository = (*PGRepository)(nil)
