package outlets

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

// PGRepository stores outlets in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectOutlet = `SELECT o.id, o.name, o.address, o.worker_id, COALESCE(u.name, ''), o.ownership, o.status,
	o.created_at, o.updated_at
FROM outlets o
LEFT JOIN users u ON u.id = o.worker_id`

func scanOutlet(row pgx.Row) (Outlet, error) {
	var (
		o         Outlet
		ownership string
		status    string
	)
	err := row.Scan(&o.ID, &o.Name, &o.Address, &o.WorkerID, &o.WorkerName, &ownership, &status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Outlet{}, ErrOutletNotFound
	}
	o.Ownership = Ownership(ownership)
	o.Status = Status(status)
	return o, err
}

// List returns outlets with their mitra assignments.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Outlet, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if filter.Ownership != "" {
		args = append(args, string(filter.Ownership))
		conditions = append(conditions, fmt.Sprintf("o.ownership = $%d", len(args)))
	}
	if filter.WorkerID > 0 {
		args = append(args, filter.WorkerID)
		conditions = append(conditions, fmt.Sprintf("o.worker_id = $%d", len(args)))
	}
	query := selectOutlet
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY o.name"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var out []Outlet
	for rows.Next() {
		o, err := scanOutlet(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	ids := make([]int64, len(out))
	for i, o := range out {
		ids[i] = o.ID
	}
	assignments, err := loadAssignments(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].MitraAssignments = assignments[out[i].ID]
	}
	return out, nil
}

// Get fetches an outlet and its assignments.
func (r *PGRepository) Get(ctx context.Context, id int64) (Outlet, error) {
	return getOutlet(ctx, r.pool, id)
}

// Save inserts (ID zero) or replaces an outlet and rewrites its assignments
// in one transaction. The assignment count is re-checked under the row lock.
func (r *PGRepository) Save(ctx context.Context, o Outlet, mitraIDs []int64) (Outlet, error) {
	var saved Outlet
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if o.ID == 0 {
			err := tx.QueryRow(ctx, `INSERT INTO outlets (name, address, worker_id, ownership, status)
VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				o.Name, o.Address, o.WorkerID, string(o.Ownership), string(o.Status)).Scan(&o.ID)
			if err != nil {
				return mapWriteError(err)
			}
		} else {
			tag, err := tx.Exec(ctx, `UPDATE outlets SET name = $2, address = $3, worker_id = $4, ownership = $5,
	status = $6, updated_at = NOW()
WHERE id = $1`,
				o.ID, o.Name, o.Address, o.WorkerID, string(o.Ownership), string(o.Status))
			if err != nil {
				return mapWriteError(err)
			}
			if tag.RowsAffected() == 0 {
				return ErrOutletNotFound
			}
			if _, err := tx.Exec(ctx, `DELETE FROM outlet_mitra WHERE outlet_id = $1`, o.ID); err != nil {
				return err
			}
		}
		for _, mitraID := range mitraIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO outlet_mitra (outlet_id, mitra_id) VALUES ($1, $2)`, o.ID, mitraID); err != nil {
				return mapWriteError(err)
			}
		}
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(DISTINCT mitra_id) FROM outlet_mitra WHERE outlet_id = $1`, o.ID).Scan(&count); err != nil {
			return err
		}
		if count > MaxMitraPerOutlet {
			return ErrTooManyMitra
		}
		var err error
		saved, err = getOutlet(ctx, tx, o.ID)
		return err
	})
	if err != nil {
		return Outlet{}, err
	}
	return saved, nil
}

// Delete removes an outlet; assignments cascade.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM outlets WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("outlet masih memiliki data penjualan: %w", httpx.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOutletNotFound
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getOutlet(ctx context.Context, q querier, id int64) (Outlet, error) {
	o, err := scanOutlet(q.QueryRow(ctx, selectOutlet+` WHERE o.id = $1`, id))
	if err != nil {
		return Outlet{}, err
	}
	assignments, err := loadAssignments(ctx, q, []int64{id})
	if err != nil {
		return Outlet{}, err
	}
	o.MitraAssignments = assignments[id]
	return o, nil
}

func loadAssignments(ctx context.Context, q querier, outletIDs []int64) (map[int64][]Assignment, error) {
	rows, err := q.Query(ctx, `SELECT om.outlet_id, m.id, m.name
FROM outlet_mitra om
JOIN mitra m ON m.id = om.mitra_id
WHERE om.outlet_id = ANY($1)
ORDER BY m.name`, outletIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64][]Assignment, len(outletIDs))
	for rows.Next() {
		var (
			outletID int64
			a        Assignment
		)
		if err := rows.Scan(&outletID, &a.MitraID, &a.MitraName); err != nil {
			return nil, err
		}
		out[outletID] = append(out[outletID], a)
	}
	return out, rows.Err()
}

func mapWriteError(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return fmt.Errorf("nama outlet sudah digunakan: %w", httpx.ErrConflict)
	case db.IsForeignKeyViolation(err):
		return &httpx.ValidationError{Fields: map[string]string{"mitraIds": "worker or mitra does not exist"}}
	default:
		return err
	}
}

var _ Repository = (*PGRepository)(nil)
