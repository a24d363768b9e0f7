package packages

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mitrahub/mitrahub/internal/platform/db"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

// PGRepository stores packages in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectPackage = `SELECT id, name, price, features, status, is_popular, sort_order, created_at, updated_at
FROM partnership_packages`

func scanPackage(row pgx.Row) (Package, error) {
	var (
		p      Package
		status string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Features, &status, &p.IsPopular, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Package{}, ErrPackageNotFound
	}
	p.Status = Status(status)
	return p, err
}

// List returns packages in display order.
func (r *PGRepository) List(ctx context.Context, activeOnly bool) ([]Package, error) {
	query := selectPackage
	if activeOnly {
		query += ` WHERE status = 'active'`
	}
	query += ` ORDER BY sort_order, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Count returns how many packages exist in any status.
func (r *PGRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM partnership_packages`).Scan(&n)
	return n, err
}

// Get fetches a package.
func (r *PGRepository) Get(ctx context.Context, id int64) (Package, error) {
	return scanPackage(r.pool.QueryRow(ctx, selectPackage+` WHERE id = $1`, id))
}

// Create inserts a package.
func (r *PGRepository) Create(ctx context.Context, p Package) (Package, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO partnership_packages (name, price, features, status, is_popular, sort_order)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, name, price, features, status, is_popular, sort_order, created_at, updated_at`,
		p.Name, p.Price, p.Features, string(p.Status), p.IsPopular, p.SortOrder)
	created, err := scanPackage(row)
	if err != nil {
		return Package{}, mapWriteError(err)
	}
	return created, nil
}

// Update replaces a package.
func (r *PGRepository) Update(ctx context.Context, p Package) (Package, error) {
	row := r.pool.QueryRow(ctx, `UPDATE partnership_packages SET name = $2, price = $3, features = $4, status = $5,
	is_popular = $6, sort_order = $7, updated_at = NOW()
WHERE id = $1
RETURNING id, name, price, features, status, is_popular, sort_order, created_at, updated_at`,
		p.ID, p.Name, p.Price, p.Features, string(p.Status), p.IsPopular, p.SortOrder)
	updated, err := scanPackage(row)
	if err != nil {
		return Package{}, mapWriteError(err)
	}
	return updated, nil
}

// Delete removes a package.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM partnership_packages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPackageNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("nama paket sudah digunakan: %w", httpx.ErrDuplicate)
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
