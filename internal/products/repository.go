package products

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

// PGRepository stores products in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const productColumns = `id, name, category, price, pcs_per_portion, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.PcsPerPortion, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

// List returns products ordered by name.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Category != "" {
		args = append(args, strings.ToLower(filter.Category))
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active")
	}
	query := `SELECT ` + productColumns + ` FROM products`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get fetches a product by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

// GetMany fetches several products in one round trip.
func (r *PGRepository) GetMany(ctx context.Context, ids []int64) (map[int64]Product, error) {
	out := make(map[int64]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// Create inserts a product and returns the stored row.
func (r *PGRepository) Create(ctx context.Context, p Product) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `INSERT INTO products (name, category, price, pcs_per_portion, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+productColumns, p.Name, p.Category, p.Price, p.PcsPerPortion, p.IsActive))
}

// Update replaces the mutable columns of a product.
func (r *PGRepository) Update(ctx context.Context, p Product) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `UPDATE products
SET name = $2, category = $3, price = $4, pcs_per_portion = $5, is_active = $6, updated_at = NOW()
WHERE id = $1
RETURNING `+productColumns, p.ID, p.Name, p.Category, p.Price, p.PcsPerPortion, p.IsActive))
}

// SetActive flips the active flag.
func (r *PGRepository) SetActive(ctx context.Context, id int64, active bool) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `UPDATE products SET is_active = $2, updated_at = NOW()
WHERE id = $1 RETURNING `+productColumns, id, active))
}

// Delete removes a product.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("produk masih dipakai order restock: %w", httpx.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
