package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mitrahub/mitrahub/internal/platform/db"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Item, error)
	UpdateItem(ctx context.Context, item Item) (Item, error)
	SetStock(ctx context.Context, id int64, qty float64) (Item, error)
	InsertMovement(ctx context.Context, m Movement) (Movement, error)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txRepo struct {
	tx pgx.Tx
}

const itemColumns = `id, name, category, unit, current_stock, min_stock, price, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Name, &it.Category, &it.Unit, &it.CurrentStock, &it.MinStock, &it.Price, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return it, err
}

// WithTx executes the callback inside repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// List returns items ordered by name.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Category != "" {
		args = append(args, strings.ToLower(filter.Category))
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.LowOnly {
		conditions = append(conditions, "current_stock <= min_stock")
	}
	query := `SELECT ` + itemColumns + ` FROM inventory_items`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Get fetches an item.
func (r *Repository) Get(ctx context.Context, id int64) (Item, error) {
	return getItem(ctx, r.pool, id, false)
}

// Create inserts an item.
func (r *Repository) Create(ctx context.Context, it Item) (Item, error) {
	return scanItem(r.pool.QueryRow(ctx, `INSERT INTO inventory_items (name, category, unit, current_stock, min_stock, price)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+itemColumns, it.Name, it.Category, it.Unit, it.CurrentStock, it.MinStock, it.Price))
}

// Delete removes an item; its movements go with it.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM stock_movements WHERE item_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrItemNotFound
		}
		return nil
	})
}

// Movements returns the latest movements of an item, newest first.
func (r *Repository) Movements(ctx context.Context, itemID int64, limit int) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, item_id, movement_type, qty_change, qty_before, qty_after,
	COALESCE(note, ''), COALESCE(reference, ''), COALESCE(actor_id, 0), occurred_at
FROM stock_movements WHERE item_id = $1 ORDER BY occurred_at DESC, id DESC LIMIT $2`, itemID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Movement
	for rows.Next() {
		var (
			m   Movement
			typ string
		)
		if err := rows.Scan(&m.ID, &m.ItemID, &typ, &m.QtyChange, &m.Before, &m.After, &m.Note, &m.Reference, &m.ActorID, &m.At); err != nil {
			return nil, err
		}
		m.Type = MovementType(typ)
		out = append(out, m)
	}
	return out, rows.Err()
}

func getItem(ctx context.Context, q querier, id int64, lock bool) (Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`
	if lock {
		query += " FOR UPDATE"
	}
	return scanItem(q.QueryRow(ctx, query, id))
}

func (r *txRepo) GetForUpdate(ctx context.Context, id int64) (Item, error) {
	return getItem(ctx, r.tx, id, true)
}

func (r *txRepo) UpdateItem(ctx context.Context, it Item) (Item, error) {
	return scanItem(r.tx.QueryRow(ctx, `UPDATE inventory_items
SET name = $2, category = $3, unit = $4, current_stock = $5, min_stock = $6, price = $7, updated_at = NOW()
WHERE id = $1
RETURNING `+itemColumns, it.ID, it.Name, it.Category, it.Unit, it.CurrentStock, it.MinStock, it.Price))
}

func (r *txRepo) SetStock(ctx context.Context, id int64, qty float64) (Item, error) {
	return scanItem(r.tx.QueryRow(ctx, `UPDATE inventory_items SET current_stock = $2, updated_at = NOW()
WHERE id = $1 RETURNING `+itemColumns, id, qty))
}

func (r *txRepo) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	var actor any
	if m.ActorID != 0 {
		actor = m.ActorID
	}
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_movements
	(item_id, movement_type, qty_change, qty_before, qty_after, note, reference, actor_id, occurred_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)
RETURNING id`, m.ItemID, string(m.Type), m.QtyChange, m.Before, m.After, m.Note, m.Reference, actor, m.At).Scan(&m.ID)
	return m, err
}

var _ RepositoryPort = (*Repository)(nil)
