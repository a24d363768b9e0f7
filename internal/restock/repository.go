package restock

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

// PGRepository stores restock orders in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectOrder = `SELECT r.id, r.order_number, r.mitra_id, COALESCE(m.name, ''), r.total_items_cost, r.shipping_cost,
	r.shipping_address, r.courier, r.tracking_number, r.status, r.payment_status, r.notes,
	COALESCE(r.created_by, 0), r.created_at, r.updated_at
FROM restock_orders r
LEFT JOIN mitra m ON m.id = r.mitra_id`

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o       Order
		status  string
		payment string
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.MitraID, &o.MitraName, &o.TotalItemsCost, &o.ShippingCost,
		&o.ShippingAddress, &o.Courier, &o.TrackingNumber, &status, &payment, &o.Notes,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	o.Status = Status(status)
	o.PaymentStatus = PaymentStatus(payment)
	return o, err
}

// List returns orders newest first, with their items.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.MitraID > 0 {
		args = append(args, filter.MitraID)
		conditions = append(conditions, fmt.Sprintf("r.mitra_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conditions = append(conditions, fmt.Sprintf("r.created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.AddDate(0, 0, 1))
		conditions = append(conditions, fmt.Sprintf("r.created_at < $%d", len(args)))
	}
	query := selectOrder
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.id DESC"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
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
	items, err := loadItems(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

// Get fetches an order with its items.
func (r *PGRepository) Get(ctx context.Context, id int64) (Order, error) {
	return getOrder(ctx, r.pool, id)
}

// Create inserts the order header and lines in one transaction.
func (r *PGRepository) Create(ctx context.Context, o Order) (Order, error) {
	var saved Order
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `INSERT INTO restock_orders
	(order_number, mitra_id, total_items_cost, shipping_cost, shipping_address, courier, tracking_number,
	 status, payment_status, notes, created_by, idempotency_key)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, 0), NULLIF($12, ''))
RETURNING id`,
			o.OrderNumber, o.MitraID, o.TotalItemsCost, o.ShippingCost, o.ShippingAddress, o.Courier, o.TrackingNumber,
			string(o.Status), string(o.PaymentStatus), o.Notes, o.CreatedBy, o.IdempotencyKey).Scan(&id)
		if err != nil {
			return mapWriteError(err)
		}
		for _, item := range o.Items {
			if _, err := tx.Exec(ctx, `INSERT INTO restock_items (order_id, product_id, product_name, qty, unit_price, subtotal)
VALUES ($1, $2, $3, $4, $5, $6)`,
				id, item.ProductID, item.ProductName, item.Qty, item.UnitPrice, item.Subtotal); err != nil {
				return mapWriteError(err)
			}
		}
		saved, err = getOrder(ctx, tx, id)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	return saved, nil
}

// FindByIdempotencyKey fetches the order created under key.
func (r *PGRepository) FindByIdempotencyKey(ctx context.Context, key string) (Order, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM restock_orders WHERE idempotency_key = $1`, key).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return getOrder(ctx, r.pool, id)
}

// UpdateStatus is a compare-and-set on the status column.
func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, from, to Status, courier, tracking string) (Order, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE restock_orders SET status = $3, courier = $4, tracking_number = $5,
	delivered_at = CASE WHEN $3 = 'delivered' THEN NOW() ELSE delivered_at END,
	updated_at = NOW()
WHERE id = $1 AND status = $2`,
		id, string(from), string(to), courier, tracking)
	if err != nil {
		return Order{}, err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return Order{}, err
		}
		return Order{}, fmt.Errorf("status berubah bersamaan: %w", ErrInvalidTransition)
	}
	return r.Get(ctx, id)
}

// SetPayment updates the payment status.
func (r *PGRepository) SetPayment(ctx context.Context, id int64, status PaymentStatus) (Order, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE restock_orders SET payment_status = $2,
	paid_at = CASE WHEN $2 = 'paid' THEN NOW() ELSE NULL END,
	updated_at = NOW()
WHERE id = $1`, id, string(status))
	if err != nil {
		return Order{}, err
	}
	if tag.RowsAffected() == 0 {
		return Order{}, ErrOrderNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes an order; lines cascade.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM restock_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func getOrder(ctx context.Context, q querier, id int64) (Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, selectOrder+` WHERE r.id = $1`, id))
	if err != nil {
		return Order{}, err
	}
	items, err := loadItems(ctx, q, []int64{id})
	if err != nil {
		return Order{}, err
	}
	o.Items = items[id]
	return o, nil
}

func loadItems(ctx context.Context, q querier, orderIDs []int64) (map[int64][]Item, error) {
	rows, err := q.Query(ctx, `SELECT order_id, product_id, product_name, qty, unit_price, subtotal
FROM restock_items
WHERE order_id = ANY($1)
ORDER BY id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64][]Item, len(orderIDs))
	for rows.Next() {
		var (
			orderID int64
			item    Item
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.ProductName, &item.Qty, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], item)
	}
	return out, rows.Err()
}

func mapWriteError(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return fmt.Errorf("nomor order sudah digunakan: %w", httpx.ErrDuplicate)
	case db.IsForeignKeyViolation(err):
		return &httpx.ValidationError{Fields: map[string]string{"mitraId": "mitra or product does not exist"}}
	default:
		return err
	}
}

var _ Repository = (*PGRepository)(nil)
