package finance

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads restock revenue from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// DeliveredRevenue groups delivered orders by the month they were delivered.
func (r *PGRepository) DeliveredRevenue(ctx context.Context, from, to time.Time) ([]RevenuePoint, error) {
	rows, err := r.pool.Query(ctx, `SELECT to_char(delivered_at, 'YYYY-MM') AS month,
	SUM(total_items_cost + shipping_cost)::float8, COUNT(*)
FROM restock_orders
WHERE status = 'delivered' AND delivered_at >= $1 AND delivered_at < $2
GROUP BY month
ORDER BY month`, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RevenuePoint
	for rows.Next() {
		var p RevenuePoint
		if err := rows.Scan(&p.Month, &p.Revenue, &p.Orders); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ RevenueSource = (*PGRepository)(nil)
