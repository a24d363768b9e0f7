package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads audit_logs joined with the acting user.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

// Timeline returns entries newest first. To is inclusive by day.
func (r *PGRepository) Timeline(ctx context.Context, filters TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if !filters.From.IsZero() {
		add("a.occurred_at >= $%d", filters.From)
	}
	if !filters.To.IsZero() {
		add("a.occurred_at < $%d", filters.To.AddDate(0, 0, 1))
	}
	if actor := strings.TrimSpace(filters.Actor); actor != "" {
		add("u.email ILIKE '%%' || $%d || '%%'", actor)
	}
	if entity := strings.TrimSpace(filters.Entity); entity != "" {
		add("a.entity = $%d", entity)
	}
	if action := strings.TrimSpace(filters.Action); action != "" {
		add("a.action = $%d", action)
	}
	query := `SELECT a.id, a.occurred_at, COALESCE(a.actor_id, 0), COALESCE(u.email, ''), a.action, a.entity, a.entity_id, a.meta
FROM audit_logs a
LEFT JOIN users u ON u.id = a.actor_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY a.occurred_at DESC, a.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TimelineRow
	for rows.Next() {
		var (
			row  TimelineRow
			meta []byte
		)
		if err := rows.Scan(&row.ID, &row.At, &row.ActorID, &row.Actor, &row.Action, &row.Entity, &row.EntityID, &meta); err != nil {
			return nil, err
		}
		row.Meta = meta
		out = append(out, row)
	}
	return out, rows.Err()
}
