package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mitrahub/mitrahub/internal/platform/db"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Repository provides database operations for users.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

const userColumns = `id, email, name, role, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var (
		u    User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.Role = shared.Role(role)
	return u, nil
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// ListUsers returns users ordered by name.
func (r *Repository) ListUsers(ctx context.Context, filter ListFilter) ([]User, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active")
	}
	query := `SELECT ` + userColumns + ` FROM users`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name, id"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetUser fetches one user.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// CreateUser inserts an account.
func (r *Repository) CreateUser(ctx context.Context, u User, passwordHash string) (User, error) {
	created, err := scanUser(r.pool.QueryRow(ctx, `INSERT INTO users (email, name, role, password_hash, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+userColumns, u.Email, u.Name, string(u.Role), passwordHash, u.IsActive))
	return created, mapWriteError(err)
}

// UpdateUser replaces the profile columns.
func (r *Repository) UpdateUser(ctx context.Context, u User) (User, error) {
	updated, err := scanUser(r.pool.QueryRow(ctx, `UPDATE users
SET email = $2, name = $3, role = $4, updated_at = NOW()
WHERE id = $1
RETURNING `+userColumns, u.ID, u.Email, u.Name, string(u.Role)))
	return updated, mapWriteError(err)
}

// SetPassword stores a new password hash.
func (r *Repository) SetPassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetActive flips the active flag and revokes open sessions on deactivation.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	var u User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		u, err = scanUser(tx.QueryRow(ctx, `UPDATE users SET is_active = $2, updated_at = NOW()
WHERE id = $1 RETURNING `+userColumns, id, active))
		if err != nil || active {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE sessions SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`, id)
		return err
	})
	return u, err
}

// DeleteUser removes an account.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("pengguna masih dirujuk data lain: %w", httpx.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
