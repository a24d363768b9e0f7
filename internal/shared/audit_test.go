package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type recordingExec struct {
	sql  string
	args []any
	err  error
}

func (r *recordingExec) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql = sql
	r.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), r.err
}

func TestAuditRecordUsesPrincipalFromContext(t *testing.T) {
	exec := &recordingExec{}
	logger := NewAuditLogger(exec)
	ctx := ContextWithPrincipal(context.Background(), &Principal{UserID: 7, Role: RoleAdmin})

	err := logger.Record(ctx, AuditLog{Action: "restock:advance", Entity: "restock_order", EntityID: "12"})
	require.NoError(t, err)
	require.Contains(t, exec.sql, "INSERT INTO audit_logs")
	require.Equal(t, int64(7), exec.args[0])
}

func TestAuditRecordRequiresFields(t *testing.T) {
	logger := NewAuditLogger(&recordingExec{})
	require.Error(t, logger.Record(context.Background(), AuditLog{Action: "x"}))
}

func TestIdempotencyConflictOnUniqueViolation(t *testing.T) {
	store := NewIdempotencyStore(&recordingExec{err: &pgconn.PgError{Code: "23505"}})
	err := store.CheckAndInsert(context.Background(), "k1", "restock")
	require.ErrorIs(t, err, ErrIdempotencyConflict)

	store = NewIdempotencyStore(&recordingExec{err: errors.New("boom")})
	err = store.CheckAndInsert(context.Background(), "k1", "restock")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrIdempotencyConflict)
}
