package shared

import (
	"context"
	"time"
)

// Principal describes the authenticated actor of a request.
type Principal struct {
	UserID    int64
	Email     string
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

// ActorID returns the user ID of the principal in ctx, or zero.
func ActorID(ctx context.Context) int64 {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.UserID
	}
	return 0
}
