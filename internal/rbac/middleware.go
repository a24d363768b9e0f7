package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// TokenParser resolves a bearer token into the principal it was issued to.
type TokenParser interface {
	Parse(ctx context.Context, token string) (*shared.Principal, error)
}

// Middleware wires role-based authorization helpers for HTTP handlers.
type Middleware struct {
	Tokens TokenParser
	Logger *slog.Logger
}

// Authenticate attaches the principal of a valid bearer token to the request
// context. Requests without a valid token are rejected with 401.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "bearer token required")
			return
		}
		principal, err := m.Tokens.Parse(r.Context(), raw)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("rbac reject token", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireRole ensures the current principal holds one of the given roles.
func (m Middleware) RequireRole(roles ...shared.Role) func(http.Handler) http.Handler {
	allowed := normalizeRoles(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			if hasAnyRole(principal.Role, allowed) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac role denied",
					slog.Int64("user_id", principal.UserID),
					slog.String("role", string(principal.Role)),
					slog.String("path", r.URL.Path))
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "role not allowed for this route")
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func normalizeRoles(roles []shared.Role) map[shared.Role]struct{} {
	set := make(map[shared.Role]struct{}, len(roles))
	for _, r := range roles {
		if parsed, ok := shared.ParseRole(string(r)); ok {
			set[parsed] = struct{}{}
		}
	}
	return set
}

func hasAnyRole(role shared.Role, allowed map[shared.Role]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[role]
	return ok
}
