package shared

import (
	"errors"
	"fmt"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = httpx.ErrNotFound
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", httpx.ErrUnauthorized)
	// ErrInactiveAccount indicates the account was disabled by an admin.
	ErrInactiveAccount = fmt.Errorf("account inactive: %w", httpx.ErrUnauthorized)
)

// UserSafeMessage returns a message that may be shown to API clients.
// Client errors keep their text; anything else collapses to a generic message.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInactiveAccount) {
		return "Email atau password tidak valid"
	}
	if httpx.IsClientError(err) {
		return err.Error()
	}
	return "Terjadi kesalahan, silakan coba lagi"
}
