package auth

import (
	"fmt"
	"time"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// User represents an authenticated user account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         shared.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the client-facing view of the signed in user.
type Profile struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     shared.Role `json:"role"`
	HomePath string      `json:"homePath"`
}

// ProfileOf builds the public profile of u.
func ProfileOf(u *User) Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, HomePath: u.Role.HomePath()}
}

// LoginResult is returned by every successful sign-in flow.
type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        Profile   `json:"user"`
}

// Session records an issued token for auditing and revocation.
type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
}

// SessionMeta carries request details captured at sign-in.
type SessionMeta struct {
	IP        string
	UserAgent string
}

// OTP purposes keep login and reset codes apart.
const (
	PurposeLogin = "login"
	PurposeReset = "reset"
)

var (
	// ErrOTPInvalid is returned when the submitted code does not match.
	ErrOTPInvalid = fmt.Errorf("kode OTP tidak valid: %w", httpx.ErrUnauthorized)
	// ErrOTPExpired is returned when no code is pending for the address.
	ErrOTPExpired = fmt.Errorf("kode OTP kedaluwarsa atau tidak ditemukan: %w", httpx.ErrUnauthorized)
	// ErrOTPLocked is returned after too many wrong attempts.
	ErrOTPLocked = fmt.Errorf("terlalu banyak percobaan, minta kode baru: %w", httpx.ErrForbidden)
	// ErrTokenRevoked is returned for tokens invalidated by logout.
	ErrTokenRevoked = fmt.Errorf("token revoked: %w", httpx.ErrUnauthorized)
)
