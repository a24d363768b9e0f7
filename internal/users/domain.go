package users

import (
	"fmt"
	"time"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// User represents a user account for management.
type User struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      shared.Role `json:"role"`
	HomePath  string      `json:"homePath"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// CreateInput registers a new account.
type CreateInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Role     string `json:"role" validate:"required,oneof=admin staff crew mitra"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UpdateInput replaces profile fields.
type UpdateInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Role     string `json:"role" validate:"required,oneof=admin staff crew mitra"`
	IsActive *bool  `json:"isActive"`
}

// PasswordInput sets a new password.
type PasswordInput struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ListFilter narrows user listings.
type ListFilter struct {
	Role       shared.Role
	ActiveOnly bool
}

var (
	// ErrUserNotFound is returned for unknown user IDs.
	ErrUserNotFound = fmt.Errorf("pengguna tidak ditemukan: %w", httpx.ErrNotFound)
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = fmt.Errorf("email sudah terdaftar: %w", httpx.ErrDuplicate)
	// ErrSelfDeactivate stops admins from locking themselves out.
	ErrSelfDeactivate = fmt.Errorf("tidak dapat menonaktifkan akun sendiri: %w", httpx.ErrConflict)
)
