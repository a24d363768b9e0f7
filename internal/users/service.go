package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filter ListFilter) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, u User, passwordHash string) (User, error)
	UpdateUser(ctx context.Context, u User) (User, error)
	SetPassword(ctx context.Context, id int64, passwordHash string) error
	// SetActive toggles the account; deactivation also revokes its sessions.
	SetActive(ctx context.Context, id int64, active bool) (User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cost  int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, cost: bcrypt.DefaultCost}
}

// ListUsers returns a page of users.
func (s *Service) ListUsers(ctx context.Context, filter ListFilter, q shared.TableQuery) ([]User, shared.Pagination, error) {
	rows, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	for i := range rows {
		decorate(&rows[i])
	}
	page, meta := shared.FilterPage(rows, q, func(u User) string { return u.Name + " " + u.Email })
	return page, meta, nil
}

// GetUser returns a user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	decorate(&u)
	return u, nil
}

// CreateUser registers an active account with a bcrypt hashed password.
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (User, error) {
	role, ok := shared.ParseRole(in.Role)
	if !ok {
		return User{}, &httpx.ValidationError{Fields: map[string]string{"role": "unknown role"}}
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return User{}, err
	}
	u := User{
		Name:     strings.TrimSpace(in.Name),
		Email:    normaliseEmail(in.Email),
		Role:     role,
		IsActive: true,
	}
	created, err := s.repo.CreateUser(ctx, u, hash)
	if err != nil {
		return User{}, err
	}
	decorate(&created)
	s.record(ctx, "user:create", created.ID, map[string]any{"email": created.Email, "role": string(created.Role)})
	return created, nil
}

// UpdateUser replaces profile fields, keeping the active flag when omitted.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateInput) (User, error) {
	role, ok := shared.ParseRole(in.Role)
	if !ok {
		return User{}, &httpx.ValidationError{Fields: map[string]string{"role": "unknown role"}}
	}
	current, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	current.Name = strings.TrimSpace(in.Name)
	current.Email = normaliseEmail(in.Email)
	current.Role = role
	updated, err := s.repo.UpdateUser(ctx, current)
	if err != nil {
		return User{}, err
	}
	if in.IsActive != nil && *in.IsActive != updated.IsActive {
		return s.SetActive(ctx, id, *in.IsActive)
	}
	decorate(&updated)
	s.record(ctx, "user:update", id, map[string]any{"email": updated.Email, "role": string(updated.Role)})
	return updated, nil
}

// SetPassword replaces the password hash.
func (s *Service) SetPassword(ctx context.Context, id int64, password string) error {
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	if err := s.repo.SetPassword(ctx, id, hash); err != nil {
		return err
	}
	s.record(ctx, "user:password", id, nil)
	return nil
}

// SetActive activates or deactivates an account. Admins cannot deactivate themselves.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	if !active && id == shared.ActorID(ctx) {
		return User{}, ErrSelfDeactivate
	}
	u, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return User{}, err
	}
	decorate(&u)
	action := "user:activate"
	if !active {
		action = "user:deactivate"
	}
	s.record(ctx, action, id, nil)
	return u, nil
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if id == shared.ActorID(ctx) {
		return ErrSelfDeactivate
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "user:delete", id, nil)
	return nil
}

func (s *Service) hash(password string) (string, error) {
	if len(password) < 8 {
		return "", &httpx.ValidationError{Fields: map[string]string{"password": "must be at least 8"}}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func decorate(u *User) {
	u.HomePath = u.Role.HomePath()
}
