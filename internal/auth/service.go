package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mitrahub/mitrahub/internal/shared"
)

// Mailer queues outbound e-mail for the background worker.
type Mailer interface {
	EnqueueMail(ctx context.Context, to, subject, body string) error
}

// AttemptRecorder counts sign-in outcomes.
type AttemptRecorder interface {
	AuthAttempt(method string, ok bool)
}

// Service wraps authentication business rules.
type Service struct {
	repo    Repository
	tokens  *TokenManager
	otp     *OTPStore
	mailer  Mailer
	metrics AttemptRecorder
	logger  *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager, otp *OTPStore, mailer Mailer, metrics AttemptRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, otp: otp, mailer: mailer, metrics: metrics, logger: logger}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates by password and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string, meta SessionMeta) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	s.record("password", err == nil)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user, meta)
}

// RequestOTP sends a login code to email. Unknown or inactive addresses are
// accepted silently so callers cannot probe which accounts exist.
func (s *Service) RequestOTP(ctx context.Context, email string) error {
	return s.sendCode(ctx, PurposeLogin, email, "Kode masuk MitraHub")
}

// VerifyOTP exchanges a login code for a bearer token.
func (s *Service) VerifyOTP(ctx context.Context, email, code string, meta SessionMeta) (*LoginResult, error) {
	email = normalizeEmail(email)
	if err := s.otp.Verify(ctx, PurposeLogin, email, code); err != nil {
		s.record("otp", false)
		return nil, err
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		s.record("otp", false)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		s.record("otp", false)
		return nil, shared.ErrInactiveAccount
	}
	s.record("otp", true)
	return s.issue(ctx, user, meta)
}

// ForgotPassword sends a reset code to email.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	return s.sendCode(ctx, PurposeReset, email, "Reset password MitraHub")
}

// ResetPassword sets a new password after verifying the reset code.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if err := s.otp.Verify(ctx, PurposeReset, email, code); err != nil {
		return err
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	s.logger.Info("password reset", slog.Int64("user_id", user.ID))
	return nil
}

// Logout revokes the token carried by p.
func (s *Service) Logout(ctx context.Context, p *shared.Principal) error {
	if err := s.tokens.Revoke(ctx, p); err != nil {
		return err
	}
	if err := s.repo.RevokeSession(ctx, p.TokenID); err != nil {
		s.logger.Warn("revoke session record", slog.Any("error", err))
	}
	return nil
}

// Me returns the profile of the signed in user.
func (s *Service) Me(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrInactiveAccount
	}
	profile := ProfileOf(user)
	return &profile, nil
}

func (s *Service) issue(ctx context.Context, user *User, meta SessionMeta) (*LoginResult, error) {
	token, principal, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateSession(ctx, Session{
		ID:        principal.TokenID,
		UserID:    user.ID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: principal.ExpiresAt,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}); err != nil {
		s.logger.Warn("register session", slog.Any("error", err))
	}
	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   principal.ExpiresAt,
		User:        ProfileOf(user),
	}, nil
}

func (s *Service) sendCode(ctx context.Context, purpose, email, subject string) error {
	email = normalizeEmail(email)
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("otp requested for unknown email", slog.String("purpose", purpose))
			return nil
		}
		return err
	}
	if !user.IsActive {
		s.logger.Info("otp requested for inactive user", slog.Int64("user_id", user.ID))
		return nil
	}
	code, err := s.otp.Issue(ctx, purpose, email)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Halo %s,\n\nKode Anda: %s\nKode berlaku %d menit. Jangan bagikan kode ini kepada siapa pun.\n",
		user.Name, code, int(s.otp.ttl/time.Minute))
	if err := s.mailer.EnqueueMail(ctx, email, subject, body); err != nil {
		return fmt.Errorf("enqueue otp mail: %w", err)
	}
	return nil
}

func (s *Service) record(method string, ok bool) {
	if s.metrics != nil {
		s.metrics.AuthAttempt(method, ok)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
