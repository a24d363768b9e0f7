package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mitrahub/mitrahub/internal/auth"
	"github.com/mitrahub/mitrahub/internal/rbac"
	"github.com/mitrahub/mitrahub/internal/shared"
	_ "github.com/mitrahub/mitrahub/testing"
)

type stubRepo struct {
	mu       sync.Mutex
	users    map[string]*auth.User
	sessions map[string]auth.Session
	revoked  map[string]bool
}

func newStubRepo(users ...*auth.User) *stubRepo {
	repo := &stubRepo{users: map[string]*auth.User{}, sessions: map[string]auth.Session{}, revoked: map[string]bool{}}
	for _, u := range users {
		repo.users[u.Email] = u
	}
	return repo
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return shared.ErrNotFound
}

func (s *stubRepo) CreateSession(ctx context.Context, sess auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *stubRepo) RevokeSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[id] = true
	return nil
}

type captureMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *captureMailer) EnqueueMail(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, body)
	return nil
}

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "expected a mail to be queued")
	code := regexp.MustCompile(`\b\d{6}\b`).FindString(m.sent[len(m.sent)-1])
	require.NotEmpty(t, code)
	return code
}

type fixture struct {
	router http.Handler
	repo   *stubRepo
	mailer *captureMailer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := newStubRepo(
		&auth.User{ID: 1, Name: "Admin", Email: "admin@test.local", PasswordHash: string(hashed), Role: shared.RoleAdmin, IsActive: true},
		&auth.User{ID: 2, Name: "Off", Email: "off@test.local", PasswordHash: string(hashed), Role: shared.RoleCrew, IsActive: false},
	)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens := auth.NewTokenManager("0123456789abcdef-secret", "mitrahub", time.Hour, client)
	mailer := &captureMailer{}
	service := auth.NewService(repo, tokens, auth.NewOTPStore(client, 5*time.Minute, 5), mailer, nil, nil)
	handler := auth.NewHandler(nil, service)
	authn := rbac.Middleware{Tokens: tokens}

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) { handler.MountRoutes(r, authn.Authenticate) })
	return fixture{router: r, repo: repo, mailer: mailer}
}

func (f fixture) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeLogin(t *testing.T, rr *httptest.ResponseRecorder) auth.LoginResult {
	t.Helper()
	var result auth.LoginResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	return result
}

func TestLoginSuccessReturnsTokenAndHomePath(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/auth/login", `{"email":"admin@test.local","password":"correctpass"}`, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	result := decodeLogin(t, rr)
	require.NotEmpty(t, result.AccessToken)
	require.Equal(t, "Bearer", result.TokenType)
	require.Equal(t, "/admin/dashboard", result.User.HomePath)
	require.Len(t, f.repo.sessions, 1)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/auth/login", `{"email":"admin@test.local","password":"wrongpass"}`, "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "Email atau password tidak valid")

	rr = f.do(t, http.MethodPost, "/auth/login", `{"email":"off@test.local","password":"correctpass"}`, "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginValidatesPayload(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/auth/login", `{"email":"not-an-email","password":"x"}`, "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), `"email"`)
	require.Contains(t, rr.Body.String(), `"password"`)
}

func TestOTPLoginFlow(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/auth/otp/request", `{"email":"admin@test.local"}`, "")
	require.Equal(t, http.StatusAccepted, rr.Code)

	code := f.mailer.lastCode(t)
	rr = f.do(t, http.MethodPost, "/auth/otp/verify", `{"email":"admin@test.local","code":"`+code+`"}`, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, shared.RoleAdmin, decodeLogin(t, rr).User.Role)
}

func TestOTPRequestForUnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/auth/otp/request", `{"email":"ghost@test.local"}`, "")
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Empty(t, f.mailer.sent)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/auth/password/forgot", `{"email":"admin@test.local"}`, "")
	require.Equal(t, http.StatusAccepted, rr.Code)
	code := f.mailer.lastCode(t)

	rr = f.do(t, http.MethodPost, "/auth/password/reset", `{"email":"admin@test.local","code":"`+code+`","newPassword":"brandnewpass"}`, "")
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = f.do(t, http.MethodPost, "/auth/login", `{"email":"admin@test.local","password":"brandnewpass"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	token := decodeLogin(t, f.do(t, http.MethodPost, "/auth/login", `{"email":"admin@test.local","password":"correctpass"}`, "")).AccessToken

	rr := f.do(t, http.MethodGet, "/auth/me", "", token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"homePath":"/admin/dashboard"`)

	rr = f.do(t, http.MethodPost, "/auth/logout", "", token)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Len(t, f.repo.revoked, 1)

	rr = f.do(t, http.MethodGet, "/auth/me", "", token)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
