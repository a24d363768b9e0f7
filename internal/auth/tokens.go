package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

const revokedKeyPrefix = "auth:revoked:"

// Claims is the JWT payload issued to signed in users.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens. Revoked token IDs are
// kept in Redis until the token would have expired anyway.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	redis  *redis.Client
	now    func() time.Time
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret, issuer string, ttl time.Duration, client *redis.Client) *TokenManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, redis: client, now: time.Now}
}

// Issue signs a new token for u.
func (m *TokenManager) Issue(u *User) (string, *shared.Principal, error) {
	now := m.now().UTC()
	expires := now.Add(m.ttl)
	jti := uuid.NewString()
	claims := Claims{
		Email: u.Email,
		Role:  string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, &shared.Principal{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		TokenID:   jti,
		ExpiresAt: expires,
	}, nil
}

// Parse verifies raw and returns the principal it carries.
func (m *TokenManager) Parse(ctx context.Context, raw string) (*shared.Principal, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrUnauthorized, err)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: bad subject", httpx.ErrUnauthorized)
	}
	role, ok := shared.ParseRole(claims.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrUnauthorized, claims.Role)
	}
	revoked, err := m.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return &shared.Principal{
		UserID:    userID,
		Email:     claims.Email,
		Role:      role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke blocks the principal's token ID until it expires.
func (m *TokenManager) Revoke(ctx context.Context, p *shared.Principal) error {
	if p == nil || p.TokenID == "" {
		return errors.New("revoke: token id required")
	}
	if m.redis == nil {
		return nil
	}
	ttl := p.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	return m.redis.Set(ctx, revokedKeyPrefix+p.TokenID, "1", ttl).Err()
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

func (m *TokenManager) isRevoked(ctx context.Context, jti string) (bool, error) {
	if m.redis == nil || jti == "" {
		return false, nil
	}
	n, err := m.redis.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}
