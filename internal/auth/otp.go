package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpDigits = 6

// OTPStore keeps one pending one-time code per purpose and address in Redis.
type OTPStore struct {
	client      *redis.Client
	ttl         time.Duration
	maxAttempts int
}

// NewOTPStore constructs an OTPStore.
func NewOTPStore(client *redis.Client, ttl time.Duration, maxAttempts int) *OTPStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &OTPStore{client: client, ttl: ttl, maxAttempts: maxAttempts}
}

func otpKey(purpose, email string) string {
	return "auth:otp:" + purpose + ":" + strings.ToLower(strings.TrimSpace(email))
}

// Issue generates a fresh code, replacing any pending one.
func (s *OTPStore) Issue(ctx context.Context, purpose, email string) (string, error) {
	code, err := generateCode(otpDigits)
	if err != nil {
		return "", err
	}
	key := otpKey(purpose, email)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "code", code, "attempts", 0)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// verifyScript checks and consumes a code in one step so a code can be
// redeemed only once. Replies: 0 expired, 1 ok, 2 invalid, 3 locked.
var verifyScript = redis.NewScript(`
local stored = redis.call('HGET', KEYS[1], 'code')
if not stored then
  return 0
end
local max = tonumber(ARGV[2])
local attempts = tonumber(redis.call('HGET', KEYS[1], 'attempts') or '0')
if attempts >= max then
  redis.call('DEL', KEYS[1])
  return 3
end
if stored == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
if attempts >= max then
  redis.call('DEL', KEYS[1])
  return 3
end
return 2
`)

// Verify consumes the pending code when it matches. Wrong codes count
// toward the attempt limit; reaching it discards the code.
func (s *OTPStore) Verify(ctx context.Context, purpose, email, code string) error {
	reply, err := verifyScript.Run(ctx, s.client, []string{otpKey(purpose, email)}, strings.TrimSpace(code), s.maxAttempts).Int()
	if err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}
	switch reply {
	case 1:
		return nil
	case 2:
		return ErrOTPInvalid
	case 3:
		return ErrOTPLocked
	default:
		return ErrOTPExpired
	}
}

func generateCode(digits int) (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < digits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
