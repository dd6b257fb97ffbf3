package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// DefaultTTL is how long an issued token stays valid
const DefaultTTL = 3600 * time.Second

// ErrInvalidCredentials is returned when the presented password does not match
var ErrInvalidCredentials = errors.New("invalid credentials")

// Clock returns the current time
type Clock func() time.Time

// TokenService issues and validates HS256 bearer tokens carrying a single
// exp claim.
type TokenService struct {
	logger   *zap.Logger
	secret   []byte
	password string
	ttl      time.Duration
	now      Clock
}

// Option configures a TokenService
type Option func(*TokenService)

// WithTTL overrides DefaultTTL
func WithTTL(ttl time.Duration) Option {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the wall clock, mostly for tests
func WithClock(now Clock) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a token service signing with secret. password is
// the configured credential GetToken compares against; it may be empty for a
// service that only validates.
func NewTokenService(logger *zap.Logger, secret, password string, opts ...Option) *TokenService {
	s := &TokenService{
		logger:   logger,
		secret:   []byte(secret),
		password: password,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetToken issues a token when presented equals the configured password
func (s *TokenService) GetToken(ctx context.Context, presented string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if subtle.ConstantTimeCompare([]byte(presented), []byte(s.password)) != 1 {
		s.logger.Info("Token request rejected: password mismatch")
		return "", ErrInvalidCredentials
	}

	expiresAt := s.now().Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("Token issued", zap.Time("expires_at", expiresAt))
	return signed, nil
}

// ValidateToken reports whether token is signed with the service secret and
// unexpired. Any failure yields false.
func (s *TokenService) ValidateToken(ctx context.Context, token string) bool {
	if ctx.Err() != nil {
		return false
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(*jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.logger.Debug("Token validation failed", zap.Error(err))
		return false
	}

	return parsed.Valid
}
