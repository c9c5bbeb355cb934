package secret

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonwraymond/dashcache/store"
)

// TokenSource yields the current session token.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: a missing token is ErrNoSessionKey; an expired one ErrSessionExpired.
type TokenSource interface {
	SessionToken(ctx context.Context) (string, error)
}

// StaticToken is a fixed TokenSource.
type StaticToken string

// SessionToken returns the token, or ErrNoSessionKey when blank.
func (t StaticToken) SessionToken(_ context.Context) (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", ErrNoSessionKey
	}
	return string(t), nil
}

// StoreTokenSource reads the session token from a store, the way the session
// mechanism leaves it under store.SessionTokenKey.
type StoreTokenSource struct {
	store store.Store
	key   string
	now   func() time.Time
}

// NewStoreTokenSource reads store.SessionTokenKey from s.
func NewStoreTokenSource(s store.Store) *StoreTokenSource {
	return &StoreTokenSource{store: s, key: store.SessionTokenKey, now: time.Now}
}

// WithClock overrides the clock used for expiry checks.
func (s *StoreTokenSource) WithClock(now func() time.Time) *StoreTokenSource {
	if now != nil {
		s.now = now
	}
	return s
}

// SessionToken returns the stored token. JWT tokens past their exp claim
// are reported as ErrSessionExpired so nothing is sealed under them.
func (s *StoreTokenSource) SessionToken(ctx context.Context) (string, error) {
	token, ok := s.store.GetItem(ctx, s.key)
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrNoSessionKey
	}
	if SessionExpired(token, s.now()) {
		return "", ErrSessionExpired
	}
	return token, nil
}

// SessionExpired reports whether token is a JWT whose exp is not after now.
// Opaque (non-JWT) tokens never expire from this package's point of view.
func SessionExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time)
}

// SessionKey resolves the current token from src and derives the cipher key.
func SessionKey(ctx context.Context, src TokenSource) (Key, error) {
	if src == nil {
		return "", ErrNoSessionKey
	}
	token, err := src.SessionToken(ctx)
	if err != nil {
		return "", err
	}
	return DeriveKey(token)
}

var (
	_ TokenSource = StaticToken("")
	_ TokenSource = (*StoreTokenSource)(nil)
)
