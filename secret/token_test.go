package secret

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonwraymond/dashcache/store"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "investor-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestStaticToken(t *testing.T) {
	if _, err := StaticToken("").SessionToken(context.Background()); !errors.Is(err, ErrNoSessionKey) {
		t.Errorf("blank StaticToken error = %v, want ErrNoSessionKey", err)
	}
	got, err := StaticToken("tok").SessionToken(context.Background())
	if err != nil || got != "tok" {
		t.Errorf("SessionToken = (%q, %v)", got, err)
	}
}

func TestStoreTokenSource(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := store.NewMemoryStore(0)
	src := NewStoreTokenSource(s).WithClock(func() time.Time { return now })

	if _, err := src.SessionToken(ctx); !errors.Is(err, ErrNoSessionKey) {
		t.Fatalf("missing token error = %v, want ErrNoSessionKey", err)
	}

	_ = s.SetItem(ctx, store.SessionTokenKey, "opaque-session-token")
	if got, err := src.SessionToken(ctx); err != nil || got != "opaque-session-token" {
		t.Fatalf("opaque token = (%q, %v)", got, err)
	}

	live := signedToken(t, now.Add(time.Hour))
	_ = s.SetItem(ctx, store.SessionTokenKey, live)
	if got, err := src.SessionToken(ctx); err != nil || got != live {
		t.Fatalf("live JWT = (%q, %v)", got, err)
	}

	_ = s.SetItem(ctx, store.SessionTokenKey, signedToken(t, now.Add(-time.Minute)))
	if _, err := src.SessionToken(ctx); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expired JWT error = %v, want ErrSessionExpired", err)
	}
}

func TestSessionKey(t *testing.T) {
	key, err := SessionKey(context.Background(), StaticToken("abcdef0123456789abcdef0123456789"))
	if err != nil {
		t.Fatalf("SessionKey failed: %v", err)
	}
	if len(key) != KeyLength {
		t.Errorf("len(key) = %d, want %d", len(key), KeyLength)
	}
	if _, err := SessionKey(context.Background(), nil); !errors.Is(err, ErrNoSessionKey) {
		t.Errorf("nil source error = %v, want ErrNoSessionKey", err)
	}
}
