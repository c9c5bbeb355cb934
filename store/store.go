package store

import (
	"context"
	"errors"
)

// SessionTokenKey is the key under which the session mechanism keeps the
// current session token. The cache layer reads it but never writes it.
const SessionTokenKey = "session_token"

// Sentinel errors for store operations.
var (
	ErrQuotaExceeded = errors.New("store: quota exceeded")
	ErrClosed        = errors.New("store: store is closed")
)

// Store is a string-keyed, string-valued persistent medium.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Atomicity: each call is atomic on its own; nothing spans keys.
// - Errors: GetItem never errors; it returns ("", false) on miss.
// - RemoveItem is idempotent.
type Store interface {
	GetItem(ctx context.Context, key string) (string, bool)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	// Keys returns every key currently present, in no particular order.
	Keys(ctx context.Context) ([]string, error)
}
