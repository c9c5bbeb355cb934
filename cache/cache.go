package cache

import (
	"errors"
	"strings"

	"github.com/jonwraymond/dashcache/secret"
)

// MaxKeyLength is the maximum allowed length for a scope identifier.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")

	// ErrStore wraps a failed store write.
	ErrStore = errors.New("cache: store write failed")

	// ErrNotCached is returned by patch operations when there is nothing to patch.
	ErrNotCached = errors.New("cache: no cached entry")

	// ErrInvalidPayload is returned when a payload to save is not valid JSON.
	ErrInvalidPayload = errors.New("cache: payload is not valid JSON")

	// ErrInvalidField is returned for a zero-value field lens.
	ErrInvalidField = errors.New("cache: invalid field")

	// ErrNoSessionKey is returned by Dashboard.Save when no session token is
	// available. Nothing is written in that case.
	ErrNoSessionKey = secret.ErrNoSessionKey

	// ErrSessionChanged is returned by Dashboard.SaveWithKey when the session
	// the key was captured from has ended or been replaced. Nothing is written.
	ErrSessionChanged = errors.New("cache: session changed since key was captured")
)

// ValidateKey checks an externally supplied identifier (an investor id) before
// it becomes part of a store key.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
