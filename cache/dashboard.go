package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonwraymond/dashcache/observe"
	"github.com/jonwraymond/dashcache/secret"
	"github.com/jonwraymond/dashcache/store"
)

// Dashboard is the selective-encryption store for the main dashboard
// snapshot and its analytics.
//
// Contract:
//   - Concurrency: safe for concurrent use if the store is. A save spans
//     several keys and is not atomic across them; last write wins.
//   - Errors: reads never error. Save returns ErrNoSessionKey before writing
//     anything when no session token is available, SaveWithKey also returns
//     ErrSessionChanged, and store failures are wrapped in ErrStore.
type Dashboard struct {
	store store.Store
	meta  *MetadataStore
	valid *Validator
	o     options
}

// NewDashboard creates a Dashboard over s.
func NewDashboard(s store.Store, opts ...Option) *Dashboard {
	o := buildOptions(s, opts)
	meta := NewMetadataStore(s, o.logger)
	return &Dashboard{
		store: s,
		meta:  meta,
		valid: newValidator(meta, o),
		o:     o,
	}
}

// Validator returns the validator sharing this cache's clock and policy.
func (d *Dashboard) Validator() *Validator { return d.valid }

// SessionKey returns the key of the current session. A fetch captures it
// before calling the backend and hands it to SaveWithKey.
func (d *Dashboard) SessionKey(ctx context.Context) (secret.Key, error) {
	key, err := secret.SessionKey(ctx, d.o.tokens)
	if errors.Is(err, secret.ErrSessionExpired) {
		return "", fmt.Errorf("%w: %w", ErrNoSessionKey, err)
	}
	return key, err
}

// Save writes the plain partition, the analytics payload when present, the
// sealed user partition and finally the dashboard metadata, under the
// current session's key.
func (d *Dashboard) Save(ctx context.Context, snap Snapshot) error {
	key, err := d.SessionKey(ctx)
	if err != nil {
		d.o.logger.WithScope(scopeMeta(ScopeDashboard, "save")).
			Warn(ctx, "no session key, dashboard not cached", observe.Err(err))
		return err
	}
	return d.write(ctx, key, snap)
}

// SaveWithKey is Save for data fetched under key. If the session has ended
// since key was captured it returns ErrNoSessionKey, and if another session
// replaced it ErrSessionChanged. Either way nothing is written.
func (d *Dashboard) SaveWithKey(ctx context.Context, key secret.Key, snap Snapshot) error {
	log := d.o.logger.WithScope(scopeMeta(ScopeDashboard, "save"))
	current, err := d.SessionKey(ctx)
	if err != nil {
		log.Warn(ctx, "no session key, dashboard not cached", observe.Err(err))
		return err
	}
	if key == "" || current != key {
		log.Warn(ctx, "session changed during fetch, dashboard not cached")
		return ErrSessionChanged
	}
	return d.write(ctx, key, snap)
}

func (d *Dashboard) write(ctx context.Context, key secret.Key, snap Snapshot) error {
	log := d.o.logger.WithScope(scopeMeta(ScopeDashboard, "save"))

	userPlain, err := json.Marshal(sensitive{User: nonNull(snap.User)})
	if err != nil {
		return fmt.Errorf("cache: encode user: %w", err)
	}
	sealed, err := d.o.cipher.Encrypt(key, userPlain)
	if err != nil {
		log.Error(ctx, "encrypt user partition failed", observe.Err(err))
		return fmt.Errorf("cache: encrypt user: %w", err)
	}

	plain, err := json.Marshal(snap.financial())
	if err != nil {
		return fmt.Errorf("cache: encode financial data: %w", err)
	}

	if err := d.set(ctx, KeyFinancial, string(plain)); err != nil {
		return err
	}
	if a := nonNull(snap.Analytics); a != nil {
		if err := d.SaveAnalytics(ctx, a); err != nil {
			return err
		}
	}
	if err := d.set(ctx, KeyUser, sealed); err != nil {
		return err
	}
	return d.meta.Save(ctx, ScopeDashboard, newMetadata(d.o.now(), ""))
}

// Get returns the cached snapshot. A hit requires dashboard metadata with
// hasData and a parseable plain partition. The user partition is decrypted
// last; any failure there leaves User nil without affecting the rest.
func (d *Dashboard) Get(ctx context.Context) (Snapshot, bool) {
	sm := scopeMeta(ScopeDashboard, "get")
	snap, ok := d.get(ctx)
	d.o.metrics.RecordLookup(ctx, sm, ok)
	return snap, ok
}

// Peek is Get without recording a lookup, for internal comparisons.
func (d *Dashboard) Peek(ctx context.Context) (Snapshot, bool) {
	return d.get(ctx)
}

func (d *Dashboard) get(ctx context.Context) (Snapshot, bool) {
	md, ok := d.meta.Get(ctx, ScopeDashboard)
	if !ok || !md.HasData {
		return Snapshot{}, false
	}

	raw, ok := d.store.GetItem(ctx, KeyFinancial)
	if !ok {
		return Snapshot{}, false
	}
	var fin financial
	if err := json.Unmarshal([]byte(raw), &fin); err != nil {
		d.o.logger.WithScope(scopeMeta(ScopeDashboard, "get")).
			Warn(ctx, "corrupt financial partition", observe.Err(err))
		return Snapshot{}, false
	}

	snap := Snapshot{
		Investment:   nonNull(fin.Investment),
		Transactions: nonNull(fin.Transactions),
		Summary:      nonNull(fin.Summary),
		Investments:  nonNull(fin.Investments),
		Goals:        nonNull(fin.Goals),
		User:         d.user(ctx),
		Cached:       true,
	}
	if a, ok := d.analytics(ctx); ok {
		snap.Analytics = a
	}
	snap.LastUpdate, snap.TimeAgo, snap.CacheAge = d.valid.derived(md)
	return snap, true
}

// user reads and opens the sensitive partition. Values that are not in
// ciphertext format are legacy plain JSON and parsed as-is.
func (d *Dashboard) user(ctx context.Context) json.RawMessage {
	raw, ok := d.store.GetItem(ctx, KeyUser)
	if !ok || raw == "" {
		return nil
	}
	log := d.o.logger.WithScope(scopeMeta(ScopeDashboard, "decrypt"))

	plain := []byte(raw)
	if secret.IsCiphertext(raw) {
		key, err := secret.SessionKey(ctx, d.o.tokens)
		if err != nil {
			log.Debug(ctx, "no session key for user partition", observe.Err(err))
			return nil
		}
		plain, err = d.o.cipher.Decrypt(key, raw)
		if err != nil {
			log.Warn(ctx, "user partition did not decrypt", observe.Err(err))
			return nil
		}
	}

	var s sensitive
	if err := json.Unmarshal(plain, &s); err != nil {
		log.Warn(ctx, "user partition is not valid JSON", observe.Err(err))
		return nil
	}
	return nonNull(s.User)
}

// SaveAnalytics writes the analytics payload and its metadata.
func (d *Dashboard) SaveAnalytics(ctx context.Context, analytics json.RawMessage) error {
	if nonNull(analytics) == nil {
		return nil
	}
	if !json.Valid(analytics) {
		return fmt.Errorf("%w: analytics", ErrInvalidPayload)
	}
	if err := d.set(ctx, KeyAnalytics, string(analytics)); err != nil {
		return err
	}
	return d.meta.Save(ctx, ScopeAnalytics, newMetadata(d.o.now(), ""))
}

// Analytics returns the cached analytics payload.
func (d *Dashboard) Analytics(ctx context.Context) (json.RawMessage, bool) {
	a, ok := d.analytics(ctx)
	d.o.metrics.RecordLookup(ctx, scopeMeta(ScopeAnalytics, "get"), ok)
	return a, ok
}

func (d *Dashboard) analytics(ctx context.Context) (json.RawMessage, bool) {
	raw, ok := d.store.GetItem(ctx, KeyAnalytics)
	if !ok {
		return nil, false
	}
	if !json.Valid([]byte(raw)) {
		d.o.logger.WithScope(scopeMeta(ScopeAnalytics, "get")).
			Warn(ctx, "corrupt analytics payload")
		return nil, false
	}
	a := nonNull(json.RawMessage(raw))
	return a, a != nil
}

// ClearAnalytics removes the analytics payload and its metadata.
func (d *Dashboard) ClearAnalytics(ctx context.Context) error {
	return removeKeys(ctx, d.store, KeyAnalytics, KeyAnalyticsMeta)
}

// Clear removes every dashboard key, analytics included.
func (d *Dashboard) Clear(ctx context.Context) error {
	return removeKeys(ctx, d.store, KeyFinancial, KeyUser, KeyDashboardMeta, KeyAnalytics, KeyAnalyticsMeta)
}

// IsValid reports whether the dashboard is fresh.
func (d *Dashboard) IsValid(ctx context.Context) bool {
	return d.valid.IsValid(ctx, ScopeDashboard)
}

// ShouldBackgroundRefresh reports whether a background dashboard refresh should start.
func (d *Dashboard) ShouldBackgroundRefresh(ctx context.Context) bool {
	return d.valid.ShouldBackgroundRefresh(ctx, ScopeDashboard)
}

// LastUpdateTime returns "Nm ago" for the last dashboard save.
func (d *Dashboard) LastUpdateTime(ctx context.Context) (string, bool) {
	return d.valid.LastUpdateTime(ctx, ScopeDashboard)
}

func (d *Dashboard) set(ctx context.Context, key, value string) error {
	if err := d.store.SetItem(ctx, key, value); err != nil {
		d.o.logger.WithScope(scopeMeta(ScopeDashboard, "save")).
			Error(ctx, "store write failed", observe.F("store_key", key), observe.Err(err))
		return fmt.Errorf("%w: %s: %w", ErrStore, key, err)
	}
	return nil
}

func removeKeys(ctx context.Context, s store.Store, keys ...string) error {
	var errs []error
	for _, k := range keys {
		if err := s.RemoveItem(ctx, k); err != nil {
			errs = append(errs, fmt.Errorf("%w: remove %s: %w", ErrStore, k, err))
		}
	}
	return errors.Join(errs...)
}
