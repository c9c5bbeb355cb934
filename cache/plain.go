package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/jonwraymond/dashcache/observe"
	"github.com/jonwraymond/dashcache/store"
)

// Entry is a cached plain payload plus its read-time fields.
type Entry struct {
	Payload    json.RawMessage
	Cached     bool
	LastUpdate int64
	TimeAgo    string
	CacheAge   int64
}

// MarshalJSON merges the read-time fields into an object payload as
// _cached, _lastUpdate, _timeAgo and _cacheAge. Non-object payloads are
// emitted unchanged.
func (e Entry) MarshalJSON() ([]byte, error) {
	payload := nonNull(e.Payload)
	if payload == nil {
		payload = json.RawMessage("{}")
	}
	if !isObject(payload) || !e.Cached {
		return payload, nil
	}
	out := []byte(payload)
	var err error
	for _, kv := range []struct {
		path  string
		value any
	}{
		{"_cached", true},
		{"_lastUpdate", e.LastUpdate},
		{"_timeAgo", e.TimeAgo},
		{"_cacheAge", e.CacheAge},
	} {
		if out, err = sjson.SetBytes(out, kv.path, kv.value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func isObject(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

// PlainCache stores one unencrypted JSON payload under a scope.
//
// Contract:
//   - Concurrency: safe for concurrent use if the store is.
//   - Errors: Get never errors. Save wraps store failures in ErrStore.
type PlainCache struct {
	scope Scope
	store store.Store
	meta  *MetadataStore
	valid *Validator
	o     options
}

func newPlainCache(s store.Store, scope Scope, o options) *PlainCache {
	meta := NewMetadataStore(s, o.logger)
	return &PlainCache{
		scope: scope,
		store: s,
		meta:  meta,
		valid: newValidator(meta, o),
		o:     o,
	}
}

// NewPlainCache creates a PlainCache for an arbitrary scope.
func NewPlainCache(s store.Store, scope Scope, opts ...Option) *PlainCache {
	return newPlainCache(s, scope, buildOptions(s, opts))
}

// Scope returns the scope this cache writes.
func (c *PlainCache) Scope() Scope { return c.scope }

// Save writes payload and then the scope metadata.
func (c *PlainCache) Save(ctx context.Context, payload json.RawMessage) error {
	if !json.Valid(payload) {
		return fmt.Errorf("%w: %s", ErrInvalidPayload, c.scope.Name)
	}
	if err := c.store.SetItem(ctx, c.scope.DataKey, string(payload)); err != nil {
		c.o.logger.WithScope(scopeMeta(c.scope, "save")).
			Error(ctx, "store write failed", observe.F("store_key", c.scope.DataKey), observe.Err(err))
		return fmt.Errorf("%w: %s: %w", ErrStore, c.scope.DataKey, err)
	}
	return c.meta.Save(ctx, c.scope, newMetadata(c.o.now(), c.scope.InvestorID))
}

// Get returns the payload when metadata has hasData and the payload parses.
func (c *PlainCache) Get(ctx context.Context) (Entry, bool) {
	e, ok := c.get(ctx)
	c.o.metrics.RecordLookup(ctx, scopeMeta(c.scope, "get"), ok)
	return e, ok
}

func (c *PlainCache) get(ctx context.Context) (Entry, bool) {
	md, ok := c.meta.Get(ctx, c.scope)
	if !ok || !md.HasData {
		return Entry{}, false
	}
	return c.read(ctx, md)
}

func (c *PlainCache) read(ctx context.Context, md Metadata) (Entry, bool) {
	raw, ok := c.store.GetItem(ctx, c.scope.DataKey)
	if !ok {
		return Entry{}, false
	}
	if !json.Valid([]byte(raw)) {
		c.o.logger.WithScope(scopeMeta(c.scope, "get")).Warn(ctx, "corrupt payload")
		return Entry{}, false
	}
	e := Entry{Payload: json.RawMessage(raw), Cached: true}
	e.LastUpdate, e.TimeAgo, e.CacheAge = c.valid.derived(md)
	return e, true
}

// IsValid reports whether the payload is fresh.
func (c *PlainCache) IsValid(ctx context.Context) bool {
	return c.valid.IsValid(ctx, c.scope)
}

// ShouldBackgroundRefresh reports whether a background refresh should start.
func (c *PlainCache) ShouldBackgroundRefresh(ctx context.Context) bool {
	return c.valid.ShouldBackgroundRefresh(ctx, c.scope)
}

// LastUpdateTime returns "Nm ago" for the last save.
func (c *PlainCache) LastUpdateTime(ctx context.Context) (string, bool) {
	return c.valid.LastUpdateTime(ctx, c.scope)
}

// Clear removes the payload and its metadata.
func (c *PlainCache) Clear(ctx context.Context) error {
	return removeKeys(ctx, c.store, c.scope.DataKey, c.scope.MetaKey)
}

// Affiliate caches the affiliate network summary.
type Affiliate struct {
	*PlainCache
}

// NewAffiliate creates the affiliate cache over s.
func NewAffiliate(s store.Store, opts ...Option) *Affiliate {
	return &Affiliate{PlainCache: NewPlainCache(s, ScopeAffiliate, opts...)}
}
