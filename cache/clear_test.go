package cache

import (
	"encoding/json"
	"testing"

	"github.com/jonwraymond/dashcache/store"
)

func TestClearAll(t *testing.T) {
	f := newFixture(t)
	d := f.dashboard()
	_ = d.Save(f.ctx, Snapshot{
		Investment: json.RawMessage(`{"total_balance":1}`),
		Analytics:  json.RawMessage(`{"a":1}`),
		User:       json.RawMessage(`{"first_name":"Amara"}`),
	})
	_ = NewAffiliate(f.store, f.opts()...).Save(f.ctx, json.RawMessage(`{}`))
	_ = NewDueDates(f.store, f.opts()...).Save(f.ctx, "A", json.RawMessage(`{}`))
	for _, k := range []string{"dashboard_layout", "notifications_unread", "affiliate_banner_dismissed"} {
		_ = f.store.SetItem(f.ctx, k, "1")
	}
	_ = f.store.SetItem(f.ctx, "theme", "dark")

	if err := ClearAll(f.ctx, f.store); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	keys := f.cacheKeys(t)
	for _, p := range ClearPrefixes {
		if hasPrefix(keys, p) {
			t.Errorf("key with prefix %q survived: %v", p, keys)
		}
	}
	if v, ok := f.store.GetItem(f.ctx, "theme"); !ok || v != "dark" {
		t.Error("ClearAll removed an unrelated key")
	}
	if _, ok := f.store.GetItem(f.ctx, store.SessionTokenKey); !ok {
		t.Error("ClearAll removed the session token")
	}
	if _, ok := d.Get(f.ctx); ok {
		t.Error("dashboard hit after ClearAll")
	}
}

func TestClearAll_EmptyStore(t *testing.T) {
	f := newFixture(t)
	if err := ClearAll(f.ctx, store.NewMemoryStore(0)); err != nil {
		t.Fatalf("ClearAll on empty store: %v", err)
	}
}
