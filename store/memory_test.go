package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
)

func TestMemoryStore_GetSetRemove(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	if _, ok := s.GetItem(ctx, "missing"); ok {
		t.Error("GetItem on empty store should return ok=false")
	}

	if err := s.SetItem(ctx, "k", "v"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	got, ok := s.GetItem(ctx, "k")
	if !ok || got != "v" {
		t.Errorf("GetItem = (%q, %v), want (%q, true)", got, ok, "v")
	}

	if err := s.RemoveItem(ctx, "k"); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if _, ok := s.GetItem(ctx, "k"); ok {
		t.Error("GetItem after RemoveItem should return ok=false")
	}
	if err := s.RemoveItem(ctx, "k"); err != nil {
		t.Errorf("RemoveItem on missing key should not error, got: %v", err)
	}
}

func TestMemoryStore_Quota(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()

	if err := s.SetItem(ctx, "ab", "cdef"); err != nil {
		t.Fatalf("SetItem within quota failed: %v", err)
	}
	if err := s.SetItem(ctx, "xy", "0123456"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("SetItem over quota = %v, want ErrQuotaExceeded", err)
	}
	if _, ok := s.GetItem(ctx, "xy"); ok {
		t.Error("rejected write should not be stored")
	}

	// Overwrite reuses the space of the old value.
	if err := s.SetItem(ctx, "ab", "12345678"); err != nil {
		t.Fatalf("overwrite within quota failed: %v", err)
	}
	if u := s.Usage(); u.Used != 10 || u.Capacity != 10 {
		t.Errorf("Usage = %+v, want {Used:10 Capacity:10}", u)
	}
	if err := s.SetItem(ctx, "ab", "123456789"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("overwrite over quota = %v, want ErrQuotaExceeded", err)
	}
	if got, _ := s.GetItem(ctx, "ab"); got != "12345678" {
		t.Errorf("failed overwrite changed value to %q", got)
	}
}

func TestMemoryStore_Keys(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	for _, k := range []string{"b", "a", "c"} {
		_ = s.SetItem(ctx, k, "x")
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 3 || keys[0] != "a" || keys[2] != "c" {
		t.Errorf("Keys = %v", keys)
	}
}

func TestUsage_Ratio(t *testing.T) {
	if r := (Usage{Used: 5}).Ratio(); r != 0 {
		t.Errorf("unlimited Ratio = %v, want 0", r)
	}
	if r := (Usage{Used: 5, Capacity: 20}).Ratio(); r != 0.25 {
		t.Errorf("Ratio = %v, want 0.25", r)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				switch j % 3 {
				case 0:
					_ = s.SetItem(ctx, "k", "v")
				case 1:
					_, _ = s.GetItem(ctx, "k")
				case 2:
					_ = s.RemoveItem(ctx, "k")
				}
			}
		}(i)
	}
	wg.Wait()
}
