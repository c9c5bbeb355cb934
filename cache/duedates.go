package cache

import (
	"context"
	"encoding/json"

	"github.com/jonwraymond/dashcache/store"
)

// DueDates caches due-date schedules per investor. An entry is only served
// back to the investor id it was saved for, and only while fresh.
type DueDates struct {
	store store.Store
	o     options
}

// NewDueDates creates the due-dates cache over s.
func NewDueDates(s store.Store, opts ...Option) *DueDates {
	return &DueDates{store: s, o: buildOptions(s, opts)}
}

func (d *DueDates) scoped(investorID string) (*PlainCache, error) {
	if err := ValidateKey(investorID); err != nil {
		return nil, err
	}
	return newPlainCache(d.store, DueDatesScope(investorID), d.o), nil
}

// Save stores payload for investorID.
func (d *DueDates) Save(ctx context.Context, investorID string, payload json.RawMessage) error {
	c, err := d.scoped(investorID)
	if err != nil {
		return err
	}
	return c.Save(ctx, payload)
}

// Get returns investorID's schedule. It misses when the id is invalid, the
// entry is past DueDatesFreshWindow, the stored metadata names a different
// investor, or the payload is missing or corrupt.
func (d *DueDates) Get(ctx context.Context, investorID string) (Entry, bool) {
	c, err := d.scoped(investorID)
	if err != nil {
		return Entry{}, false
	}
	e, ok := d.get(ctx, c, investorID)
	d.o.metrics.RecordLookup(ctx, scopeMeta(c.scope, "get"), ok)
	return e, ok
}

func (d *DueDates) get(ctx context.Context, c *PlainCache, investorID string) (Entry, bool) {
	if !c.IsValid(ctx) {
		return Entry{}, false
	}
	md, ok := c.meta.Get(ctx, c.scope)
	if !ok || !md.HasData || md.InvestorID != investorID {
		return Entry{}, false
	}
	return c.read(ctx, md)
}

// IsValid reports whether investorID's entry is fresh.
func (d *DueDates) IsValid(ctx context.Context, investorID string) bool {
	c, err := d.scoped(investorID)
	if err != nil {
		return false
	}
	return c.IsValid(ctx)
}

// LastUpdateTime returns "Nm ago" for investorID's last save.
func (d *DueDates) LastUpdateTime(ctx context.Context, investorID string) (string, bool) {
	c, err := d.scoped(investorID)
	if err != nil {
		return "", false
	}
	return c.LastUpdateTime(ctx)
}

// Clear removes investorID's entry.
func (d *DueDates) Clear(ctx context.Context, investorID string) error {
	c, err := d.scoped(investorID)
	if err != nil {
		return err
	}
	return c.Clear(ctx)
}
