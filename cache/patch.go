package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/sjson"
)

// DashboardField is a patchable path in the dashboard snapshot. Only the
// predeclared values below exist; the zero value is rejected.
type DashboardField[T any] struct{ path string }

// Path returns the dotted path.
func (f DashboardField[T]) Path() string { return f.path }

// AffiliateField is a patchable path in the affiliate payload.
type AffiliateField[T any] struct{ path string }

// Path returns the dotted path.
func (f AffiliateField[T]) Path() string { return f.path }

// Patchable dashboard fields.
var (
	InvestmentTotalBalance  = DashboardField[float64]{"investment.total_balance"}
	InvestmentTotalInterest = DashboardField[float64]{"investment.total_interest"}
	InvestmentType          = DashboardField[string]{"investment.investment_type"}
	SummaryTotalBalance     = DashboardField[float64]{"summary.total_balance"}
	SummaryTotalInterest    = DashboardField[float64]{"summary.total_interest"}
	UserFirstName           = DashboardField[string]{"user.first_name"}
	UserLastName            = DashboardField[string]{"user.last_name"}
	UserPhone               = DashboardField[string]{"user.phone"}
)

// Patchable affiliate fields.
var (
	AffiliatePointsBalance = AffiliateField[float64]{"points_balance"}
	AffiliateTotalReferred = AffiliateField[int]{"total_referred"}
)

// Patch sets one field of the cached snapshot and re-saves it through
// Dashboard.Save, so metadata and the encryption boundary stay consistent.
// Intermediate objects are created as needed. Cached analytics and their
// metadata are left untouched. With nothing cached it returns ErrNotCached
// and writes nothing.
//
// A later full save overwrites the patch; there is no merge.
func Patch[T any](ctx context.Context, d *Dashboard, field DashboardField[T], value T) error {
	if field.path == "" {
		return ErrInvalidField
	}
	snap, ok := d.get(ctx)
	if !ok {
		return ErrNotCached
	}
	doc, err := json.Marshal(snap.stored())
	if err != nil {
		return fmt.Errorf("cache: encode snapshot: %w", err)
	}
	doc, err = sjson.SetBytes(doc, field.path, value)
	if err != nil {
		return fmt.Errorf("cache: patch %s: %w", field.path, err)
	}
	var patched Snapshot
	if err := json.Unmarshal(doc, &patched); err != nil {
		return fmt.Errorf("cache: decode patched snapshot: %w", err)
	}
	// Analytics has its own metadata; re-saving it would mark it fresh.
	patched.Analytics = nil
	return d.Save(ctx, patched)
}

// PatchAffiliate sets one field of the cached affiliate payload and re-saves it.
func PatchAffiliate[T any](ctx context.Context, a *Affiliate, field AffiliateField[T], value T) error {
	if field.path == "" {
		return ErrInvalidField
	}
	e, ok := a.get(ctx)
	if !ok {
		return ErrNotCached
	}
	doc, err := sjson.SetBytes(e.Payload, field.path, value)
	if err != nil {
		return fmt.Errorf("cache: patch %s: %w", field.path, err)
	}
	return a.Save(ctx, doc)
}
