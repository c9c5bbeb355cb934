package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonwraymond/dashcache/observe"
	"github.com/jonwraymond/dashcache/store"
)

// Metadata records when a scope was last written and whether it holds data.
type Metadata struct {
	LastUpdate int64  `json:"lastUpdate"` // Unix milliseconds
	CacheAge   int64  `json:"cacheAge"`
	HasData    bool   `json:"hasData"`
	InvestorID string `json:"investorId,omitempty"`
}

// Updated returns LastUpdate as a time. Zero if never updated.
func (m Metadata) Updated() time.Time {
	if m.LastUpdate == 0 {
		return time.Time{}
	}
	return time.UnixMilli(m.LastUpdate)
}

// newMetadata is the entry written after a successful payload save.
func newMetadata(now time.Time, investorID string) Metadata {
	return Metadata{
		LastUpdate: now.UnixMilli(),
		CacheAge:   0,
		HasData:    true,
		InvestorID: investorID,
	}
}

// MetadataStore reads and writes scope metadata entries.
//
// Contract:
//   - Concurrency: safe for concurrent use if the underlying store is.
//   - Errors: Get never errors; corrupt entries are logged and reported as
//     absent. Save wraps store failures in ErrStore.
type MetadataStore struct {
	store  store.Store
	logger observe.Logger
}

// NewMetadataStore creates a MetadataStore over s.
func NewMetadataStore(s store.Store, logger observe.Logger) *MetadataStore {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &MetadataStore{store: s, logger: logger}
}

// Get returns the metadata for scope.
func (m *MetadataStore) Get(ctx context.Context, scope Scope) (Metadata, bool) {
	raw, ok := m.store.GetItem(ctx, scope.MetaKey)
	if !ok {
		return Metadata{}, false
	}
	var md Metadata
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		m.logger.WithScope(scopeMeta(scope, "metadata.get")).
			Warn(ctx, "corrupt metadata entry", observe.Err(err))
		return Metadata{}, false
	}
	return md, true
}

// Save overwrites the metadata for scope in one store write.
func (m *MetadataStore) Save(ctx context.Context, scope Scope, md Metadata) error {
	data, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("%w: encode metadata: %v", ErrStore, err)
	}
	if err := m.store.SetItem(ctx, scope.MetaKey, string(data)); err != nil {
		m.logger.WithScope(scopeMeta(scope, "metadata.save")).
			Error(ctx, "metadata write failed", observe.Err(err))
		return fmt.Errorf("%w: %s: %w", ErrStore, scope.MetaKey, err)
	}
	return nil
}

func scopeMeta(scope Scope, op string) observe.ScopeMeta {
	return observe.ScopeMeta{Scope: scope.Name, Operation: op, InvestorID: scope.InvestorID}
}
