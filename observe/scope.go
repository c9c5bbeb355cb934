package observe

// ScopeMeta identifies the cache scope and operation a log line, span or
// metric belongs to.
type ScopeMeta struct {
	Scope      string // dashboard, analytics, affiliate, due_dates
	Operation  string // fetch, refresh, save, ... (optional)
	InvestorID string // scoped caches only (optional)
}

// SpanName returns the deterministic span name.
// Format: cache.<operation>.<scope> or cache.<scope>
func (m ScopeMeta) SpanName() string {
	if m.Operation != "" {
		return "cache." + m.Operation + "." + m.Scope
	}
	return "cache." + m.Scope
}

// Validate checks that the scope is set.
func (m ScopeMeta) Validate() error {
	if m.Scope == "" {
		return ErrMissingScope
	}
	return nil
}
