package cache

// Storage keys. These are shared with other clients of the same store and
// must not change.
const (
	KeyFinancial      = "dashboard_financial_plain"
	KeyUser           = "dashboard_user_encrypted"
	KeyDashboardMeta  = "dashboard_metadata_plain"
	KeyAnalytics      = "dashboard_analytics_plain"
	KeyAnalyticsMeta  = "dashboard_analytics_metadata_plain"
	KeyAffiliate      = "affiliate_network_plain"
	KeyAffiliateMeta  = "affiliate_metadata_plain"
	DueDatesKeyPrefix = "due_dates_data_"
)

// Scope names.
const (
	NameDashboard = "dashboard"
	NameAnalytics = "analytics"
	NameAffiliate = "affiliate"
	NameDueDates  = "due_dates"
)

// Scope is a named partition of cached data with its own metadata entry.
type Scope struct {
	Name    string
	DataKey string
	MetaKey string

	// InvestorID is set for per-investor scopes only.
	InvestorID string
}

// Predeclared scopes.
var (
	ScopeDashboard = Scope{Name: NameDashboard, DataKey: KeyFinancial, MetaKey: KeyDashboardMeta}
	ScopeAnalytics = Scope{Name: NameAnalytics, DataKey: KeyAnalytics, MetaKey: KeyAnalyticsMeta}
	ScopeAffiliate = Scope{Name: NameAffiliate, DataKey: KeyAffiliate, MetaKey: KeyAffiliateMeta}
)

// DueDatesScope returns the scope for one investor's due-dates schedule.
// The id is not validated here; DueDates does that before use.
func DueDatesScope(investorID string) Scope {
	key := DueDatesKeyPrefix + investorID
	return Scope{
		Name:       NameDueDates,
		DataKey:    key,
		MetaKey:    key + "_metadata",
		InvestorID: investorID,
	}
}
