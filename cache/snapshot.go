package cache

import (
	"encoding/json"
	"math"

	"github.com/tidwall/gjson"
)

// Snapshot is the composite dashboard object. The plain partition and the
// user profile are stored separately; the underscore fields are derived from
// metadata at read time and never stored.
type Snapshot struct {
	Investment   json.RawMessage `json:"investment,omitempty"`
	Transactions json.RawMessage `json:"transactions,omitempty"`
	Summary      json.RawMessage `json:"summary,omitempty"`
	Investments  json.RawMessage `json:"investments,omitempty"`
	Goals        json.RawMessage `json:"goals,omitempty"`
	Analytics    json.RawMessage `json:"analytics,omitempty"`

	// User is the sensitive partition. Nil when absent or undecryptable.
	User json.RawMessage `json:"user,omitempty"`

	Cached     bool   `json:"_cached,omitempty"`
	LastUpdate int64  `json:"_lastUpdate,omitempty"`
	TimeAgo    string `json:"_timeAgo,omitempty"`
	CacheAge   int64  `json:"_cacheAge,omitempty"`
}

// financial is the stored shape of dashboard_financial_plain.
type financial struct {
	Investment   json.RawMessage `json:"investment,omitempty"`
	Transactions json.RawMessage `json:"transactions,omitempty"`
	Summary      json.RawMessage `json:"summary,omitempty"`
	Investments  json.RawMessage `json:"investments,omitempty"`
	Goals        json.RawMessage `json:"goals,omitempty"`
}

// sensitive is the plaintext sealed into dashboard_user_encrypted.
type sensitive struct {
	User json.RawMessage `json:"user,omitempty"`
}

func (s Snapshot) financial() financial {
	return financial{
		Investment:   s.Investment,
		Transactions: s.Transactions,
		Summary:      s.Summary,
		Investments:  s.Investments,
		Goals:        s.Goals,
	}
}

// stored returns a copy without the derived fields.
func (s Snapshot) stored() Snapshot {
	s.Cached = false
	s.LastUpdate = 0
	s.TimeAgo = ""
	s.CacheAge = 0
	return s
}

// nonNull drops a JSON null so an absent field stays absent.
func nonNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

// balanceEpsilon absorbs floating point noise in balance comparisons.
const balanceEpsilon = 0.01

// Changed reports whether next differs materially from prev: either is nil,
// or investment.total_balance moved by more than a cent. A missing balance
// counts as zero.
func Changed(next, prev *Snapshot) bool {
	if next == nil || prev == nil {
		return true
	}
	a := gjson.GetBytes(prev.Investment, "total_balance").Float()
	b := gjson.GetBytes(next.Investment, "total_balance").Float()
	return math.Abs(a-b) > balanceEpsilon
}

// AnalyticsAllZeros reports whether an analytics payload carries no real
// data: every summary_stats metric and portfolio_metrics value is zero or
// null, and the trend and withdrawal series are empty. Such payloads come
// from accounts mid-provisioning and should not be served from cache.
func AnalyticsAllZeros(raw json.RawMessage) bool {
	if !gjson.ValidBytes(raw) {
		return false
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return false
	}

	if summary := doc.Get("summary_stats"); summary.Exists() {
		for _, k := range []string{
			"total_earned",
			"average_weekly_interest",
			"total_withdrawn",
			"largest_withdrawal",
			"withdrawal_count",
			"weeks_elapsed",
		} {
			if !zeroOrNull(summary.Get(k)) {
				return false
			}
		}
	}

	if metrics := doc.Get("portfolio_metrics"); metrics.IsObject() {
		allZero := true
		metrics.ForEach(func(_, v gjson.Result) bool {
			if !zeroOrNull(v) {
				allZero = false
				return false
			}
			return true
		})
		if !allZero {
			return false
		}
	}

	for _, k := range []string{"interest_trend", "withdrawals", "weekly_withdrawals"} {
		if series := doc.Get(k); series.IsArray() && len(series.Array()) > 0 {
			return false
		}
	}
	return true
}

func zeroOrNull(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null:
		return true
	case gjson.Number:
		return v.Num == 0
	default:
		return false
	}
}
