package cache

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

var agoMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "%ds %s", DivBy: time.Second},
	{D: time.Hour, Format: "%dm %s", DivBy: time.Minute},
	{D: humanize.Day, Format: "%dh %s", DivBy: time.Hour},
	{D: math.MaxInt64, Format: "%dd %s", DivBy: humanize.Day},
}

// TimeAgo formats the time elapsed from then to now as "45s ago", "3m ago",
// "2h ago" or "5d ago". Units are truncated, not rounded.
func TimeAgo(then, now time.Time) string {
	return humanize.CustomRelTime(then, now, "ago", "from now", agoMagnitudes)
}
