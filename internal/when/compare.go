package when

import (
	"time"

	appLog "tripwhen/internal/log"
)

// Clock comparison anchors both times to a fixed reference date so only the
// time-of-day matters. 2000-01-01 sits outside every zone's DST windows.
var compareAnchor = CivilDate{Year: 2000, Month: time.January, Day: 1}

// LaterClock returns the later of two "HH:mm" wall-clock times in timezone,
// normalized to zero-padded HH:mm. When either side fails to parse, the
// first non-empty input is returned as-is, else "--:--".
func LaterClock(a, b, timezone string) string {
	return pickClock(a, b, timezone, true)
}

// EarlierClock is LaterClock's counterpart for the earlier time.
func EarlierClock(a, b, timezone string) string {
	return pickClock(a, b, timezone, false)
}

func pickClock(a, b, timezone string, later bool) string {
	ta, errA := resolveLocal(a, compareAnchor, timezone)
	tb, errB := resolveLocal(b, compareAnchor, timezone)
	if errA != nil || errB != nil {
		appLog.Warn("clock compare: unparsable input", "a", a, "b", b, "timezone", timezone)
		if a != "" {
			return a
		}
		if b != "" {
			return b
		}
		return SentinelClock
	}

	pick := ta
	if (later && tb.After(ta)) || (!later && tb.Before(ta)) {
		pick = tb
	}
	return pick.Format("15:04")
}
