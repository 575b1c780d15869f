package when

import (
	"strings"
	"time"

	appLog "tripwhen/internal/log"
)

// Sentinel values returned by the conversion functions on malformed input.
const (
	SentinelClock      = "--:--"
	SentinelUTCClock   = "00:00:00"
	SentinelUTCInstant = "0000-00-00T00:00:00Z"
)

// LocalToUTCClock interprets localTime as wall-clock on date in timezone,
// converts to UTC and formats as zero-padded HH:mm:ss. Returns "00:00:00"
// on invalid input.
func LocalToUTCClock(localTime string, date CivilDate, timezone string) string {
	t, err := resolveLocal(localTime, date, timezone)
	if err != nil {
		appLog.Error("local→utc clock", err, "local_time", localTime, "date", date.ISO(), "timezone", timezone)
		return SentinelUTCClock
	}
	return t.UTC().Format("15:04:05")
}

// LocalToUTCInstant interprets localTime as wall-clock on date in timezone
// and returns the full UTC instant in ISO-8601. Returns
// "0000-00-00T00:00:00Z" on invalid input.
func LocalToUTCInstant(localTime string, date CivilDate, timezone string) string {
	t, err := resolveLocal(localTime, date, timezone)
	if err != nil {
		appLog.Error("local→utc instant", err, "local_time", localTime, "date", date.ISO(), "timezone", timezone)
		return SentinelUTCInstant
	}
	return t.UTC().Format(time.RFC3339)
}

// ConfigClockDisplay reformats a configured time-of-day as HH:mm. The time
// is already meant to be read in timezone, so no zone conversion happens;
// this only normalizes padding and strips seconds. Returns "--:--" on
// invalid input.
func ConfigClockDisplay(configTime string, date CivilDate, timezone string) string {
	t, err := resolveLocal(configTime, date, timezone)
	if err != nil {
		appLog.Error("config clock display", err, "config_time", configTime, "date", date.ISO(), "timezone", timezone)
		return SentinelClock
	}
	return t.Format("15:04")
}

// UTCInstantToLocalClock parses a UTC ISO-8601 instant and renders its
// wall-clock time in timezone as HH:mm. Returns "--:--" on invalid input.
func UTCInstantToLocalClock(isoInstant, timezone string) string {
	loc, err := loadLocation(timezone)
	if err != nil {
		appLog.Error("utc→local clock", err, "timezone", timezone)
		return SentinelClock
	}
	instant, err := time.Parse(time.RFC3339, isoInstant)
	if err != nil {
		appLog.Error("utc→local clock", err, "instant", isoInstant)
		return SentinelClock
	}
	return instant.In(loc).Format("15:04")
}

// UTCMidnight resolves candidate to a calendar date as seen in timezone and
// returns the UTC instant of midnight on that date. candidate may be a
// yyyy-MM-dd date or a full ISO-8601 instant. When candidate cannot be
// resolved the start of fallback's UTC day is returned instead.
func UTCMidnight(candidate, timezone string, fallback time.Time) time.Time {
	if d, ok := civilDateIn(candidate, timezone); ok {
		return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	}
	appLog.Warn("utc midnight: unusable candidate, using fallback day",
		"candidate", candidate, "timezone", timezone)
	fb := fallback.In(time.UTC)
	return time.Date(fb.Year(), fb.Month(), fb.Day(), 0, 0, 0, 0, time.UTC)
}

// civilDateIn interprets candidate as a calendar date in timezone.
func civilDateIn(candidate, timezone string) (CivilDate, bool) {
	loc, err := loadLocation(timezone)
	if err != nil {
		return CivilDate{}, false
	}
	if t, err := time.Parse(time.RFC3339, candidate); err == nil {
		return CivilDateOf(t.In(loc)), true
	}
	if t, err := time.ParseInLocation("2006-01-02", candidate, loc); err == nil {
		return CivilDateOf(t), true
	}
	return CivilDate{}, false
}

// resolveLocal builds the absolute time of clock on date in timezone.
func resolveLocal(clock string, date CivilDate, timezone string) (time.Time, error) {
	tod, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return ZonedMoment{Date: date, Time: tod, Zone: timezone}.Resolve()
}

// parseInstant parses an ISO-8601 instant with explicit UTC/offset designator.
func parseInstant(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(s))
}

// loadLocation resolves an IANA zone name, accepting "utc" in any casing.
func loadLocation(timezone string) (*time.Location, error) {
	if strings.EqualFold(timezone, "utc") || timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(timezone)
}
