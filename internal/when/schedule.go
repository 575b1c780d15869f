package when

import (
	"fmt"
	"time"

	appLog "tripwhen/internal/log"
)

// prepBuffer is subtracted from the latest possible departure alongside the
// trip duration, leaving room to actually get going.
const prepBuffer = time.Hour

// DefaultDate picks the default travel date for an activity: today if the
// trip can still finish before latestEnd with an hour to spare, otherwise
// tomorrow. now is injected so callers can pin the clock; pass time.Now()
// in production.
//
// latestEnd is a "HH:MM" or "HH:MM:SS" wall-clock time read in timezone.
// Any failure (unknown zone, malformed clock, negative duration) falls back
// to today's date in the system local zone.
func DefaultDate(now time.Time, timezone, latestEnd string, durationMinutes int) CivilDate {
	d, err := defaultDate(now, timezone, latestEnd, durationMinutes)
	if err != nil {
		appLog.Error("default date: falling back to local today", err,
			"timezone", timezone,
			"latest_end", latestEnd,
			"duration_minutes", durationMinutes,
		)
		return CivilDateOf(now.In(time.Local))
	}
	return d
}

func defaultDate(now time.Time, timezone, latestEnd string, durationMinutes int) (CivilDate, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return CivilDate{}, fmt.Errorf("zone %q: %w", timezone, err)
	}
	tod, err := ParseClock(latestEnd)
	if err != nil {
		return CivilDate{}, err
	}
	if durationMinutes < 0 {
		return CivilDate{}, fmt.Errorf("duration %d: negative", durationMinutes)
	}

	nowIn := now.In(loc)
	today := CivilDateOf(nowIn)
	latestEndToday := today.At(tod, loc)

	// Latest moment at which starting today still works. Strictly past it,
	// the default rolls to tomorrow; exactly on it, today still holds.
	threshold := latestEndToday.Add(-time.Duration(durationMinutes)*time.Minute - prepBuffer)
	if nowIn.After(threshold) {
		return today.AddDays(1), nil
	}
	return today, nil
}
