// Package avail rolls travel dates forward to days on which a connection
// actually operates, described by an iCalendar RRULE (for example
// "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR" for weekday-only service).
package avail

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	appLog "tripwhen/internal/log"
	"tripwhen/internal/when"
)

// searchHorizonDays bounds how far NextOperatingDay scans before giving up.
// A year covers every sane service pattern including annual specials.
const searchHorizonDays = 366

// Rule describes the operating days of a connection. The zero-value-like
// nil Rule means the connection runs every day.
type Rule struct {
	rr  *rrule.RRule
	loc *time.Location
}

// Parse builds a Rule from a raw RRULE string interpreted in timezone. An
// empty raw string means daily service and yields a nil Rule with no error.
func Parse(raw, timezone string) (*Rule, error) {
	if raw == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("avail: zone %q: %w", timezone, err)
	}
	rr, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, fmt.Errorf("avail: rrule %q: %w", raw, err)
	}
	// Anchor the rule far enough back that any queried date can match.
	rr.DTStart(time.Date(2000, time.January, 1, 0, 0, 0, 0, loc))
	return &Rule{rr: rr, loc: loc}, nil
}

// NextOperatingDay returns the first date at or after from on which the
// rule fires. The second return is false when no operating day exists
// inside the search horizon. A nil Rule operates daily and returns from.
func (r *Rule) NextOperatingDay(from when.CivilDate) (when.CivilDate, bool) {
	if r == nil {
		return from, true
	}

	dayStart := from.At(when.TimeOfDay{}, r.loc)
	next := r.rr.After(dayStart, true)
	if next.IsZero() {
		appLog.Warn("avail: rule never fires after date", "from", from.ISO())
		return when.CivilDate{}, false
	}

	d := when.CivilDateOf(next.In(r.loc))
	if daysBetween(from, d) > searchHorizonDays {
		appLog.Warn("avail: next operating day beyond horizon", "from", from.ISO(), "next", d.ISO())
		return when.CivilDate{}, false
	}
	return d, true
}

func daysBetween(a, b when.CivilDate) int {
	ta := time.Date(a.Year, a.Month, a.Day, 0, 0, 0, 0, time.UTC)
	tb := time.Date(b.Year, b.Month, b.Day, 0, 0, 0, 0, time.UTC)
	return int(tb.Sub(ta).Hours() / 24)
}
