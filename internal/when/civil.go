// Package when implements the timezone-aware scheduling and duration
// computations behind the connection widget: default travel date selection,
// local/UTC clock conversion, duration display and parsing, localized date
// formatting and clock comparison.
//
// Every exported function is total: malformed input is logged and answered
// with a documented sentinel value, never a panic or an error escaping to
// the caller.
package when

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Translation keys the host must provide through a Translator.
const (
	KeyMinutesShort   = "durationMinutesShort"
	KeyHoursShort     = "durationHoursShort"
	KeyEndBeforeStart = "errors.endDateBeforeStart"
)

// Translator resolves a translation key to its display string. The host
// widget supplies one; unit suffixes and error texts are never hardcoded.
type Translator func(key string) string

// CivilDate is a calendar date with no time-of-day or zone attached.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// CivilDateOf extracts the calendar date of t in t's own location.
func CivilDateOf(t time.Time) CivilDate {
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

func (d CivilDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Valid reports whether d names a real calendar day (leap years respected).
func (d CivilDate) Valid() bool {
	if d.Month < time.January || d.Month > time.December {
		return false
	}
	if d.Day < 1 {
		return false
	}
	// time.Date normalizes overflow, so a round-trip detects invalid days.
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return CivilDateOf(t) == d
}

// At combines the date with a time-of-day in loc.
func (d CivilDate) At(tod TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, tod.Hour, tod.Minute, tod.Second, 0, loc)
}

// AddDays returns the date n days later (negative n goes backward).
func (d CivilDate) AddDays(n int) CivilDate {
	return CivilDateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// ISO renders the date as yyyy-MM-dd.
func (d CivilDate) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// TimeOfDay is a wall-clock time with no date or zone attached.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseClock parses "HH:MM" or "HH:MM:SS" into a TimeOfDay. Seconds default
// to zero when absent.
func ParseClock(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("clock %q: want HH:MM or HH:MM:SS", s)
	}

	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return TimeOfDay{}, fmt.Errorf("clock %q: %w", s, err)
		}
		fields[i] = n
	}

	tod := TimeOfDay{Hour: fields[0], Minute: fields[1], Second: fields[2]}
	if !tod.Valid() {
		return TimeOfDay{}, fmt.Errorf("clock %q: out of range", s)
	}
	return tod, nil
}

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 &&
		t.Minute >= 0 && t.Minute <= 59 &&
		t.Second >= 0 && t.Second <= 59
}

// ZonedMoment is a civil date plus time-of-day read in a named IANA zone.
type ZonedMoment struct {
	Date CivilDate
	Time TimeOfDay
	Zone string
}

// Resolve converts the moment to an absolute time. Wall-clock times inside a
// DST spring-forward gap are normalized past the gap (02:30 in a 02:00→03:00
// transition resolves to 03:30); ambiguous fall-back times resolve to one of
// the two offsets per time.Date.
func (m ZonedMoment) Resolve() (time.Time, error) {
	loc, err := time.LoadLocation(m.Zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("zone %q: %w", m.Zone, err)
	}
	if !m.Date.Valid() {
		return time.Time{}, fmt.Errorf("date %s: invalid", m.Date.ISO())
	}
	if !m.Time.Valid() {
		return time.Time{}, errors.New("time of day out of range")
	}
	return m.Date.At(m.Time, loc), nil
}

// ParseMinutes parses a minute count given as a decimal string. Negative
// counts are rejected.
func ParseMinutes(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("minutes %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("minutes %q: negative", s)
	}
	return n, nil
}
