package when

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	appLog "tripwhen/internal/log"
)

// SentinelDuration is returned by the duration formatters on bad input.
const SentinelDuration = "--"

// DurationResult is the structured outcome of a zoned duration computation.
// TotalMinutes always equals Hours*60+Minutes.
type DurationResult struct {
	Text         string
	Hours        int
	Minutes      int
	TotalMinutes int
}

// InstantDiffDisplay formats the span between two UTC ISO-8601 instants.
// Spans under an hour render as "{m} {minUnit}", longer ones as
// "{h}:{mm} {hourUnit}". Unparsable instants and negative spans yield "--".
func InstantDiffDisplay(start, end string, tr Translator) string {
	s, err := parseInstant(start)
	if err != nil {
		appLog.Error("instant diff", err, "start", start)
		return SentinelDuration
	}
	e, err := parseInstant(end)
	if err != nil {
		appLog.Error("instant diff", err, "end", end)
		return SentinelDuration
	}

	total := roundMinutes(e.Sub(s).Minutes())
	if total < 0 {
		appLog.Warn("instant diff: end precedes start", "start", start, "end", end)
		return SentinelDuration
	}
	return formatHoursMinutes(total, tr)
}

// ZonedDiff computes the duration between two zoned wall-clock moments. An
// unresolvable moment yields the "--" sentinel with zeroed fields; an end
// before the start yields the translated end-before-start text with zeroed
// fields, so callers can surface the violation without branching on errors.
func ZonedDiff(start, end ZonedMoment, tr Translator) DurationResult {
	s, err := start.Resolve()
	if err != nil {
		appLog.Error("zoned diff: bad start", err, "date", start.Date.ISO(), "zone", start.Zone)
		return DurationResult{Text: SentinelDuration}
	}
	e, err := end.Resolve()
	if err != nil {
		appLog.Error("zoned diff: bad end", err, "date", end.Date.ISO(), "zone", end.Zone)
		return DurationResult{Text: SentinelDuration}
	}
	if e.Before(s) {
		appLog.Warn("zoned diff: end precedes start",
			"start", s.Format("2006-01-02 15:04:05"),
			"end", e.Format("2006-01-02 15:04:05"),
		)
		return DurationResult{Text: tr(KeyEndBeforeStart)}
	}

	total := roundMinutes(e.Sub(s).Minutes())
	return DurationResult{
		Text:         formatHoursMinutes(total, tr),
		Hours:        total / 60,
		Minutes:      total % 60,
		TotalMinutes: total,
	}
}

// FormatMinutes renders a minute count in the shared hours/minutes display
// form. Negative counts yield "--".
func FormatMinutes(totalMinutes int, tr Translator) string {
	if totalMinutes < 0 {
		appLog.Warn("format minutes: negative", "total_minutes", totalMinutes)
		return SentinelDuration
	}
	return formatHoursMinutes(totalMinutes, tr)
}

// FormatMinutesText is FormatMinutes for a minute count arriving as a
// string, as from a query parameter. Non-numeric or negative input yields
// "--".
func FormatMinutesText(totalMinutes string, tr Translator) string {
	n, err := ParseMinutes(totalMinutes)
	if err != nil {
		appLog.Error("format minutes", err, "input", totalMinutes)
		return SentinelDuration
	}
	return formatHoursMinutes(n, tr)
}

// ParseDuration is the inverse of FormatMinutes: it reads a previously
// displayed duration back into total minutes. The hours suffix is checked
// first, mirroring the encode side where an hour component decides the
// format. Anything unrecognizable parses to 0.
func ParseDuration(text string, tr Translator) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	hoursUnit := tr(KeyHoursShort)
	minutesUnit := tr(KeyMinutesShort)

	switch {
	case hoursUnit != "" && strings.Contains(text, hoursUnit):
		body := strings.TrimSpace(strings.Replace(text, hoursUnit, "", 1))
		h, m, err := splitHourPair(body)
		if err != nil {
			appLog.Debug("parse duration: bad hour pair", "input", text)
			return 0
		}
		return h*60 + m
	case minutesUnit != "" && strings.Contains(text, minutesUnit):
		body := strings.TrimSpace(strings.Replace(text, minutesUnit, "", 1))
		n, err := ParseMinutes(body)
		if err != nil {
			appLog.Debug("parse duration: bad minute count", "input", text)
			return 0
		}
		return n
	}
	return 0
}

// splitHourPair parses "H:MM" into hour and minute components.
func splitHourPair(s string) (hours, minutes int, err error) {
	head, tail, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("hour pair %q: missing colon", s)
	}
	hours, err = strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, 0, err
	}
	minutes, err = strconv.Atoi(strings.TrimSpace(tail))
	if err != nil {
		return 0, 0, err
	}
	if hours < 0 || minutes < 0 {
		return 0, 0, fmt.Errorf("hour pair %q: negative component", s)
	}
	return hours, minutes, nil
}

// roundMinutes rounds a fractional minute total to the nearest whole minute
// before any hour/minute split happens. 119.5 becomes 120 and therefore
// displays as 2:00, never 1:59 or 1:60.
func roundMinutes(f float64) int {
	return int(math.Round(f))
}

func formatHoursMinutes(total int, tr Translator) string {
	hours, minutes := total/60, total%60
	if hours == 0 {
		return fmt.Sprintf("%d %s", minutes, tr(KeyMinutesShort))
	}
	return fmt.Sprintf("%d:%02d %s", hours, minutes, tr(KeyHoursShort))
}
