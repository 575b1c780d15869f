// Package ics turns a planned trip into an iCalendar payload so the host
// widget can offer an "add to calendar" download for a selected connection.
package ics

import (
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"tripwhen/internal/when"
)

// Trip is one selected connection, with absolute departure and arrival
// instants (UTC or any fixed offset).
type Trip struct {
	UID         string
	Summary     string
	Origin      string
	Destination string
	Depart      time.Time
	Arrive      time.Time
}

// Encode renders the trip as a single-VEVENT calendar. The event runs from
// departure to arrival in UTC and carries the formatted trip duration in
// its description.
func Encode(t Trip, tr when.Translator) ([]byte, error) {
	if t.UID == "" {
		return nil, errors.New("ics: trip UID is empty")
	}
	if t.Depart.IsZero() || t.Arrive.IsZero() {
		return nil, errors.New("ics: departure and arrival must be set")
	}
	if t.Arrive.Before(t.Depart) {
		return nil, fmt.Errorf("ics: arrival %s precedes departure %s",
			t.Arrive.Format(time.RFC3339), t.Depart.Format(time.RFC3339))
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//tripwhen//connection widget//EN")

	ev := cal.AddEvent(t.UID)
	ev.SetDtStampTime(time.Now().UTC())
	ev.SetStartAt(t.Depart.UTC())
	ev.SetEndAt(t.Arrive.UTC())
	ev.SetSummary(t.Summary)
	if t.Origin != "" && t.Destination != "" {
		ev.SetLocation(t.Origin + " → " + t.Destination)
	}

	dur := when.InstantDiffDisplay(
		t.Depart.UTC().Format(time.RFC3339),
		t.Arrive.UTC().Format(time.RFC3339),
		tr,
	)
	ev.SetDescription("Travel time: " + dur)

	return []byte(cal.Serialize()), nil
}
