package when

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testTranslator() Translator {
	return func(key string) string {
		switch key {
		case KeyMinutesShort:
			return "min"
		case KeyHoursShort:
			return "h"
		case KeyEndBeforeStart:
			return "end is before start"
		}
		return key
	}
}

func TestInstantDiffDisplay(t *testing.T) {
	tr := testTranslator()

	tests := []struct {
		name       string
		start, end string
		want       string
	}{
		{"under an hour", "2025-05-17T08:00:00Z", "2025-05-17T08:42:00Z", "42 min"},
		{"zero span", "2025-05-17T08:00:00Z", "2025-05-17T08:00:00Z", "0 min"},
		{"hours and minutes", "2025-05-17T08:00:00Z", "2025-05-17T10:05:00Z", "2:05 h"},
		{"exact hours pad minutes", "2025-05-17T08:00:00Z", "2025-05-17T11:00:00Z", "3:00 h"},
		{"bad start", "yesterday", "2025-05-17T08:00:00Z", "--"},
		{"bad end", "2025-05-17T08:00:00Z", "", "--"},
		{"end before start", "2025-05-17T10:00:00Z", "2025-05-17T08:00:00Z", "--"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InstantDiffDisplay(tt.start, tt.end, tr))
		})
	}
}

func TestInstantDiffDisplayRoundsBeforeSplitting(t *testing.T) {
	// 119.5 minutes rounds to 120 first, so the display is 2:00, never
	// 1:59 or 1:60.
	got := InstantDiffDisplay("2025-05-17T08:00:00Z", "2025-05-17T09:59:30Z", testTranslator())
	assert.Equal(t, "2:00 h", got)
}

func TestZonedDiff(t *testing.T) {
	tr := testTranslator()
	day := CivilDate{2025, time.May, 17}

	t.Run("same zone", func(t *testing.T) {
		res := ZonedDiff(
			ZonedMoment{day, TimeOfDay{Hour: 10}, "Europe/Vienna"},
			ZonedMoment{day, TimeOfDay{Hour: 12, Minute: 30}, "Europe/Vienna"},
			tr,
		)
		assert.Equal(t, DurationResult{Text: "2:30 h", Hours: 2, Minutes: 30, TotalMinutes: 150}, res)
	})

	t.Run("across zones", func(t *testing.T) {
		// 10:00 Vienna summer is 08:00Z; 10:00 London is 09:00Z.
		res := ZonedDiff(
			ZonedMoment{day, TimeOfDay{Hour: 10}, "Europe/Vienna"},
			ZonedMoment{day, TimeOfDay{Hour: 10}, "Europe/London"},
			tr,
		)
		assert.Equal(t, 60, res.TotalMinutes)
		assert.Equal(t, "1:00 h", res.Text)
	})

	t.Run("end before start reports violation", func(t *testing.T) {
		res := ZonedDiff(
			ZonedMoment{day, TimeOfDay{Hour: 12}, "UTC"},
			ZonedMoment{day, TimeOfDay{Hour: 10}, "UTC"},
			tr,
		)
		assert.Equal(t, DurationResult{Text: "end is before start"}, res)
	})

	t.Run("invalid moment yields sentinel", func(t *testing.T) {
		res := ZonedDiff(
			ZonedMoment{day, TimeOfDay{Hour: 10}, "Not/AZone"},
			ZonedMoment{day, TimeOfDay{Hour: 12}, "UTC"},
			tr,
		)
		assert.Equal(t, DurationResult{Text: "--"}, res)
	})
}

func TestFormatMinutes(t *testing.T) {
	tr := testTranslator()

	assert.Equal(t, "0 min", FormatMinutes(0, tr))
	assert.Equal(t, "59 min", FormatMinutes(59, tr))
	assert.Equal(t, "1:00 h", FormatMinutes(60, tr))
	assert.Equal(t, "2:05 h", FormatMinutes(125, tr))
	assert.Equal(t, "--", FormatMinutes(-5, tr))
}

func TestFormatMinutesText(t *testing.T) {
	tr := testTranslator()

	assert.Equal(t, "45 min", FormatMinutesText("45", tr))
	assert.Equal(t, "1:30 h", FormatMinutesText(" 90 ", tr))
	assert.Equal(t, "--", FormatMinutesText("abc", tr))
	assert.Equal(t, "--", FormatMinutesText("-5", tr))
	assert.Equal(t, "--", FormatMinutesText("", tr))
}

func TestParseDuration(t *testing.T) {
	tr := testTranslator()

	tests := []struct {
		in   string
		want int
	}{
		{"2:05 h", 125},
		{"1:00 h", 60},
		{"45 min", 45},
		{"0 min", 0},
		{" 12 min ", 12},
		{"x:y h", 0},
		{"2 h", 0}, // hours form requires H:MM
		{"abc", 0},
		{"", 0},
		{"-5 min", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDuration(tt.in, tr), "input %q", tt.in)
	}
}

func TestDurationRoundTrip(t *testing.T) {
	tr := testTranslator()
	for m := 0; m < 10000; m++ {
		if got := ParseDuration(FormatMinutes(m, tr), tr); got != m {
			t.Fatalf("round trip broke at %d: got %d", m, got)
		}
	}
}
