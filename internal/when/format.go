package when

import (
	"fmt"
	"strings"
	"time"

	"github.com/goodsign/monday"

	appLog "tripwhen/internal/log"
)

// locales maps the widget's two-letter language codes to the full locale
// identifiers the month-name formatter understands. Codes outside the table
// fall back to the synthesized "{lang}_{LANG}" form, which the formatter
// accepts (rendering English month names when it has no data for it).
var locales = map[string]monday.Locale{
	"EN": monday.LocaleEnGB,
	"DE": monday.LocaleDeDE,
	"FR": monday.LocaleFrFR,
	"IT": monday.LocaleItIT,
}

func localeFor(lang string) monday.Locale {
	code := strings.ToUpper(strings.TrimSpace(lang))
	if loc, ok := locales[code]; ok {
		return loc
	}
	return monday.Locale(strings.ToLower(code) + "_" + code)
}

// ISODate renders t's calendar date as seen in timezone ("utc" when empty)
// in yyyy-MM-dd form. An unknown zone falls back to formatting the UTC
// fields by hand; a zero time yields "".
func ISODate(t time.Time, timezone string) string {
	if t.IsZero() {
		return ""
	}
	loc, err := loadLocation(timezone)
	if err != nil {
		appLog.Error("iso date: unknown zone, formatting UTC fields", err, "timezone", timezone)
		u := t.UTC()
		return fmt.Sprintf("%04d-%02d-%02d", u.Year(), int(u.Month()), u.Day())
	}
	return t.In(loc).Format("2006-01-02")
}

// LocalizedShortDate renders a UTC instant as a "dd. MMM" date in timezone,
// with month names from the locale derived from lang. Returns "" on an
// unparsable instant, unknown zone or missing language.
func LocalizedShortDate(isoInstant, timezone, lang string) string {
	if strings.TrimSpace(lang) == "" {
		return ""
	}
	instant, err := parseInstant(isoInstant)
	if err != nil {
		appLog.Error("short date", err, "instant", isoInstant)
		return ""
	}
	loc, err := loadLocation(timezone)
	if err != nil {
		appLog.Error("short date", err, "timezone", timezone)
		return ""
	}
	return monday.Format(instant.In(loc), "02. Jan", localeFor(lang))
}

// LocalizedFullDate renders t as a "dd. MMM yyyy" date using its UTC fields.
// The date is taken as already naming the intended calendar day, so no zone
// reinterpretation happens. Returns "" on a zero time or missing language.
func LocalizedFullDate(t time.Time, lang string) string {
	if t.IsZero() || strings.TrimSpace(lang) == "" {
		return ""
	}
	return monday.Format(t.UTC(), "02. Jan 2006", localeFor(lang))
}
