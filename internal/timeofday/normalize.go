package timeofday

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var combinedLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

var displayLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04PM",
}

// IsBlank reports whether a raw field carries no value: empty, "nan", "none" or "nat" in any case.
func IsBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "nat":
		return true
	}
	return false
}

// Combine joins a YYYY-MM-DD date and a short time of day (HH:MM or HH:MM:SS) into an
// absolute UTC instant. Any missing or unparsable part yields nil; it never guesses a time.
func Combine(date, tod string) *time.Time {
	if IsBlank(date) || IsBlank(tod) {
		return nil
	}
	d := strings.TrimSpace(date)
	if len(d) > len(dateLayout) && (d[len(dateLayout)] == ' ' || d[len(dateLayout)] == 'T') {
		d = d[:len(dateLayout)]
	}
	s := d + " " + strings.TrimSpace(tod)

	for _, layout := range combinedLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD date at midnight UTC. Returns false if it cannot.
func ParseDate(date string) (time.Time, bool) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatShort renders a time-like value as HH:MM for display.
// Values that already look short are cut without parsing; values that cannot be read as a
// time are returned unmodified.
func FormatShort(raw string) string {
	if IsBlank(raw) {
		return ""
	}
	s := strings.TrimSpace(raw)
	if len(s) >= 5 && s[2] == ':' {
		return s[:5]
	}
	for _, layout := range displayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04")
		}
	}
	return raw
}

// FormatInstant renders a normalized instant as HH:MM, or "" when unknown.
func FormatInstant(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04")
}
