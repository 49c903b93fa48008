package timeofday

import (
	"testing"
	"time"
)

func TestCombine(t *testing.T) {
	at := func(h, m, s int) *time.Time {
		v := time.Date(2024, 1, 10, h, m, s, 0, time.UTC)
		return &v
	}

	tests := []struct {
		name string
		date string
		tod  string
		want *time.Time
	}{
		{"ShortForm", "2024-01-10", "09:30", at(9, 30, 0)},
		{"WithSeconds", "2024-01-10", "09:30:15", at(9, 30, 15)},
		{"SingleDigitHour", "2024-01-10", "6:05", at(6, 5, 0)},
		{"Whitespace", " 2024-01-10 ", "  10:00 ", at(10, 0, 0)},
		{"DateWithMidnight", "2024-01-10 00:00:00", "08:00", at(8, 0, 0)},
		{"Empty", "2024-01-10", "", nil},
		{"NaNSentinel", "2024-01-10", "NaN", nil},
		{"NoneSentinel", "2024-01-10", "None", nil},
		{"Garbage", "2024-01-10", "late", nil},
		{"HourOutOfRange", "2024-01-10", "25:00", nil},
		{"BadDate", "10/01/2024", "09:30", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Combine(tt.date, tt.tod)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("Combine() = %v, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("Combine() = nil, want %v", *tt.want)
			case tt.want != nil && !got.Equal(*tt.want):
				t.Errorf("Combine() = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestFormatShort(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"09:30", "09:30"},
		{"09:30:59", "09:30"},
		{"6:05", "06:05"},
		{"2024-01-10 14:45:00", "14:45"},
		{"2024-01-10T07:15:00Z", "07:15"},
		{"nan", ""},
		{" None ", ""},
		{"", ""},
		{"n/a", "n/a"},
	}

	for _, tt := range tests {
		if got := FormatShort(tt.in); got != tt.want {
			t.Errorf("FormatShort(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMinutesBetween(t *testing.T) {
	a := Combine("2024-01-10", "10:15")
	b := Combine("2024-01-10", "10:00")

	if got := MinutesBetween(a, b); got == nil || *got != 15 {
		t.Errorf("MinutesBetween() = %v, want 15", got)
	}
	if got := MinutesBetween(a, nil); got != nil {
		t.Errorf("MinutesBetween(a, nil) = %v, want nil", *got)
	}
	if got := FloorZero(MinutesBetween(b, a)); got == nil || *got != 0 {
		t.Errorf("FloorZero(-15) = %v, want 0", got)
	}
}

func TestBefore_UnknownLast(t *testing.T) {
	a := Combine("2024-01-10", "08:00")

	if less, decided := Before(a, nil); !less || !decided {
		t.Errorf("known instant must sort before unknown")
	}
	if less, decided := Before(nil, a); less || !decided {
		t.Errorf("unknown instant must sort after known")
	}
	if _, decided := Before(nil, nil); decided {
		t.Errorf("two unknown instants must be left to the tie-breaker")
	}
}
