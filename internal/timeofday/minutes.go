package timeofday

import (
	"math"
	"time"
)

// MinutesBetween returns a − b in minutes, or nil when either side is unknown.
func MinutesBetween(a, b *time.Time) *float64 {
	if a == nil || b == nil {
		return nil
	}
	m := a.Sub(*b).Minutes()
	return &m
}

// Shift moves an instant by a number of minutes; nil stays nil.
func Shift(t *time.Time, minutes float64) *time.Time {
	if t == nil {
		return nil
	}
	s := t.Add(time.Duration(minutes * float64(time.Minute)))
	return &s
}

// Earliest returns the earlier of two optional instants, preferring a known value over nil.
func Earliest(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Before(*a):
		return b
	default:
		return a
	}
}

// Before orders optional instants ascending with unknown values last.
// The second result is false when both are unknown or equal, so callers can break ties.
func Before(a, b *time.Time) (less bool, decided bool) {
	switch {
	case a == nil && b == nil:
		return false, false
	case a == nil:
		return false, true
	case b == nil:
		return true, true
	case a.Equal(*b):
		return false, false
	default:
		return a.Before(*b), true
	}
}

// Sub subtracts two optional minute values.
func Sub(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}

// FloorZero clamps a known value at zero and keeps nil as nil.
func FloorZero(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := math.Max(0, *v)
	return &f
}

// Round rounds a known value to the given number of decimals.
func Round(v *float64, decimals int) *float64 {
	if v == nil {
		return nil
	}
	r := RoundTo(*v, decimals)
	return &r
}

// RoundTo rounds half away from zero to the given number of decimals.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
