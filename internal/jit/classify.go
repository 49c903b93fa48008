package jit

import (
	"time"

	"jit-rca/internal/timeofday"
)

// Compliance holds the two window scenarios of one order or delivery.
//
// Scenario 1: the arrival lies inside the window.
// Scenario 2: the arrival is not after the window end; early arrival counts as compliant.
type Compliance struct {
	Scenario1 bool `json:"scenario1_compliant"`
	Scenario2 bool `json:"scenario2_compliant"`
}

// Classify evaluates both scenarios with a symmetric tolerance in minutes.
// A missing window bound or arrival makes both scenarios non-compliant.
func Classify(from, until, actual *time.Time, toleranceMinutes int) Compliance {
	if from == nil || until == nil || actual == nil {
		return Compliance{}
	}
	if toleranceMinutes < 0 {
		toleranceMinutes = 0
	}
	tol := float64(toleranceMinutes)

	lower := timeofday.Shift(from, -tol)
	upper := timeofday.Shift(until, tol)

	s2 := !actual.After(*upper)
	s1 := s2 && !actual.Before(*lower)

	return Compliance{Scenario1: s1, Scenario2: s2}
}

// IsOutside reports whether an arrival misses the window end, counting an unknown arrival or
// window end as outside.
func IsOutside(until, actual *time.Time, toleranceMinutes int) bool {
	if until == nil || actual == nil {
		return true
	}
	if toleranceMinutes < 0 {
		toleranceMinutes = 0
	}
	return actual.After(*timeofday.Shift(until, float64(toleranceMinutes)))
}

// LateMinutes returns max(0, actual − until), or nil when either side is unknown.
func LateMinutes(until, actual *time.Time) *float64 {
	return timeofday.FloorZero(timeofday.MinutesBetween(actual, until))
}
