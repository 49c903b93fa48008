package jit

import (
	"bytes"
	"encoding/json"
	"testing"

	"jit-rca/internal/records"
	"jit-rca/internal/timeofday"
)

func ptr(v float64) *float64 { return &v }

func rec(route, stop, customer, activity, from, until, planned, actual string) records.OrderRecord {
	return records.OrderRecord{
		Date:           "2024-01-10",
		RouteID:        route,
		CustomerID:     customer,
		ActivityCode:   activity,
		StopName:       stop,
		WindowFrom:     from,
		WindowUntil:    until,
		PlannedArrival: planned,
		ActualArrival:  actual,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		from      string
		until     string
		actual    string
		tolerance int
		wantS1    bool
		wantS2    bool
	}{
		{"InsideWindow", "08:00", "10:00", "09:30", 0, true, true},
		{"LateBy15", "08:00", "10:00", "10:15", 0, false, false},
		{"EarlyArrival", "08:00", "10:00", "07:30", 0, false, true},
		{"ExactlyAtEnd", "08:00", "10:00", "10:00", 0, true, true},
		{"ExactlyAtStart", "08:00", "10:00", "08:00", 0, true, true},
		{"LateWithinTolerance", "08:00", "10:00", "10:15", 15, true, true},
		{"EarlyWithinTolerance", "08:00", "10:00", "07:50", 10, true, true},
		{"NegativeToleranceIsZero", "08:00", "10:00", "10:01", -30, false, false},
		{"MissingActual", "08:00", "10:00", "", 0, false, false},
		{"MissingFrom", "nan", "10:00", "09:00", 0, false, false},
		{"MissingUntil", "08:00", "None", "09:00", 0, false, false},
		{"GarbageActual", "08:00", "10:00", "soon", 60, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(
				timeofday.Combine("2024-01-10", tt.from),
				timeofday.Combine("2024-01-10", tt.until),
				timeofday.Combine("2024-01-10", tt.actual),
				tt.tolerance,
			)
			if c.Scenario1 != tt.wantS1 || c.Scenario2 != tt.wantS2 {
				t.Errorf("Classify() = %+v, want s1=%v s2=%v", c, tt.wantS1, tt.wantS2)
			}
		})
	}
}

func TestClassify_Scenario1ImpliesScenario2(t *testing.T) {
	times := []string{"", "06:00", "07:59", "08:00", "09:00", "10:00", "10:01", "12:00", "nan"}
	for _, from := range times {
		for _, until := range times {
			for _, actual := range times {
				for _, tol := range []int{0, 5, 30} {
					c := Classify(
						timeofday.Combine("2024-01-10", from),
						timeofday.Combine("2024-01-10", until),
						timeofday.Combine("2024-01-10", actual),
						tol,
					)
					if c.Scenario1 && !c.Scenario2 {
						t.Fatalf("s1 without s2 for from=%q until=%q actual=%q tol=%d", from, until, actual, tol)
					}
				}
			}
		}
	}
}

func TestAggregateDeliveries_OrSemantics(t *testing.T) {
	in := []records.OrderRecord{
		rec("R1", "A", "Z41102", "4", "08:00", "10:00", "09:00", "09:30"),
		rec("R1", "A", "Z41102", "4", "08:00", "10:00", "09:00", "10:15"),
		rec("R1", "B", "Z41102", "4", "08:00", "10:00", "09:30", "11:00"),
	}
	orders, _ := Prepare(in, Options{})
	deliveries := AggregateDeliveries(orders, ByWindow)

	if len(deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
	}

	byStop := map[string]Delivery{}
	for _, d := range deliveries {
		byStop[d.Key.StopName] = d
		if d.Orders < 1 {
			t.Errorf("delivery %s has no orders", d.Key.StopName)
		}
		if d.Scenario2 != (d.Scenario2Orders > 0) {
			t.Errorf("delivery %s: s2=%v but %d s2 orders", d.Key.StopName, d.Scenario2, d.Scenario2Orders)
		}
	}

	if a := byStop["A"]; !a.Scenario2 || a.Orders != 2 || a.Scenario2Orders != 1 {
		t.Errorf("stop A: expected compliant delivery of 2 orders with 1 compliant, got %+v", a)
	}
	if b := byStop["B"]; b.Scenario2 {
		t.Errorf("stop B: expected non-compliant delivery")
	}
}

func TestAggregateDeliveries_FirstValuesFollowPlannedOrder(t *testing.T) {
	in := []records.OrderRecord{
		rec("R1", "A", "Z41102", "4", "08:00", "10:00", "09:10", "09:40"),
		rec("R1", "A", "Z41102", "4", "08:00", "10:00", "09:00", ""),
		rec("R1", "A", "Z41102", "4", "08:00", "10:00", "", "09:20"),
	}
	orders, _ := Prepare(in, Options{})
	d := AggregateDeliveries(orders, ByStop)[0]

	if got := timeofday.FormatInstant(d.PlannedArrival); got != "09:00" {
		t.Errorf("first planned = %s, want 09:00", got)
	}
	// 09:00 has no actual, so the next order in planned order supplies it.
	if got := timeofday.FormatInstant(d.ActualArrival); got != "09:40" {
		t.Errorf("first actual = %s, want 09:40", got)
	}
}

func TestAggregateStops_BlockFallback(t *testing.T) {
	explicit := rec("R1", "A", "C", "4", "08:00", "10:00", "09:00", "09:10")
	explicit.ActualDeparture = "09:40"
	explicit.ActualDuration = ptr(12)
	explicit.PlannedDuration = ptr(10)

	derived := rec("R1", "B", "C", "4", "08:00", "10:00", "10:00", "10:05")
	derived.ActualDeparture = "10:30"

	missing := rec("R1", "C", "C", "4", "08:00", "10:00", "11:00", "")
	missing.ActualDeparture = "11:30"

	orders, _ := Prepare([]records.OrderRecord{explicit, derived, missing}, Options{})
	stops := AggregateStops(orders)

	got := map[string]Stop{}
	for _, s := range stops {
		got[s.StopName] = s
	}

	if s := got["A"]; s.ActualBlock == nil || *s.ActualBlock != 12 || s.ActualBlockDerived {
		t.Errorf("stop A: expected explicit block 12, got %+v", s.ActualBlock)
	}
	if s := got["B"]; s.ActualBlock == nil || *s.ActualBlock != 25 || !s.ActualBlockDerived {
		t.Errorf("stop B: expected derived block 25, got %+v", s.ActualBlock)
	}
	if s := got["C"]; s.ActualBlock != nil {
		t.Errorf("stop C: expected unknown block, got %v", *s.ActualBlock)
	}
}

func TestAnalyze_EmptyActivitySubset(t *testing.T) {
	in := []records.OrderRecord{rec("R1", "A", "Z41102", "9", "08:00", "10:00", "09:00", "09:30")}
	r := Analyze(in, Options{})

	if r.Summary.Orders != 0 || r.Summary.Scenario2OrdersPct != 0 {
		t.Errorf("expected zero summary, got %+v", r.Summary)
	}
	if r.Daily == nil || r.ByChannel == nil || r.LateWaitByStop == nil {
		t.Errorf("empty tables must be non-nil")
	}
}

func TestAnalyze_Tables(t *testing.T) {
	late := rec("R2", "B", "Z41103", "5", "08:00", "10:00", "09:00", "10:40")
	late.PlannedDuration = ptr(20)
	late.ActualDuration = ptr(55)

	in := []records.OrderRecord{
		rec("R1", "A", "Z41102", "4", "08:00", "10:00", "09:00", "09:30"),
		rec("R1", "A", "Z41102", "4", "08:00", "10:00", "09:00", "07:30"),
		late,
		rec("R3", "C", "X1", "6", "08:00", "10:00", "09:00", "12:00"),
	}
	r := Analyze(in, Options{})

	if r.Summary.Orders != 3 || r.Summary.Deliveries != 2 {
		t.Fatalf("expected 3 orders in 2 deliveries, got %+v", r.Summary)
	}
	if r.Summary.Scenario1Orders != 1 || r.Summary.Scenario2Orders != 2 {
		t.Errorf("unexpected order counts: %+v", r.Summary)
	}
	if r.Summary.Scenario2DelivPct != 50 {
		t.Errorf("s2 delivery pct = %v, want 50", r.Summary.Scenario2DelivPct)
	}
	if len(r.BottomRoutes) != 2 || r.BottomRoutes[0].RouteID != "R2" {
		t.Errorf("expected R2 as the worst route, got %+v", r.BottomRoutes)
	}
	if len(r.WaitBuckets) != 1 || r.WaitBuckets[0].Bucket != WaitSevere || r.WaitBuckets[0].SharePct != 100 {
		t.Errorf("unexpected wait buckets: %+v", r.WaitBuckets)
	}
	if len(r.LateWaitByStop) != 1 || *r.LateWaitByStop[0].AvgExtraWait != 35 {
		t.Errorf("unexpected late wait table: %+v", r.LateWaitByStop)
	}
	if len(r.ByChannel) != 2 {
		t.Errorf("expected 2 channels, got %+v", r.ByChannel)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	in := []records.OrderRecord{
		rec("R1", "A", "Z41102", "4", "08:00", "10:00", "09:00", "09:30"),
		rec("R1", "B", "Z41104", "4", "08:00", "10:00", "09:30", "10:30"),
		rec("R2", "C", "Z41105", "5", "08:00", "", "10:00", "10:30"),
	}
	snapshot := records.Clone(in)

	first, _ := json.Marshal(Analyze(in, Options{ToleranceMinutes: 5}))
	second, _ := json.Marshal(Analyze(in, Options{ToleranceMinutes: 5}))

	if !bytes.Equal(first, second) {
		t.Errorf("REGRESSION: recomputing the report changed its output")
	}
	a, _ := json.Marshal(in)
	b, _ := json.Marshal(snapshot)
	if !bytes.Equal(a, b) {
		t.Errorf("REGRESSION: Analyze modified its input")
	}
}

func TestWaitBucket(t *testing.T) {
	tests := []struct {
		extra *float64
		want  string
	}{
		{ptr(31), WaitSevere},
		{ptr(30), WaitModerate},
		{ptr(10.5), WaitModerate},
		{ptr(10), WaitLight},
		{ptr(0), WaitLight},
		{ptr(-1), WaitNone},
		{nil, WaitUnknown},
	}
	for _, tt := range tests {
		if got := WaitBucket(tt.extra); got != tt.want {
			t.Errorf("WaitBucket(%v) = %q, want %q", tt.extra, got, tt.want)
		}
	}
}

func TestPct_ZeroDenominator(t *testing.T) {
	if got := Pct(3, 0); got != 0 {
		t.Errorf("Pct(3, 0) = %v, want 0", got)
	}
	if got := Pct(1, 3); got != 33.33 {
		t.Errorf("Pct(1, 3) = %v, want 33.33", got)
	}
}
