package jit

import (
	"testing"

	"jit-rca/internal/records"
)

func TestOutsideStops(t *testing.T) {
	in := []records.OrderRecord{
		rec("R1", "A", "C", "4", "08:00", "10:00", "09:00", "09:30"),
		rec("R1", "B", "C", "4", "08:00", "10:00", "09:30", "10:15"),
		rec("R1", "C", "C", "4", "08:00", "10:00", "09:45", ""),
		rec("R2", "D", "C", "5", "08:00", "10:00", "09:00", "11:30"),
	}
	stops := OutsideStops(in, Options{})
	if len(stops) != 4 {
		t.Fatalf("expected 4 stops, got %d", len(stops))
	}

	byName := map[string]OutsideStop{}
	for _, s := range stops {
		byName[s.StopName] = s
		if s.LateMinutes != nil && *s.LateMinutes < 0 {
			t.Errorf("stop %s: late minutes must never be negative, got %v", s.StopName, *s.LateMinutes)
		}
	}

	if a := byName["A"]; a.Outside || a.LateMinutes == nil || *a.LateMinutes != 0 {
		t.Errorf("stop A: expected inside with 0 late minutes, got %+v", a)
	}
	if b := byName["B"]; !b.Outside || *b.LateMinutes != 15 {
		t.Errorf("stop B: expected outside by 15, got %+v", b)
	}
	if c := byName["C"]; !c.Outside || c.LateMinutes != nil {
		t.Errorf("stop C: expected outside with unknown lateness, got %+v", c)
	}

	daily := OutsideDaily(stops)
	if len(daily) != 1 || daily[0].Stops != 4 || daily[0].OutsideStops != 3 || daily[0].OutsidePct != 75 {
		t.Errorf("unexpected daily outside row: %+v", daily)
	}

	points := OutsidePoints(stops, "2024-01-10", "")
	if len(points) != 3 || points[0].StopName != "D" || points[2].StopName != "C" {
		t.Errorf("expected D, B, C ordering, got %+v", points)
	}
	if only := OutsidePoints(stops, "2024-01-10", "5"); len(only) != 1 {
		t.Errorf("expected the activity filter to keep 1 stop, got %d", len(only))
	}
}

func TestOutsideStops_Tolerance(t *testing.T) {
	in := []records.OrderRecord{rec("R1", "B", "C", "4", "08:00", "10:00", "09:30", "10:15")}

	stops := OutsideStops(in, Options{ToleranceMinutes: 15})
	if stops[0].Outside {
		t.Errorf("a 15 minute miss is inside a 15 minute tolerance")
	}
	if *stops[0].LateMinutes != 15 {
		t.Errorf("late minutes are measured against the window end, got %v", *stops[0].LateMinutes)
	}
}

func TestRouteOverview(t *testing.T) {
	var in []records.OrderRecord
	for i, actual := range []string{"09:00", "09:10", "09:20", "09:30", "09:40", "09:50", "10:00", "10:00", "10:00", "10:00", "10:00", "10:00", "10:00", "10:00", "10:00", "10:00", "10:00", "10:00", "10:00", "11:00"} {
		in = append(in, rec("R1", string(rune('A'+i)), "C", "4", "08:00", "10:00", "09:00", actual))
	}
	in = append(in, rec("R2", "X", "C", "7", "08:00", "10:00", "09:00", "09:00"))

	rows := RouteOverview(in, Options{})
	if len(rows) != 2 {
		t.Fatalf("expected 2 route-days, got %d", len(rows))
	}
	if rows[0].RouteID != "R1" || rows[0].Deliveries != 20 || rows[0].Scenario2DelivPct != 95 || rows[0].Health != HealthGood {
		t.Errorf("unexpected R1 row: %+v", rows[0])
	}
	if rows[1].Health != HealthGood {
		t.Errorf("route overview must include every activity, got %+v", rows[1])
	}
}

func TestHealthBand(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{92.99, HealthBad},
		{93, HealthWatch},
		{94.99, HealthWatch},
		{95, HealthGood},
		{100, HealthGood},
	}
	for _, tt := range tests {
		if got := HealthBand(tt.pct); got != tt.want {
			t.Errorf("HealthBand(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestRoute_Detail(t *testing.T) {
	in := []records.OrderRecord{
		rec("776907", "B", "Z41102", "4", "08:00", "10:00", "09:30", "07:45"),
		rec("776907.0", "A", "Z41102", "4", "08:00", "10:00", "09:00", "09:05:30"),
		rec("776907", "A", "Z41103", "4", "08:00", "10:00", "09:00", "10:30"),
		rec("111", "Z", "Z41102", "4", "08:00", "10:00", "09:00", "09:00"),
	}
	d := Route(in, "2024-01-10", "776907", Options{})

	if len(d.Orders) != 3 || len(d.Deliveries) != 2 {
		t.Fatalf("expected 3 orders in 2 deliveries, got %d / %d", len(d.Orders), len(d.Deliveries))
	}
	if d.Deliveries[0].StopName != "A" || d.Deliveries[0].Orders != 2 || !d.Deliveries[0].Scenario1 {
		t.Errorf("unexpected first delivery: %+v", d.Deliveries[0])
	}

	statuses := map[string]int{}
	for _, o := range d.Orders {
		statuses[o.Status]++
	}
	if statuses[StatusScenario1] != 1 || statuses[StatusS2Only] != 1 || statuses[StatusOutside] != 1 {
		t.Errorf("unexpected statuses: %v", statuses)
	}
	if d.Deliveries[0].Actual != "09:05" {
		t.Errorf("display times are short, got %q", d.Deliveries[0].Actual)
	}

	if empty := Route(in, "2024-01-11", "776907", Options{}); len(empty.Orders) != 0 || empty.Deliveries == nil {
		t.Errorf("an unknown route-day yields empty, non-nil tables")
	}
}

func TestKPI(t *testing.T) {
	in := []records.OrderRecord{
		rec("R1", "A", "C", "4", "", "", "09:00", "09:00"),
		rec("R1", "B", "C", "4", "", "", "09:00", "09:05"),
		rec("R2", "C", "C", "5", "", "", "09:00", ""),
		rec("R2", "D", "C", "5", "", "", "", "09:00"),
	}

	res, err := KPI(in, GroupByRoute, Options{ToleranceMinutes: 5})
	if err != nil {
		t.Fatalf("KPI: %v", err)
	}
	if res.Overall.Orders != 4 || res.Overall.OnTime != 2 || res.Overall.KPIPct != 50 {
		t.Errorf("unexpected overall KPI: %+v", res.Overall)
	}
	if len(res.Detail) != 2 || res.Detail[0].KPIPct != 100 || res.Detail[1].KPIPct != 0 {
		t.Errorf("unexpected KPI detail: %+v", res.Detail)
	}

	if _, err := KPI(in, "planet", Options{}); err == nil {
		t.Errorf("expected an error for an unknown grouping")
	}
}

func TestWaits(t *testing.T) {
	a := rec("R1", "A", "C", "4", "", "", "09:00", "09:00")
	a.ActualDuration = ptr(10)
	b := rec("R1", "A", "C", "4", "", "", "09:00", "09:00")
	b.ActualDuration = ptr(20)
	c := rec("R2", "B", "C", "4", "", "", "09:00", "09:00")
	c.ActualDuration = ptr(30)
	d := rec("R3", "B", "C", "5", "", "", "09:00", "09:00")

	rows := Waits([]records.OrderRecord{a, b, c, d}, Options{})
	if len(rows) != 1 {
		t.Fatalf("orders without a wait are left out, got %+v", rows)
	}
	if rows[0].Deliveries != 2 || rows[0].DistinctStops != 2 || rows[0].TotalWait != 45 || rows[0].AvgWaitPerDelivery != 22.5 {
		t.Errorf("unexpected wait row: %+v", rows[0])
	}

	detail := WaitsForActivity([]records.OrderRecord{a, b, c, d}, "4", "A", Options{})
	if len(detail.Stops) != 2 || detail.Stops[0].StopName != "B" {
		t.Errorf("expected B to lead with 30 minutes, got %+v", detail.Stops)
	}
	if len(detail.Orders) != 2 {
		t.Errorf("expected 2 orders at stop A, got %d", len(detail.Orders))
	}
}
