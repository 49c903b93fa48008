package visuals

import (
	"strings"
	"testing"

	"jit-rca/internal/jit"
	"jit-rca/internal/rca"
	"jit-rca/internal/rootcause"
)

func distribution() rca.Distribution {
	return rca.Distribution{
		Date:                 "2024-01-10",
		TotalDeliveries:      4,
		Outside:              3,
		CurrentCompliancePct: 25,
		Bands: []rca.BandShare{
			{Band: rca.Band0to15, Count: 1, Pct: 25, CumulativePct: 50},
			{Band: rca.Band15to30, Count: 0, Pct: 0, CumulativePct: 50},
			{Band: rca.Band30to45, Count: 0, Pct: 0, CumulativePct: 50},
			{Band: rca.Band45to60, Count: 0, Pct: 0, CumulativePct: 50},
			{Band: rca.Band60Plus, Count: 1, Pct: 25, CumulativePct: 75},
		},
		Unknown:    1,
		UnknownPct: 25,
	}
}

func TestSeverityChart(t *testing.T) {
	chart := SeverityChart(distribution())
	if !strings.HasPrefix(chart, "```mermaid\nxychart-beta") {
		t.Fatalf("unexpected chart header: %q", chart)
	}
	if !strings.Contains(chart, "bar [1, 0, 0, 0, 1, 1]") {
		t.Errorf("expected band counts with unknown last, got:\n%s", chart)
	}
	if !strings.Contains(chart, `"0–15"`) {
		t.Errorf("band labels must be quoted")
	}

	if SeverityChart(rca.Distribution{TotalDeliveries: 3}) != "" {
		t.Errorf("no outside deliveries, expected no chart")
	}
}

func TestCumulativeChart(t *testing.T) {
	chart := CumulativeChart(distribution())
	if !strings.Contains(chart, "line [25.0, 50.0, 50.0, 50.0, 50.0, 75.0]") {
		t.Errorf("unexpected series:\n%s", chart)
	}
	if !strings.Contains(chart, "20 --> 100") {
		t.Errorf("y-axis must start at the decade below current compliance:\n%s", chart)
	}
}

func TestParetoChart(t *testing.T) {
	if ParetoChart(nil) != "" {
		t.Errorf("expected no chart without rows")
	}
	chart := ParetoChart([]rootcause.ParetoRow{{Cluster: "Transport/Dispatch", Count: 3}, {Cluster: "Other", Count: 1}})
	if !strings.Contains(chart, "bar [3, 1]") {
		t.Errorf("unexpected chart:\n%s", chart)
	}
}

func TestOutsideTrendChart_Subsamples(t *testing.T) {
	days := make([]jit.OutsideDay, 130)
	for i := range days {
		days[i] = jit.OutsideDay{Date: "d", OutsidePct: 10}
	}
	chart := OutsideTrendChart(days)
	line := chart[strings.Index(chart, "line ["):]
	if n := strings.Count(line, ","); n+1 > maxPoints+1 {
		t.Errorf("expected at most %d points, got %d", maxPoints+1, n+1)
	}
}

func TestCompliancePie(t *testing.T) {
	chart := CompliancePie(jit.Summary{Deliveries: 10, Scenario1Deliveries: 6, Scenario2Deliveries: 8})
	for _, want := range []string{`"Inside window" : 6`, `"Early only" : 2`, `"Outside" : 2`} {
		if !strings.Contains(chart, want) {
			t.Errorf("missing %q in:\n%s", want, chart)
		}
	}
	if got := Unfence(chart); strings.Contains(got, "```") {
		t.Errorf("Unfence left a fence: %q", got)
	}
}
