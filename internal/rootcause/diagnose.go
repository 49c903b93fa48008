package rootcause

import (
	"fmt"
	"sort"

	"jit-rca/internal/catalog"
	"jit-rca/internal/jit"
	"jit-rca/internal/records"
)

// NoIssuesMessage is reported when nothing was late.
const NoIssuesMessage = "No issues detected; KPI meets SLA."

// Issue bases select which orders count as non-compliant.
const (
	BasisScenario2 = "s2"
	BasisKPI       = "kpi"
)

// Issue is one non-compliant order as seen by the diagnoser.
type Issue struct {
	CustomerID string
	RouteID    string
	StopName   string
	Reason     string
}

// ParetoRow is the count and share of one cause cluster.
type ParetoRow struct {
	Cluster  string  `json:"cluster"`
	Count    int     `json:"count"`
	SharePct float64 `json:"share_pct"`
}

// SegmentRow is the count and share of one customer, route and stop combination.
type SegmentRow struct {
	CustomerID string  `json:"customer_id"`
	RouteID    string  `json:"route_id"`
	StopName   string  `json:"stop_name"`
	Count      int     `json:"count"`
	SharePct   float64 `json:"share_pct"`
}

// Diagnosis groups a set of issues by cause cluster and by segment.
type Diagnosis struct {
	Issues   int          `json:"issues"`
	Pareto   []ParetoRow  `json:"pareto"`
	Segments []SegmentRow `json:"segments"`
	Message  string       `json:"message,omitempty"`
}

// Scenario2Issues returns the orders that missed the Scenario 2 window.
func Scenario2Issues(orders []jit.Order) []Issue {
	var out []Issue
	for _, o := range orders {
		if !o.Scenario2 {
			out = append(out, issueOf(o))
		}
	}
	return out
}

// KPIIssues returns the orders that were not on time against planned arrival.
func KPIIssues(orders []jit.Order, toleranceMinutes int) []Issue {
	var out []Issue
	for _, o := range orders {
		if !jit.OnTime(o, toleranceMinutes) {
			out = append(out, issueOf(o))
		}
	}
	return out
}

func issueOf(o jit.Order) Issue {
	return Issue{CustomerID: o.CustomerID, RouteID: o.RouteID, StopName: o.StopName, Reason: o.Reason}
}

// Diagnose builds the Pareto of cause clusters and the segment table. Both are sorted by count
// descending; shares are rounded to 2 dp and sum to 100 within rounding.
func Diagnose(issues []Issue, cat *catalog.Catalog) Diagnosis {
	if cat == nil {
		cat = catalog.Default()
	}
	d := Diagnosis{Issues: len(issues), Pareto: []ParetoRow{}, Segments: []SegmentRow{}}
	if len(issues) == 0 {
		d.Message = NoIssuesMessage
		return d
	}

	clusters := make(map[string]int)
	type segKey struct{ customer, route, stop string }
	segments := make(map[segKey]int)
	for _, is := range issues {
		clusters[cat.Cluster(is.Reason)]++
		segments[segKey{is.CustomerID, is.RouteID, is.StopName}]++
	}

	for c, n := range clusters {
		d.Pareto = append(d.Pareto, ParetoRow{Cluster: c, Count: n, SharePct: jit.Pct(n, len(issues))})
	}
	sort.Slice(d.Pareto, func(i, j int) bool {
		if d.Pareto[i].Count != d.Pareto[j].Count {
			return d.Pareto[i].Count > d.Pareto[j].Count
		}
		return d.Pareto[i].Cluster < d.Pareto[j].Cluster
	})

	for k, n := range segments {
		d.Segments = append(d.Segments, SegmentRow{
			CustomerID: k.customer,
			RouteID:    k.route,
			StopName:   k.stop,
			Count:      n,
			SharePct:   jit.Pct(n, len(issues)),
		})
	}
	sort.Slice(d.Segments, func(i, j int) bool {
		a, b := d.Segments[i], d.Segments[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.CustomerID != b.CustomerID {
			return a.CustomerID < b.CustomerID
		}
		if a.RouteID != b.RouteID {
			return a.RouteID < b.RouteID
		}
		return a.StopName < b.StopName
	})
	return d
}

// Result is a diagnosis together with the action plan derived from it.
type Result struct {
	Basis     string    `json:"basis"`
	Diagnosis Diagnosis `json:"diagnosis"`
	Plan      Plan      `json:"action_plan"`
}

// Analyze selects the issues for basis, diagnoses them and plans actions toward the target.
// The Scenario 2 basis works on the analysis activity subset and measures order compliance;
// the KPI basis works on every order and measures the on-time rate.
func Analyze(in []records.OrderRecord, basis string, params Params, opts jit.Options) (Result, error) {
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	orders, _ := jit.Prepare(in, opts)

	var (
		issues  []Issue
		current float64
	)
	switch basis {
	case "", BasisScenario2:
		basis = BasisScenario2
		subset := jit.AnalysisSubset(orders, cat)
		issues = Scenario2Issues(subset)
		current = jit.Pct(len(subset)-len(issues), len(subset))
	case BasisKPI:
		issues = KPIIssues(orders, max(opts.ToleranceMinutes, 0))
		current = jit.Pct(len(orders)-len(issues), len(orders))
	default:
		return Result{}, fmt.Errorf("unknown issue basis %q", basis)
	}

	d := Diagnose(issues, cat)
	params.CurrentPct = current
	return Result{Basis: basis, Diagnosis: d, Plan: BuildPlan(d, params, cat)}, nil
}
