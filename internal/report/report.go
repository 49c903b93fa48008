package report

import (
	"context"
	"fmt"
	"sort"

	"jit-rca/internal/jit"
	"jit-rca/internal/rca"
	"jit-rca/internal/records"
	"jit-rca/internal/rootcause"
	"jit-rca/internal/transport"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Params select the records and parameters of one report run.
type Params struct {
	Filter  records.Filter   `json:"filter"`
	Options jit.Options      `json:"-"`
	Planner rootcause.Params `json:"-"`
	Basis   string           `json:"basis,omitempty"`
}

// Result carries every view of a run plus the flattened tables.
type Result struct {
	Tolerance     int                       `json:"tolerance_minutes"`
	Compliance    jit.Report                `json:"compliance"`
	Outside       []jit.OutsideDay          `json:"outside_daily"`
	Decomposition rca.Decomposition         `json:"decomposition"`
	Distributions []rca.Distribution        `json:"distributions"`
	Transport     []transport.RouteOverview `json:"transport"`
	Profiles      []transport.RouteProfile  `json:"route_profiles"`
	Sequence      []transport.StopSequence  `json:"sequence"`
	RootCause     rootcause.Result          `json:"root_cause"`
	Tables        []Table                   `json:"tables"`
}

// BandRow is one line of the flattened severity distribution.
type BandRow struct {
	Date                 string  `json:"date"`
	ActivityCode         string  `json:"activity_code"`
	TotalDeliveries      int     `json:"total_deliveries"`
	CurrentCompliancePct float64 `json:"current_compliance_pct"`
	Band                 string  `json:"band"`
	Count                int     `json:"count"`
	Pct                  float64 `json:"pct"`
	CumulativePct        float64 `json:"cumulative_compliance_pct"`
}

// FlattenDistributions lists every band of every group, the unknown band last per group.
func FlattenDistributions(dists []rca.Distribution) []BandRow {
	out := make([]BandRow, 0, len(dists)*(len(rca.Bands)+1))
	for _, d := range dists {
		base := BandRow{
			Date:                 d.Date,
			ActivityCode:         d.ActivityCode,
			TotalDeliveries:      d.TotalDeliveries,
			CurrentCompliancePct: d.CurrentCompliancePct,
		}
		for _, b := range d.Bands {
			row := base
			row.Band, row.Count, row.Pct, row.CumulativePct = b.Band, b.Count, b.Pct, b.CumulativePct
			out = append(out, row)
		}
		row := base
		row.Band, row.Count, row.Pct = rca.BandUnknown, d.Unknown, d.UnknownPct
		out = append(out, row)
	}
	return out
}

// Build filters the snapshot once and computes the independent views concurrently.
// The snapshot is only read. The views themselves are not interruptible; ctx is checked
// before they start.
func Build(ctx context.Context, in []records.OrderRecord, p Params) (*Result, error) {
	snapshot := p.Filter.Apply(in)
	res := &Result{Tolerance: max(p.Options.ToleranceMinutes, 0)}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var g errgroup.Group

	g.Go(func() error {
		res.Compliance = jit.Analyze(snapshot, p.Options)
		return nil
	})
	g.Go(func() error {
		stops := jit.OutsideStops(snapshot, p.Options)
		res.Outside = jit.OutsideDaily(stops)
		res.Distributions = rca.Distributions(stops, false)
		return nil
	})
	g.Go(func() error {
		res.Decomposition = rca.Decompose(snapshot, p.Options)
		return nil
	})
	g.Go(func() error {
		res.Transport = transport.Overview(snapshot, p.Options)
		res.Profiles = transport.Profiles(snapshot, p.Options)
		orders, _ := jit.Prepare(snapshot, p.Options)
		res.Sequence = transport.Sequence(jit.AggregateStops(orders))
		return nil
	})
	g.Go(func() error {
		rc, err := rootcause.Analyze(snapshot, p.Basis, p.Planner, p.Options)
		if err != nil {
			return fmt.Errorf("root cause: %w", err)
		}
		res.RootCause = rc
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Tables = res.tables()
	log.Debug().
		Int("records", len(snapshot)).
		Int("tolerance", res.Tolerance).
		Int("missingActual", res.Compliance.Quality.MissingActualArrival).
		Msg("Report built")
	return res, nil
}

func (r *Result) tables() []Table {
	c := r.Compliance
	return []Table{
		TableOf("summary", []jit.Summary{c.Summary}),
		TableOf("daily_overview", c.Daily),
		TableOf("by_activity", c.ByActivity),
		TableOf("by_channel", c.ByChannel),
		TableOf("bottom_routes", c.BottomRoutes),
		TableOf("impact_stops", c.ImpactStops),
		TableOf("root_cause_buckets", c.WaitBuckets),
		TableOf("late_wait_by_stop", c.LateWaitByStop),
		TableOf("outside_daily", r.Outside),
		TableOf("route_decomposition", r.Decomposition.Routes),
		TableOf("activity_days", r.Decomposition.ActivityDays),
		TableOf("late_buckets", r.Decomposition.LateBuckets),
		TableOf("bucket_distribution", FlattenDistributions(r.Distributions)),
		TableOf("transport_overview", r.Transport),
		TableOf("route_profiles", r.Profiles),
		TableOf("sequence_block_detail", r.Sequence),
		TableOf("pareto", r.RootCause.Diagnosis.Pareto),
		TableOf("segments", r.RootCause.Diagnosis.Segments),
		TableOf("action_plan", r.RootCause.Plan.Actions),
		TableOf("data_quality", []jit.Quality{c.Quality}),
	}
}

// Table returns the named table of the result.
func (r *Result) Table(name string) (Table, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Comparison is the headline of one tolerance setting.
type Comparison struct {
	ToleranceMinutes   int     `json:"tolerance_minutes"`
	Deliveries         int     `json:"deliveries"`
	Scenario1DelivPct  float64 `json:"s1_deliveries_pct"`
	Scenario2DelivPct  float64 `json:"s2_deliveries_pct"`
	Scenario2OrdersPct float64 `json:"s2_orders_pct"`
	OutsideStops       int     `json:"outside_stops"`
	NeededLift         float64 `json:"needed_lift"`
	TopCluster         string  `json:"top_cluster"`
	ProjectedAllFixed  float64 `json:"projected_all_known_fixed_pct"`
	UnknownSeverityPct float64 `json:"unknown_severity_pct"`
}

// Compare builds one report per tolerance, at most limit at a time, and returns the headlines
// in ascending tolerance order.
func Compare(ctx context.Context, in []records.OrderRecord, base Params, tolerances []int, limit int) ([]Comparison, error) {
	out := make([]Comparison, len(tolerances))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, tol := range tolerances {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := base
			p.Options.ToleranceMinutes = tol
			res, err := Build(ctx, in, p)
			if err != nil {
				return fmt.Errorf("tolerance %d: %w", tol, err)
			}
			out[i] = headline(tol, res)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ToleranceMinutes < out[j].ToleranceMinutes })
	return out, nil
}

func headline(tol int, res *Result) Comparison {
	s := res.Compliance.Summary
	c := Comparison{
		ToleranceMinutes:   tol,
		Deliveries:         s.Deliveries,
		Scenario1DelivPct:  s.Scenario1DelivPct,
		Scenario2DelivPct:  s.Scenario2DelivPct,
		Scenario2OrdersPct: s.Scenario2OrdersPct,
		NeededLift:         res.RootCause.Plan.NeededLift,
	}
	for _, d := range res.Outside {
		c.OutsideStops += d.OutsideStops
	}
	if p := res.RootCause.Diagnosis.Pareto; len(p) > 0 {
		c.TopCluster = p[0].Cluster
	}

	// Pooled over all days of the run.
	total, unknown := 0, 0
	for _, d := range res.Distributions {
		total += d.TotalDeliveries
		unknown += d.Unknown
	}
	c.ProjectedAllFixed = jit.Pct(total-unknown, total)
	c.UnknownSeverityPct = jit.Pct(unknown, total)
	return c
}
