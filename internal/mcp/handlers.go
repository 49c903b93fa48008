package mcp

import (
	"context"
	"fmt"
	"time"

	"jit-rca/internal/jit"
	"jit-rca/internal/rca"
	"jit-rca/internal/report"
	"jit-rca/internal/rootcause"
	"jit-rca/internal/transport"
	"jit-rca/internal/visuals"
)

type ListDatasetsInput struct{}

type DatasetRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Records    int    `json:"records"`
	ImportedAt string `json:"imported_at"`
}

type ListDatasetsOutput struct {
	Datasets []DatasetRow `json:"datasets"`
}

func (s *Server) handleListDatasets(_ context.Context, _ ListDatasetsInput) (ListDatasetsOutput, error) {
	infos := s.store.List()
	out := ListDatasetsOutput{Datasets: make([]DatasetRow, 0, len(infos))}
	for _, i := range infos {
		out.Datasets = append(out.Datasets, DatasetRow{
			ID:         i.ID,
			Name:       i.Name,
			Records:    i.Records,
			ImportedAt: i.ImportedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

type ComplianceOutput struct {
	Dataset   string                 `json:"dataset"`
	Tolerance int                    `json:"tolerance_minutes"`
	Report    jit.Report             `json:"report"`
	Routes    []jit.RouteOverviewRow `json:"route_overview"`
	Chart     string                 `json:"chart,omitempty"`
}

func (s *Server) handleAnalyzeCompliance(_ context.Context, in Scope) (ComplianceOutput, error) {
	sel, err := s.resolve(in)
	if err != nil {
		return ComplianceOutput{}, err
	}

	out := ComplianceOutput{
		Dataset:   sel.datasetID,
		Tolerance: sel.opts.ToleranceMinutes,
		Report:    jit.Analyze(sel.records, sel.opts),
		Routes:    jit.RouteOverview(sel.records, sel.opts),
	}
	if s.settings.Charts {
		out.Chart = visuals.CompliancePie(out.Report.Summary)
	}
	return out, nil
}

type RouteDetailInput struct {
	Dataset          string `json:"dataset,omitempty" jsonschema:"dataset id or name, the most recent import when empty"`
	Date             string `json:"date" jsonschema:"service date, YYYY-MM-DD"`
	RouteID          string `json:"route_id" jsonschema:"route identifier"`
	ToleranceMinutes *int   `json:"tolerance_minutes,omitempty" jsonschema:"minutes added on both sides of every window"`
}

type RouteDetailOutput struct {
	Dataset    string                `json:"dataset"`
	Compliance jit.RouteDetail       `json:"compliance"`
	Transport  transport.RouteDetail `json:"transport"`
}

func (s *Server) handleRouteDetail(_ context.Context, in RouteDetailInput) (RouteDetailOutput, error) {
	if in.Date == "" || in.RouteID == "" {
		return RouteDetailOutput{}, fmt.Errorf("date and route_id are required")
	}
	sel, err := s.resolve(Scope{Dataset: in.Dataset, ToleranceMinutes: in.ToleranceMinutes})
	if err != nil {
		return RouteDetailOutput{}, err
	}

	return RouteDetailOutput{
		Dataset:    sel.datasetID,
		Compliance: jit.Route(sel.records, in.Date, in.RouteID, sel.opts),
		Transport:  transport.Route(sel.records, in.Date, in.RouteID, sel.opts),
	}, nil
}

type TransportOutput struct {
	Dataset  string                    `json:"dataset"`
	Routes   []transport.RouteOverview `json:"routes"`
	Profiles []transport.RouteProfile  `json:"profiles"`
}

func (s *Server) handleTransportOverview(_ context.Context, in Scope) (TransportOutput, error) {
	sel, err := s.resolve(in)
	if err != nil {
		return TransportOutput{}, err
	}
	return TransportOutput{
		Dataset:  sel.datasetID,
		Routes:   transport.Overview(sel.records, sel.opts),
		Profiles: transport.Profiles(sel.records, sel.opts),
	}, nil
}

type DelayDriversInput struct {
	Scope
	DetailDate string `json:"detail_date,omitempty" jsonschema:"date whose stops of activity_code are listed by wait, YYYY-MM-DD"`
}

type DelayDriversOutput struct {
	Dataset       string            `json:"dataset"`
	Decomposition rca.Decomposition `json:"decomposition"`
	Detail        []rca.StopDelay   `json:"detail,omitempty"`
}

func (s *Server) handleDelayDrivers(_ context.Context, in DelayDriversInput) (DelayDriversOutput, error) {
	if in.DetailDate != "" && in.ActivityCode == "" {
		return DelayDriversOutput{}, fmt.Errorf("detail_date needs activity_code")
	}
	sel, err := s.resolve(in.Scope)
	if err != nil {
		return DelayDriversOutput{}, err
	}

	out := DelayDriversOutput{
		Dataset:       sel.datasetID,
		Decomposition: rca.Decompose(sel.records, sel.opts),
	}
	if in.DetailDate != "" {
		out.Detail = rca.Detail(sel.records, in.DetailDate, in.ActivityCode, sel.opts)
	}
	return out, nil
}

type SeverityInput struct {
	Scope
	ByActivity bool   `json:"by_activity,omitempty" jsonschema:"one distribution per date and activity code instead of per date"`
	Date       string `json:"date,omitempty" jsonschema:"list the outside stops of this date, YYYY-MM-DD"`
}

type SeverityOutput struct {
	Dataset       string             `json:"dataset"`
	Distributions []rca.Distribution `json:"distributions"`
	Rows          []report.BandRow   `json:"rows"`
	OutsideDaily  []jit.OutsideDay   `json:"outside_daily"`
	OutsideStops  []jit.OutsideStop  `json:"outside_stops,omitempty"`
	Charts        []string           `json:"charts,omitempty"`
}

func (s *Server) handleSeverityBuckets(_ context.Context, in SeverityInput) (SeverityOutput, error) {
	sel, err := s.resolve(in.Scope)
	if err != nil {
		return SeverityOutput{}, err
	}

	stops := jit.OutsideStops(sel.records, sel.opts)
	dists := rca.Distributions(stops, in.ByActivity)
	out := SeverityOutput{
		Dataset:       sel.datasetID,
		Distributions: dists,
		Rows:          report.FlattenDistributions(dists),
		OutsideDaily:  jit.OutsideDaily(stops),
	}
	if in.Date != "" {
		out.OutsideStops = jit.OutsidePoints(stops, in.Date, in.ActivityCode)
	}
	if s.settings.Charts {
		charts := []string{visuals.OutsideTrendChart(out.OutsideDaily)}
		for _, d := range dists {
			charts = append(charts, visuals.SeverityChart(d), visuals.CumulativeChart(d))
		}
		for _, c := range charts {
			if c != "" {
				out.Charts = append(out.Charts, c)
			}
		}
	}
	return out, nil
}

type RootCausesInput struct {
	Scope
	Basis       string   `json:"basis,omitempty" jsonschema:"issue basis: s2 (default) or kpi"`
	TargetSLA   *float64 `json:"target_sla,omitempty" jsonschema:"target compliance percentage"`
	HorizonDays *int     `json:"horizon_days,omitempty" jsonschema:"days from today until the action deadline"`
}

type RootCausesOutput struct {
	Dataset string           `json:"dataset"`
	Result  rootcause.Result `json:"result"`
	Chart   string           `json:"chart,omitempty"`
}

func (s *Server) handleRootCauses(_ context.Context, in RootCausesInput) (RootCausesOutput, error) {
	if in.TargetSLA != nil && (*in.TargetSLA <= 0 || *in.TargetSLA > 100) {
		return RootCausesOutput{}, fmt.Errorf("target_sla must be in (0, 100], got %v", *in.TargetSLA)
	}
	sel, err := s.resolve(in.Scope)
	if err != nil {
		return RootCausesOutput{}, err
	}

	res, err := rootcause.Analyze(sel.records, in.Basis, s.planner(in.TargetSLA, in.HorizonDays), sel.opts)
	if err != nil {
		return RootCausesOutput{}, err
	}
	out := RootCausesOutput{Dataset: sel.datasetID, Result: res}
	if s.settings.Charts {
		out.Chart = visuals.ParetoChart(res.Diagnosis.Pareto)
	}
	return out, nil
}

type CompareInput struct {
	Scope
	Tolerances []int  `json:"tolerances" jsonschema:"tolerance values in minutes to compare"`
	Basis      string `json:"basis,omitempty" jsonschema:"root-cause basis: s2 (default) or kpi"`
}

type CompareOutput struct {
	Dataset string              `json:"dataset"`
	Rows    []report.Comparison `json:"rows"`
}

func (s *Server) handleCompareTolerances(ctx context.Context, in CompareInput) (CompareOutput, error) {
	if len(in.Tolerances) == 0 {
		return CompareOutput{}, fmt.Errorf("at least one tolerance is required")
	}
	for _, t := range in.Tolerances {
		if t < 0 {
			return CompareOutput{}, fmt.Errorf("tolerances must not be negative, got %d", t)
		}
	}
	sel, err := s.resolve(in.Scope)
	if err != nil {
		return CompareOutput{}, err
	}

	base := report.Params{
		Options: sel.opts,
		Planner: s.planner(nil, nil),
		Basis:   in.Basis,
	}
	rows, err := report.Compare(ctx, sel.records, base, in.Tolerances, s.settings.CompareLimit)
	if err != nil {
		return CompareOutput{}, err
	}
	return CompareOutput{Dataset: sel.datasetID, Rows: rows}, nil
}

type KPIInput struct {
	Scope
	GroupBy string `json:"group_by,omitempty" jsonschema:"date, route, activity, channel or customer"`
}

type KPIOutput struct {
	Dataset string        `json:"dataset"`
	KPI     jit.KPIResult `json:"kpi"`
}

func (s *Server) handleOnTimeKPI(_ context.Context, in KPIInput) (KPIOutput, error) {
	sel, err := s.resolve(in.Scope)
	if err != nil {
		return KPIOutput{}, err
	}
	kpi, err := jit.KPI(sel.records, in.GroupBy, sel.opts)
	if err != nil {
		return KPIOutput{}, err
	}
	return KPIOutput{Dataset: sel.datasetID, KPI: kpi}, nil
}

type WaitsInput struct {
	Scope
	StopName string `json:"stop_name,omitempty" jsonschema:"include the orders of this stop in the activity detail"`
}

type WaitsOutput struct {
	Dataset    string                `json:"dataset"`
	Activities []jit.WaitActivityRow `json:"activities"`
	Detail     *jit.WaitDetail       `json:"detail,omitempty"`
}

func (s *Server) handleWaitingTimes(_ context.Context, in WaitsInput) (WaitsOutput, error) {
	if in.StopName != "" && in.ActivityCode == "" {
		return WaitsOutput{}, fmt.Errorf("stop_name needs activity_code")
	}
	sel, err := s.resolve(in.Scope)
	if err != nil {
		return WaitsOutput{}, err
	}

	out := WaitsOutput{Dataset: sel.datasetID, Activities: jit.Waits(sel.records, sel.opts)}
	if in.ActivityCode != "" {
		d := jit.WaitsForActivity(sel.records, in.ActivityCode, in.StopName, sel.opts)
		out.Detail = &d
	}
	return out, nil
}
