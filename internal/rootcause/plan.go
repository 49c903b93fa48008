package rootcause

import (
	"math"
	"sort"
	"time"

	"jit-rca/internal/catalog"
	"jit-rca/internal/timeofday"
)

// Planner defaults.
const (
	DefaultTargetSLA   = 97.0
	DefaultHorizonDays = 14
)

// Params are the inputs of the action planner. A zero Now means the current time.
type Params struct {
	CurrentPct  float64
	TargetSLA   float64
	HorizonDays int
	Now         time.Time
}

// Action is one prioritized remediation item.
type Action struct {
	Cluster  string  `json:"cluster"`
	Impact   float64 `json:"impact_pct_pts"`
	Action   string  `json:"action"`
	Owner    string  `json:"owner"`
	Deadline string  `json:"deadline"`
}

// Plan is the action list for closing the gap between current and target compliance.
type Plan struct {
	CurrentPct float64  `json:"current_pct"`
	TargetSLA  float64  `json:"target_sla"`
	NeededLift float64  `json:"needed_lift"`
	Actions    []Action `json:"actions"`
}

func (p Params) withDefaults() Params {
	if p.TargetSLA == 0 {
		p.TargetSLA = DefaultTargetSLA
	}
	if p.HorizonDays <= 0 {
		p.HorizonDays = DefaultHorizonDays
	}
	if p.Now.IsZero() {
		p.Now = time.Now()
	}
	return p
}

// BuildPlan proposes one action per Pareto cluster. Each impact is capped at the needed lift
// on its own; the sum over clusters is not capped.
func BuildPlan(d Diagnosis, params Params, cat *catalog.Catalog) Plan {
	if cat == nil {
		cat = catalog.Default()
	}
	p := params.withDefaults()
	deadline := p.Now.UTC().AddDate(0, 0, p.HorizonDays).Format(time.DateOnly)
	needed := math.Max(0, p.TargetSLA-p.CurrentPct)

	plan := Plan{
		CurrentPct: p.CurrentPct,
		TargetSLA:  p.TargetSLA,
		NeededLift: timeofday.RoundTo(needed, 2),
		Actions:    make([]Action, 0, len(d.Pareto)),
	}
	for _, row := range d.Pareto {
		s := cat.Suggest(row.Cluster)
		impact := math.Min(needed, s.ExpectedLift*row.SharePct/10)
		plan.Actions = append(plan.Actions, Action{
			Cluster:  row.Cluster,
			Impact:   timeofday.RoundTo(impact, 2),
			Action:   s.Action,
			Owner:    s.Owner,
			Deadline: deadline,
		})
	}

	sort.SliceStable(plan.Actions, func(i, j int) bool {
		return plan.Actions[i].Impact > plan.Actions[j].Impact
	})
	return plan
}
