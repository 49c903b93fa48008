package engine

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"jit-rca/internal/records"
)

// Scenarios understood by Generate.
const (
	ScenarioMild  = "mild"
	ScenarioChaos = "chaos"
	ScenarioDrift = "drift"
)

type GeneratorConfig struct {
	Scenario      string
	Days          int
	Routes        int
	StopsPerRoute int
	Seed          int64
	Start         time.Time
}

var (
	customers  = []string{"Z41102", "Z41103", "Z41104", "Z41105", "Z41108", "Z49999"}
	activities = []string{"4", "4", "5", "7"}
	reasons    = []string{"late_dispatch", "early_dispatch", "last_minute_change", "wms_tms_mismatch", "insufficient_stock", "picking_delay", "unknown", ""}
)

// profile holds the delay parameters of one route-day, in minutes.
type profile struct {
	departure   float64 // late departure from the depot
	transitSD   float64 // noise per leg
	drift       float64 // systematic gain per leg
	swanRate    float64 // share of stops with a long extra delay
	missingRate float64 // share of orders without actual times
	swapRate    float64 // share of route-days serving two stops out of order
}

func scenarioProfile(scenario string, day, days int, rng *rand.Rand) profile {
	switch scenario {
	case ScenarioChaos:
		p := profile{transitSD: 12, drift: 1.5, swanRate: 0.15, missingRate: 0.08, swapRate: 0.3}
		if rng.Float64() < 0.3 {
			p.departure = 10 + rng.Float64()*30
		}
		return p
	case ScenarioDrift:
		ratio := float64(day) / math.Max(1, float64(days-1))
		return profile{
			departure:   ratio * 15,
			transitSD:   5 + ratio*5,
			drift:       ratio * 3,
			swanRate:    0.02 + ratio*0.08,
			missingRate: 0.03,
			swapRate:    0.05 + ratio*0.2,
		}
	default:
		return profile{transitSD: 5, drift: 0.2, swanRate: 0.02, missingRate: 0.03, swapRate: 0.05}
	}
}

// Generate builds order records for every route-day of the configuration. The same seed
// yields the same records.
func Generate(cfg GeneratorConfig) ([]records.OrderRecord, error) {
	switch cfg.Scenario {
	case ScenarioMild, ScenarioChaos, ScenarioDrift:
	default:
		return nil, fmt.Errorf("unknown scenario %q (want mild, chaos or drift)", cfg.Scenario)
	}
	if cfg.Days <= 0 || cfg.Routes <= 0 || cfg.StopsPerRoute <= 0 {
		return nil, fmt.Errorf("days, routes and stops must be positive")
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Now().AddDate(0, 0, -cfg.Days)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	var out []records.OrderRecord

	for day := range cfg.Days {
		date := cfg.Start.AddDate(0, 0, day).Format(time.DateOnly)
		for r := range cfg.Routes {
			p := scenarioProfile(cfg.Scenario, day, cfg.Days, rng)
			out = append(out, route(rng, p, date, fmt.Sprintf("T%03d", r+1), r, cfg.StopsPerRoute)...)
		}
	}
	return out, nil
}

func route(rng *rand.Rand, p profile, date, routeID string, index, stops int) []records.OrderRecord {
	// Routes leave the depot between 05:00 and 07:00.
	depot := 300 + float64((index*17)%120)
	leg := 25 + float64(index%3)*5

	order := make([]int, stops)
	for i := range order {
		order[i] = i
	}
	if stops > 2 && rng.Float64() < p.swapRate {
		i := 1 + rng.Intn(stops-2)
		order[i], order[i+1] = order[i+1], order[i]
	}

	var out []records.OrderRecord
	actualClock := depot + p.departure

	for _, s := range order {
		planned := depot + leg*float64(s+1)
		plannedDur := 10 + float64(rng.Intn(15))
		actualDur := math.Max(3, plannedDur+rng.NormFloat64()*6)

		actualClock += leg + p.drift + rng.NormFloat64()*p.transitSD
		if rng.Float64() < p.swanRate {
			actualClock += 30 + rng.Float64()*60
		}
		arrival := actualClock
		actualClock += actualDur

		width := 30.0
		if s%4 == 0 {
			width = 15
		}
		stopName := fmt.Sprintf("%s-S%02d", routeID, s+1)
		activity := activities[(index+s)%len(activities)]

		for o := range 1 + rng.Intn(3) {
			rec := records.OrderRecord{
				Date:             date,
				RouteID:          routeID,
				CustomerID:       customers[(index+s+o)%len(customers)],
				ActivityCode:     activity,
				StopName:         stopName,
				WindowFrom:       clock(planned - width),
				WindowUntil:      clock(planned + width),
				PlannedArrival:   clock(planned),
				PlannedDeparture: clock(planned + plannedDur),
				PlannedDuration:  minutes(plannedDur),
			}
			if rng.Float64() >= p.missingRate {
				rec.ActualArrival = clock(arrival)
				rec.ActualDeparture = clock(arrival + actualDur)
				rec.ActualDuration = minutes(actualDur)
			}
			if arrival > planned+width {
				rec.Reason = reasons[rng.Intn(len(reasons))]
			}
			out = append(out, rec)
		}
	}
	return out
}

// clock formats minutes after midnight as HH:MM, clamped to the same day.
func clock(m float64) string {
	total := int(math.Round(m))
	total = max(0, min(total, 24*60-1))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func minutes(v float64) *float64 {
	r := math.Round(v*10) / 10
	return &r
}
