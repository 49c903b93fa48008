package jit

import (
	"sort"

	"jit-rca/internal/records"
	"jit-rca/internal/timeofday"
)

// OutsideStop is the Scenario 2 view of one stop: outside when the earliest arrival is after the
// window end, or when either is unknown.
type OutsideStop struct {
	Date         string   `json:"date"`
	RouteID      string   `json:"route_id"`
	StopName     string   `json:"stop_name"`
	ActivityCode string   `json:"activity_code"`
	Orders       int      `json:"orders"`
	Planned      string   `json:"planned_arrival"`
	Actual       string   `json:"actual_arrival"`
	WindowUntil  string   `json:"window_until"`
	LateMinutes  *float64 `json:"late_minutes"`
	Outside      bool     `json:"outside"`
}

// OutsideDay counts stops outside the window for one date.
type OutsideDay struct {
	Date          string  `json:"date"`
	Stops         int     `json:"stops"`
	DistinctStops int     `json:"distinct_stops"`
	OutsideStops  int     `json:"outside_stops"`
	OutsidePct    float64 `json:"outside_pct"`
}

// OutsideStops builds the stop-level outside view, ordered by date, route and stop.
func OutsideStops(in []records.OrderRecord, opts Options) []OutsideStop {
	orders, _ := Prepare(in, opts)
	return outsideFromStops(AggregateStops(orders), opts.tolerance())
}

func outsideFromStops(stops []Stop, tol int) []OutsideStop {
	out := make([]OutsideStop, 0, len(stops))
	for _, s := range stops {
		out = append(out, OutsideStop{
			Date:         s.Date,
			RouteID:      s.RouteID,
			StopName:     s.StopName,
			ActivityCode: s.ActivityCode,
			Orders:       s.Orders,
			Planned:      timeofday.FormatShort(s.PlannedRaw),
			Actual:       timeofday.FormatShort(s.ActualRaw),
			WindowUntil:  timeofday.FormatShort(s.WindowUntilRaw),
			LateMinutes:  s.LateMinutes(),
			Outside:      IsOutside(s.WindowUntil, s.ActualArrival, tol),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].RouteID != out[j].RouteID {
			return out[i].RouteID < out[j].RouteID
		}
		return out[i].StopName < out[j].StopName
	})
	return out
}

// OutsideDaily counts stops and outside stops per date.
func OutsideDaily(stops []OutsideStop) []OutsideDay {
	index := make(map[string]int)
	names := make(map[string]map[string]bool)
	out := make([]OutsideDay, 0)

	for _, s := range stops {
		i, ok := index[s.Date]
		if !ok {
			i = len(out)
			index[s.Date] = i
			out = append(out, OutsideDay{Date: s.Date})
			names[s.Date] = make(map[string]bool)
		}
		out[i].Stops++
		names[s.Date][s.StopName] = true
		if s.Outside {
			out[i].OutsideStops++
		}
	}

	for i := range out {
		out[i].DistinctStops = len(names[out[i].Date])
		out[i].OutsidePct = Pct(out[i].OutsideStops, out[i].Stops)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// OutsidePoints lists the outside stops of one date, most late first; unknown lateness last.
// An empty activity keeps every activity.
func OutsidePoints(stops []OutsideStop, date, activity string) []OutsideStop {
	out := make([]OutsideStop, 0)
	for _, s := range stops {
		if !s.Outside || s.Date != date {
			continue
		}
		if activity != "" && s.ActivityCode != activity {
			continue
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		li, lj := out[i].LateMinutes, out[j].LateMinutes
		switch {
		case li != nil && lj != nil && *li != *lj:
			return *li > *lj
		case li != nil && lj == nil:
			return true
		case li == nil && lj != nil:
			return false
		}
		if out[i].RouteID != out[j].RouteID {
			return out[i].RouteID < out[j].RouteID
		}
		return out[i].StopName < out[j].StopName
	})
	return out
}
