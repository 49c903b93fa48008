package transport

import (
	"sort"

	"jit-rca/internal/jit"
	"jit-rca/internal/records"
	"jit-rca/internal/timeofday"
)

// Route delay clusters.
const (
	ClusterDispatch   = "Planning/Dispatch"
	ClusterSequencing = "Sequencing / Route design"
	ClusterStable     = "Stable / On time"
)

// RouteProfile describes how arrival delay develops along one route-day.
type RouteProfile struct {
	Date       string   `json:"date"`
	RouteID    string   `json:"route_id"`
	Stops      int      `json:"stops"`
	StartDelay *float64 `json:"start_delay_min"`
	EndDelay   *float64 `json:"end_delay_min"`
	AvgDelay   *float64 `json:"avg_delay_min"`
	MaxDelay   *float64 `json:"max_delay_min"`
	Cluster    string   `json:"cluster"`
}

// ClassifyProfile names the dominant delay pattern. A late first stop points at dispatch; a
// punctual start with a large peak points at sequencing.
func ClassifyProfile(start, peak *float64) string {
	switch {
	case start != nil && *start > 10:
		return ClusterDispatch
	case start != nil && peak != nil && *peak > 15:
		return ClusterSequencing
	default:
		return ClusterStable
	}
}

// Profiles computes the arrival-delay profile of every route-day over its stops in planned order.
func Profiles(in []records.OrderRecord, opts jit.Options) []RouteProfile {
	orders, _ := jit.Prepare(in, opts)
	seq := Sequence(jit.AggregateStops(orders))

	index := make(map[routeDay]int)
	out := make([]RouteProfile, 0)
	sums := make([]float64, 0)
	counts := make([]int, 0)

	// seq is ordered by date, route and planned position.
	for _, s := range seq {
		k := routeDay{s.Date, s.RouteID}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, RouteProfile{Date: s.Date, RouteID: s.RouteID})
			sums = append(sums, 0)
			counts = append(counts, 0)
		}
		p := &out[i]
		p.Stops++
		if s.ArrivalDelta == nil {
			continue
		}
		// Start and end skip stops without an arrival.
		if p.StartDelay == nil {
			p.StartDelay = s.ArrivalDelta
		}
		p.EndDelay = s.ArrivalDelta
		sums[i] += *s.ArrivalDelta
		counts[i]++
		if p.MaxDelay == nil || *s.ArrivalDelta > *p.MaxDelay {
			v := *s.ArrivalDelta
			p.MaxDelay = &v
		}
	}

	for i := range out {
		if counts[i] > 0 {
			avg := timeofday.RoundTo(sums[i]/float64(counts[i]), 1)
			out[i].AvgDelay = &avg
		}
		out[i].Cluster = ClassifyProfile(out[i].StartDelay, out[i].MaxDelay)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].RouteID < out[j].RouteID
	})
	return out
}
