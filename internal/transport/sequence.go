package transport

import (
	"sort"
	"time"

	"jit-rca/internal/jit"
	"jit-rca/internal/timeofday"
)

// StopSequence compares the planned and executed order of one stop and its block times.
type StopSequence struct {
	Date         string `json:"date"`
	RouteID      string `json:"route_id"`
	StopName     string `json:"stop_name"`
	ActivityCode string `json:"activity_code"`
	Orders       int    `json:"orders"`

	Planned   string `json:"planned_arrival"`
	Actual    string `json:"actual_arrival"`
	Departure string `json:"actual_departure"`

	PlannedPosition int `json:"planned_position"`
	ActualPosition  int `json:"actual_position"`
	SequenceDelta   int `json:"sequence_delta"`
	// ActualArrivalMissing marks stops ranked last for lack of an arrival.
	ActualArrivalMissing bool `json:"actual_arrival_missing"`

	PlannedBlock       *float64 `json:"planned_block_min"`
	ActualBlock        *float64 `json:"actual_block_min"`
	ActualBlockDerived bool     `json:"actual_block_derived"`
	BlockDelta         *float64 `json:"block_delta_min"`
	ArrivalDelta       *float64 `json:"arrival_delta_min"`
}

type routeDay struct {
	date  string
	route string
}

// rank assigns 1-based positions by instant ascending, unknown last, ties on stop name.
func rank(stops []jit.Stop, at func(jit.Stop) *time.Time) map[string]int {
	idx := make([]int, len(stops))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		sa, sb := stops[idx[a]], stops[idx[b]]
		if less, decided := timeofday.Before(at(sa), at(sb)); decided {
			return less
		}
		return sa.StopName < sb.StopName
	})

	pos := make(map[string]int, len(stops))
	for p, i := range idx {
		pos[stops[i].StopName] = p + 1
	}
	return pos
}

// Sequence ranks the stops of every route-day by planned and by actual arrival.
// Rows come back by date, route and planned position.
func Sequence(stops []jit.Stop) []StopSequence {
	groups := make(map[routeDay][]jit.Stop)
	var keys []routeDay
	for _, s := range stops {
		k := routeDay{s.Date, s.RouteID}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], s)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return keys[i].route < keys[j].route
	})

	out := make([]StopSequence, 0, len(stops))
	for _, k := range keys {
		group := groups[k]
		planned := rank(group, func(s jit.Stop) *time.Time { return s.PlannedArrival })
		actual := rank(group, func(s jit.Stop) *time.Time { return s.ActualArrival })

		rows := make([]StopSequence, 0, len(group))
		for _, s := range group {
			row := StopSequence{
				Date:                 s.Date,
				RouteID:              s.RouteID,
				StopName:             s.StopName,
				ActivityCode:         s.ActivityCode,
				Orders:               s.Orders,
				Planned:              timeofday.FormatShort(s.PlannedRaw),
				Actual:               timeofday.FormatShort(s.ActualRaw),
				Departure:            timeofday.FormatShort(s.DepartureRaw),
				PlannedPosition:      planned[s.StopName],
				ActualPosition:       actual[s.StopName],
				SequenceDelta:        actual[s.StopName] - planned[s.StopName],
				ActualArrivalMissing: s.ActualArrival == nil,
				PlannedBlock:         s.PlannedBlock,
				ActualBlock:          s.ActualBlock,
				ActualBlockDerived:   s.ActualBlockDerived,
				BlockDelta:           timeofday.Sub(s.ActualBlock, s.PlannedBlock),
				ArrivalDelta:         timeofday.MinutesBetween(s.ActualArrival, s.PlannedArrival),
			}
			rows = append(rows, row)
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].PlannedPosition < rows[j].PlannedPosition })
		out = append(out, rows...)
	}
	return out
}

// DepartureDelay is the route-level departure delay: first known actual departure minus first
// known planned departure, in aggregation order. Nil when either is unknown.
func DepartureDelay(orders []jit.Order) *float64 {
	var planned, actual *time.Time
	for _, o := range jit.SortForAggregation(orders) {
		if planned == nil {
			planned = o.PlannedDeparture
		}
		if actual == nil {
			actual = o.ActualDeparture
		}
	}
	return timeofday.MinutesBetween(actual, planned)
}
