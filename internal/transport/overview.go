package transport

import (
	"math"
	"sort"

	"jit-rca/internal/jit"
	"jit-rca/internal/records"
)

// RouteOverview summarizes sequencing, departure and block time of one route-day.
type RouteOverview struct {
	Date                string   `json:"date"`
	RouteID             string   `json:"route_id"`
	ActivityCode        string   `json:"activity_code"`
	Stops               int      `json:"stops"`
	SequenceMismatches  int      `json:"sequence_mismatches"`
	MaxAbsSequenceDelta int      `json:"max_abs_sequence_delta"`
	DepartureDelay      *float64 `json:"departure_delay_min"`
	PlannedBlockTotal   float64  `json:"planned_block_total_min"`
	ActualBlockTotal    float64  `json:"actual_block_total_min"`
	BlockDeltaTotal     float64  `json:"block_delta_total_min"`
}

// RouteDetail is the transport view of a single route-day.
type RouteDetail struct {
	Date           string         `json:"date"`
	RouteID        string         `json:"route_id"`
	DepartureDelay *float64       `json:"departure_delay_min"`
	Sequence       []StopSequence `json:"sequence"`
	Blocks         []StopSequence `json:"blocks"`
}

func groupOrders(orders []jit.Order) (map[routeDay][]jit.Order, []routeDay) {
	groups := make(map[routeDay][]jit.Order)
	var keys []routeDay
	for _, o := range orders {
		k := routeDay{o.Date, o.RouteID}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], o)
	}
	return groups, keys
}

// Overview computes one row per route-day, by date ascending and block overrun descending.
func Overview(in []records.OrderRecord, opts jit.Options) []RouteOverview {
	orders, _ := jit.Prepare(in, opts)
	groups, keys := groupOrders(orders)

	out := make([]RouteOverview, 0, len(keys))
	for _, k := range keys {
		group := groups[k]
		seq := Sequence(jit.AggregateStops(group))

		row := RouteOverview{
			Date:           k.date,
			RouteID:        k.route,
			ActivityCode:   jit.SortForAggregation(group)[0].ActivityCode,
			Stops:          len(seq),
			DepartureDelay: DepartureDelay(group),
		}
		for _, s := range seq {
			if s.SequenceDelta != 0 {
				row.SequenceMismatches++
			}
			if d := int(math.Abs(float64(s.SequenceDelta))); d > row.MaxAbsSequenceDelta {
				row.MaxAbsSequenceDelta = d
			}
			if s.PlannedBlock != nil {
				row.PlannedBlockTotal += *s.PlannedBlock
			}
			if s.ActualBlock != nil {
				row.ActualBlockTotal += *s.ActualBlock
			}
		}
		row.BlockDeltaTotal = row.ActualBlockTotal - row.PlannedBlockTotal
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].BlockDeltaTotal != out[j].BlockDeltaTotal {
			return out[i].BlockDeltaTotal > out[j].BlockDeltaTotal
		}
		return out[i].RouteID < out[j].RouteID
	})
	return out
}

// Route builds the sequence and block tables of one route-day. Blocks are ordered by block
// overrun descending with unknown deltas last.
func Route(in []records.OrderRecord, date, routeID string, opts jit.Options) RouteDetail {
	f := records.Filter{DateFrom: date, DateTo: date, RouteID: routeID}
	orders, _ := jit.Prepare(f.Apply(in), opts)
	seq := Sequence(jit.AggregateStops(orders))

	blocks := make([]StopSequence, len(seq))
	copy(blocks, seq)
	sort.SliceStable(blocks, func(i, j int) bool {
		bi, bj := blocks[i].BlockDelta, blocks[j].BlockDelta
		switch {
		case bi != nil && bj != nil:
			return *bi > *bj
		case bi != nil:
			return true
		default:
			return false
		}
	})

	return RouteDetail{
		Date:           date,
		RouteID:        records.NormalizeRouteID(routeID),
		DepartureDelay: DepartureDelay(orders),
		Sequence:       seq,
		Blocks:         blocks,
	}
}
