package rca

import (
	"math"
	"slices"
	"sort"

	"jit-rca/internal/jit"
	"jit-rca/internal/records"
	"jit-rca/internal/timeofday"
)

// BandOnTime labels stops that were not late at all in the late-bucket table.
const BandOnTime = "0"

// StopDelay is the delay attribution of one stop against its predecessor in planned order.
type StopDelay struct {
	Date         string `json:"date"`
	RouteID      string `json:"route_id"`
	StopName     string `json:"stop_name"`
	ActivityCode string `json:"activity_code"`
	Orders       int    `json:"orders"`

	Planned     string `json:"planned_arrival"`
	Actual      string `json:"actual_arrival"`
	Departure   string `json:"actual_departure"`
	WindowUntil string `json:"window_until"`

	WaitMinutes *float64 `json:"wait_min"`
	LateMinutes *float64 `json:"late_min"`

	// Proxies are nil for the first stop of a route and when the predecessor's times are unknown.
	LateDepartureProxy *float64 `json:"late_departure_proxy_min"`
	TransitDelayProxy  *float64 `json:"transit_delay_proxy_min"`
	Attributed         bool     `json:"attributed"`
}

// RouteDecomposition sums the attribution over the attributed stops of one route-day and activity.
type RouteDecomposition struct {
	Date               string  `json:"date"`
	RouteID            string  `json:"route_id"`
	ActivityCode       string  `json:"activity_code"`
	Stops              int     `json:"stops"`
	TotalWait          float64 `json:"total_wait_min"`
	TotalLate          float64 `json:"total_late_min"`
	LateDepartureProxy float64 `json:"sum_late_departure_proxy_min"`
	TransitDelayProxy  float64 `json:"sum_transit_delay_proxy_min"`
}

// ActivityDay totals waits and lateness of one activity on one date.
type ActivityDay struct {
	Date         string  `json:"date"`
	ActivityCode string  `json:"activity_code"`
	Stops        int     `json:"stops"`
	Routes       int     `json:"routes"`
	TotalWait    float64 `json:"total_wait_min"`
	TotalLate    float64 `json:"total_late_min"`
}

// LateBucket counts distinct stops per lateness band.
type LateBucket struct {
	Date         string `json:"date"`
	ActivityCode string `json:"activity_code"`
	Band         string `json:"band"`
	Stops        int    `json:"stops"`
}

// Decomposition is the delay-driver analysis of a snapshot.
type Decomposition struct {
	Routes       []RouteDecomposition `json:"routes"`
	ActivityDays []ActivityDay        `json:"activity_days"`
	LateBuckets  []LateBucket         `json:"late_buckets"`
}

// Attribute orders the stops of every route-day by planned arrival and differences each stop
// against its predecessor. The predecessor's planned departure falls back to its planned arrival.
func Attribute(stops []jit.Stop) []StopDelay {
	sorted := make([]jit.Stop, len(stops))
	copy(sorted, stops)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.RouteID != b.RouteID {
			return a.RouteID < b.RouteID
		}
		if less, decided := timeofday.Before(a.PlannedArrival, b.PlannedArrival); decided {
			return less
		}
		return a.StopName < b.StopName
	})

	out := make([]StopDelay, 0, len(sorted))
	for i, s := range sorted {
		row := StopDelay{
			Date:         s.Date,
			RouteID:      s.RouteID,
			StopName:     s.StopName,
			ActivityCode: s.ActivityCode,
			Orders:       s.Orders,
			Planned:      timeofday.FormatShort(s.PlannedRaw),
			Actual:       timeofday.FormatShort(s.ActualRaw),
			Departure:    timeofday.FormatShort(s.DepartureRaw),
			WindowUntil:  timeofday.FormatShort(s.WindowUntilRaw),
			WaitMinutes:  s.WaitMinutes(),
			LateMinutes:  s.LateMinutes(),
		}

		if i > 0 && sorted[i-1].Date == s.Date && sorted[i-1].RouteID == s.RouteID {
			prev := sorted[i-1]
			prevPlanned := prev.PlannedDeparture
			if prevPlanned == nil {
				prevPlanned = prev.PlannedArrival
			}
			if prev.ActualDeparture != nil && prevPlanned != nil {
				row.Attributed = true
				row.LateDepartureProxy = timeofday.MinutesBetween(prev.ActualDeparture, prevPlanned)
				row.TransitDelayProxy = timeofday.Sub(
					timeofday.MinutesBetween(s.ActualArrival, prev.ActualDeparture),
					timeofday.MinutesBetween(s.PlannedArrival, prevPlanned),
				)
			}
		}
		out = append(out, row)
	}
	return out
}

func addKnown(sum *float64, v *float64) {
	if v != nil {
		*sum += *v
	}
}

// roundMinutes rounds minute totals to one decimal.
func roundMinutes(v float64) float64 {
	return timeofday.RoundTo(v, 1)
}

// Decompose runs the delay-driver analysis over every stop of the input.
func Decompose(in []records.OrderRecord, opts jit.Options) Decomposition {
	orders, _ := jit.Prepare(in, opts)
	delays := Attribute(jit.AggregateStops(orders))

	return Decomposition{
		Routes:       routeSums(delays),
		ActivityDays: activityDays(delays),
		LateBuckets:  lateBuckets(delays),
	}
}

func routeSums(delays []StopDelay) []RouteDecomposition {
	type key struct{ date, route, activity string }
	index := make(map[key]int)
	out := make([]RouteDecomposition, 0)

	for _, d := range delays {
		if !d.Attributed {
			continue
		}
		k := key{d.Date, d.RouteID, d.ActivityCode}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, RouteDecomposition{Date: k.date, RouteID: k.route, ActivityCode: k.activity})
		}
		r := &out[i]
		r.Stops++
		addKnown(&r.TotalWait, d.WaitMinutes)
		addKnown(&r.TotalLate, d.LateMinutes)
		addKnown(&r.LateDepartureProxy, d.LateDepartureProxy)
		addKnown(&r.TransitDelayProxy, d.TransitDelayProxy)
	}

	for i := range out {
		out[i].TotalWait = roundMinutes(out[i].TotalWait)
		out[i].TotalLate = roundMinutes(out[i].TotalLate)
		out[i].LateDepartureProxy = roundMinutes(out[i].LateDepartureProxy)
		out[i].TransitDelayProxy = roundMinutes(out[i].TransitDelayProxy)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LateDepartureProxy != b.LateDepartureProxy {
			return a.LateDepartureProxy > b.LateDepartureProxy
		}
		if a.TransitDelayProxy != b.TransitDelayProxy {
			return a.TransitDelayProxy > b.TransitDelayProxy
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.RouteID != b.RouteID {
			return a.RouteID < b.RouteID
		}
		return a.ActivityCode < b.ActivityCode
	})
	return out
}

func activityDays(delays []StopDelay) []ActivityDay {
	type key struct{ date, activity string }
	index := make(map[key]int)
	stops := make([]map[string]bool, 0)
	routes := make([]map[string]bool, 0)
	out := make([]ActivityDay, 0)

	for _, d := range delays {
		k := key{d.Date, d.ActivityCode}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, ActivityDay{Date: k.date, ActivityCode: k.activity})
			stops = append(stops, make(map[string]bool))
			routes = append(routes, make(map[string]bool))
		}
		stops[i][d.StopName] = true
		routes[i][d.RouteID] = true
		addKnown(&out[i].TotalWait, d.WaitMinutes)
		addKnown(&out[i].TotalLate, d.LateMinutes)
	}

	for i := range out {
		out[i].Stops = len(stops[i])
		out[i].Routes = len(routes[i])
		out[i].TotalWait = roundMinutes(out[i].TotalWait)
		out[i].TotalLate = roundMinutes(out[i].TotalLate)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].TotalWait != out[j].TotalWait {
			return out[i].TotalWait > out[j].TotalWait
		}
		return out[i].ActivityCode < out[j].ActivityCode
	})
	return out
}

// LateBand extends the severity bands with an on-time band for stops that were not late.
func LateBand(late *float64) string {
	if late != nil && *late == 0 {
		return BandOnTime
	}
	return Band(late)
}

func bandOrder(b string) int {
	if b == BandOnTime {
		return -1
	}
	if i := slices.Index(Bands, b); i >= 0 {
		return i
	}
	return math.MaxInt
}

func lateBuckets(delays []StopDelay) []LateBucket {
	type key struct{ date, activity, band string }
	names := make(map[key]map[string]bool)
	var keys []key

	for _, d := range delays {
		k := key{d.Date, d.ActivityCode, LateBand(d.LateMinutes)}
		if _, ok := names[k]; !ok {
			names[k] = make(map[string]bool)
			keys = append(keys, k)
		}
		names[k][d.StopName] = true
	}

	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.date != b.date {
			return a.date < b.date
		}
		if a.activity != b.activity {
			return a.activity < b.activity
		}
		return bandOrder(a.band) < bandOrder(b.band)
	})

	out := make([]LateBucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, LateBucket{Date: k.date, ActivityCode: k.activity, Band: k.band, Stops: len(names[k])})
	}
	return out
}

// Detail lists the stops of one date and activity, longest wait first; unknown waits last.
func Detail(in []records.OrderRecord, date, activity string, opts jit.Options) []StopDelay {
	f := records.Filter{DateFrom: date, DateTo: date, ActivityCode: activity}
	orders, _ := jit.Prepare(f.Apply(in), opts)
	delays := Attribute(jit.AggregateStops(orders))

	sort.SliceStable(delays, func(i, j int) bool {
		wi, wj := delays[i].WaitMinutes, delays[j].WaitMinutes
		switch {
		case wi != nil && wj != nil && *wi != *wj:
			return *wi > *wj
		case wi != nil && wj == nil:
			return true
		case wi == nil && wj != nil:
			return false
		}
		if delays[i].RouteID != delays[j].RouteID {
			return delays[i].RouteID < delays[j].RouteID
		}
		return delays[i].StopName < delays[j].StopName
	})
	return delays
}
