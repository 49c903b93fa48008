package jit

import (
	"sort"

	"jit-rca/internal/records"
	"jit-rca/internal/timeofday"
)

// WaitDelivery is the average actual on-site time of one delivery.
type WaitDelivery struct {
	Date         string  `json:"date"`
	RouteID      string  `json:"route_id"`
	ActivityCode string  `json:"activity_code"`
	StopName     string  `json:"stop_name"`
	AvgWait      float64 `json:"avg_wait_min"`
}

// WaitActivityRow sums delivery waits for one activity code.
type WaitActivityRow struct {
	ActivityCode       string  `json:"activity_code"`
	Deliveries         int     `json:"deliveries"`
	DistinctStops      int     `json:"distinct_stops"`
	TotalWait          float64 `json:"total_wait_min"`
	AvgWaitPerDelivery float64 `json:"avg_wait_per_delivery_min"`
}

// WaitStopRow sums delivery waits for one stop.
type WaitStopRow struct {
	StopName   string  `json:"stop_name"`
	Deliveries int     `json:"deliveries"`
	TotalWait  float64 `json:"total_wait_min"`
}

// WaitOrderRow is one order at a stop with its recorded wait.
type WaitOrderRow struct {
	Date        string   `json:"date"`
	RouteID     string   `json:"route_id"`
	CustomerID  string   `json:"customer_id"`
	Planned     string   `json:"planned_arrival"`
	Actual      string   `json:"actual_arrival"`
	Departure   string   `json:"actual_departure"`
	Wait        float64  `json:"wait_min"`
	PlannedWait *float64 `json:"planned_wait_min"`
}

// WaitDetail drills into one activity code.
type WaitDetail struct {
	ActivityCode string         `json:"activity_code"`
	Stops        []WaitStopRow  `json:"stops"`
	Deliveries   []WaitDelivery `json:"deliveries"`
	Orders       []WaitOrderRow `json:"orders,omitempty"`
}

// waitDeliveries averages the actual duration per (date, route, activity, stop). Orders without
// an actual duration are left out; the averages are not rounded.
func waitDeliveries(orders []Order) []WaitDelivery {
	type key struct{ date, route, activity, stop string }
	index := make(map[key]int)
	out := make([]WaitDelivery, 0)
	counts := make([]int, 0)

	for _, o := range orders {
		if o.ActualDuration == nil {
			continue
		}
		k := key{o.Date, o.RouteID, o.ActivityCode, o.StopName}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, WaitDelivery{Date: k.date, RouteID: k.route, ActivityCode: k.activity, StopName: k.stop})
			counts = append(counts, 0)
		}
		out[i].AvgWait += *o.ActualDuration
		counts[i]++
	}
	for i := range out {
		out[i].AvgWait /= float64(counts[i])
	}
	return out
}

// Waits summarizes on-site time per activity code, highest total first.
func Waits(in []records.OrderRecord, opts Options) []WaitActivityRow {
	orders, _ := Prepare(in, opts)
	deliveries := waitDeliveries(orders)

	index := make(map[string]int)
	stops := make([]map[string]bool, 0)
	out := make([]WaitActivityRow, 0)

	for _, d := range deliveries {
		i, ok := index[d.ActivityCode]
		if !ok {
			i = len(out)
			index[d.ActivityCode] = i
			out = append(out, WaitActivityRow{ActivityCode: d.ActivityCode})
			stops = append(stops, make(map[string]bool))
		}
		out[i].Deliveries++
		out[i].TotalWait += d.AvgWait
		stops[i][d.StopName] = true
	}

	for i := range out {
		out[i].DistinctStops = len(stops[i])
		if out[i].Deliveries > 0 {
			out[i].AvgWaitPerDelivery = timeofday.RoundTo(out[i].TotalWait/float64(out[i].Deliveries), waitMinutesDecimals)
		}
		out[i].TotalWait = timeofday.RoundTo(out[i].TotalWait, waitMinutesDecimals)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalWait != out[j].TotalWait {
			return out[i].TotalWait > out[j].TotalWait
		}
		return out[i].ActivityCode < out[j].ActivityCode
	})
	return out
}

// WaitsForActivity lists stop totals and delivery averages of one activity code. When stop is
// set, the orders of that stop are included too.
func WaitsForActivity(in []records.OrderRecord, activity, stop string, opts Options) WaitDetail {
	orders, _ := Prepare(records.Filter{ActivityCode: activity}.Apply(in), opts)
	deliveries := waitDeliveries(orders)

	detail := WaitDetail{
		ActivityCode: activity,
		Stops:        []WaitStopRow{},
		Deliveries:   deliveries,
	}

	index := make(map[string]int)
	for _, d := range deliveries {
		i, ok := index[d.StopName]
		if !ok {
			i = len(detail.Stops)
			index[d.StopName] = i
			detail.Stops = append(detail.Stops, WaitStopRow{StopName: d.StopName})
		}
		detail.Stops[i].Deliveries++
		detail.Stops[i].TotalWait += d.AvgWait
	}
	for i := range detail.Stops {
		detail.Stops[i].TotalWait = timeofday.RoundTo(detail.Stops[i].TotalWait, waitMinutesDecimals)
	}
	sort.SliceStable(detail.Stops, func(i, j int) bool {
		if detail.Stops[i].TotalWait != detail.Stops[j].TotalWait {
			return detail.Stops[i].TotalWait > detail.Stops[j].TotalWait
		}
		return detail.Stops[i].StopName < detail.Stops[j].StopName
	})

	for i := range detail.Deliveries {
		detail.Deliveries[i].AvgWait = timeofday.RoundTo(detail.Deliveries[i].AvgWait, waitMinutesDecimals)
	}
	sort.SliceStable(detail.Deliveries, func(i, j int) bool {
		a, b := detail.Deliveries[i], detail.Deliveries[j]
		if a.AvgWait != b.AvgWait {
			return a.AvgWait > b.AvgWait
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.RouteID != b.RouteID {
			return a.RouteID < b.RouteID
		}
		return a.StopName < b.StopName
	})

	if stop != "" {
		detail.Orders = stopWaitOrders(orders, stop)
	}
	return detail
}

func stopWaitOrders(orders []Order, stop string) []WaitOrderRow {
	atStop := make([]Order, 0)
	for _, o := range orders {
		if o.StopName == stop && o.ActualDuration != nil {
			atStop = append(atStop, o)
		}
	}

	sort.SliceStable(atStop, func(i, j int) bool {
		a, b := atStop[i], atStop[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.RouteID != b.RouteID {
			return a.RouteID < b.RouteID
		}
		if less, decided := timeofday.Before(a.PlannedArrival, b.PlannedArrival); decided {
			return less
		}
		less, _ := timeofday.Before(a.ActualArrival, b.ActualArrival)
		return less
	})

	out := make([]WaitOrderRow, 0, len(atStop))
	for _, o := range atStop {
		out = append(out, WaitOrderRow{
			Date:        o.Date,
			RouteID:     o.RouteID,
			CustomerID:  o.CustomerID,
			Planned:     timeofday.FormatShort(o.Source.PlannedArrival),
			Actual:      timeofday.FormatShort(o.Source.ActualArrival),
			Departure:   timeofday.FormatShort(o.Source.ActualDeparture),
			Wait:        *o.ActualDuration,
			PlannedWait: o.PlannedDuration,
		})
	}
	return out
}
