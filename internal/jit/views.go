package jit

import (
	"sort"

	"jit-rca/internal/records"
	"jit-rca/internal/timeofday"
)

const (
	bottomRoutesLimit   = 10
	impactStopsLimit    = 15
	lateWaitStopsLimit  = 15
	percentDecimals     = 2
	waitMinutesDecimals = 1
)

// Wait buckets over the extra on-site time of late orders.
const (
	WaitSevere   = "severe wait >30 min"
	WaitModerate = "moderate wait 10–30 min"
	WaitLight    = "light wait 0–10 min"
	WaitNone     = "no extra wait / left early"
	WaitUnknown  = "unknown / missing wait time"
)

// Summary is the single-row headline of a compliance report.
type Summary struct {
	Orders              int     `json:"orders"`
	Scenario1Orders     int     `json:"s1_orders"`
	Scenario2Orders     int     `json:"s2_orders"`
	Scenario1OrdersPct  float64 `json:"s1_orders_pct"`
	Scenario2OrdersPct  float64 `json:"s2_orders_pct"`
	Deliveries          int     `json:"deliveries"`
	Scenario1Deliveries int     `json:"s1_deliveries"`
	Scenario2Deliveries int     `json:"s2_deliveries"`
	Scenario1DelivPct   float64 `json:"s1_deliveries_pct"`
	Scenario2DelivPct   float64 `json:"s2_deliveries_pct"`
}

// DailyRow merges delivery and order compliance for one date.
type DailyRow struct {
	Date                string  `json:"date"`
	Deliveries          int     `json:"deliveries"`
	Scenario1Deliveries int     `json:"s1_deliveries"`
	Scenario2Deliveries int     `json:"s2_deliveries"`
	Orders              int     `json:"orders"`
	Scenario1Orders     int     `json:"s1_orders"`
	Scenario2Orders     int     `json:"s2_orders"`
	Scenario1DelivPct   float64 `json:"s1_deliveries_pct"`
	Scenario2DelivPct   float64 `json:"s2_deliveries_pct"`
	Scenario1OrdersPct  float64 `json:"s1_orders_pct"`
	Scenario2OrdersPct  float64 `json:"s2_orders_pct"`
}

// GroupRow is delivery compliance for one activity code or channel.
type GroupRow struct {
	Group               string  `json:"group"`
	Deliveries          int     `json:"deliveries"`
	Scenario1Deliveries int     `json:"s1_deliveries"`
	Scenario2Deliveries int     `json:"s2_deliveries"`
	Scenario1DelivPct   float64 `json:"s1_deliveries_pct"`
	Scenario2DelivPct   float64 `json:"s2_deliveries_pct"`
}

// RouteRow is Scenario 2 delivery compliance of one route-day.
type RouteRow struct {
	Date                string  `json:"date"`
	RouteID             string  `json:"route_id"`
	Deliveries          int     `json:"deliveries"`
	Scenario2Deliveries int     `json:"s2_deliveries"`
	Scenario2DelivPct   float64 `json:"s2_deliveries_pct"`
}

// ImpactRow counts the Scenario 2 misses of one stop.
type ImpactRow struct {
	StopName        string  `json:"stop_name"`
	Deliveries      int     `json:"deliveries"`
	NonCompliant    int     `json:"non_compliant_deliveries"`
	NonCompliantPct float64 `json:"non_compliant_pct"`
}

// WaitBucketRow is the share of Scenario 2 late orders in one extra-wait bucket.
type WaitBucketRow struct {
	Bucket   string  `json:"bucket"`
	Count    int     `json:"count"`
	SharePct float64 `json:"share_pct"`
}

// LateWaitRow compares planned and actual on-site time of the late orders at one stop.
type LateWaitRow struct {
	StopName       string   `json:"stop_name"`
	LateOrders     int      `json:"late_orders"`
	AvgPlannedWait *float64 `json:"avg_planned_wait_min"`
	AvgActualWait  *float64 `json:"avg_actual_wait_min"`
	AvgExtraWait   *float64 `json:"avg_extra_wait_min"`
}

// Report holds every table of the compliance report.
type Report struct {
	Summary        Summary         `json:"summary"`
	Daily          []DailyRow      `json:"daily_overview"`
	ByActivity     []GroupRow      `json:"by_activity"`
	ByChannel      []GroupRow      `json:"by_channel"`
	BottomRoutes   []RouteRow      `json:"bottom_routes"`
	ImpactStops    []ImpactRow     `json:"impact_stops"`
	WaitBuckets    []WaitBucketRow `json:"root_cause_buckets"`
	LateWaitByStop []LateWaitRow   `json:"late_wait_by_stop"`
	Quality        Quality         `json:"data_quality"`
}

// Pct returns n/d as a percentage rounded to two decimals, or 0 when d is 0.
func Pct(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return timeofday.RoundTo(float64(n)/float64(d)*100, percentDecimals)
}

func emptyReport(q Quality) Report {
	return Report{
		Daily:          []DailyRow{},
		ByActivity:     []GroupRow{},
		ByChannel:      []GroupRow{},
		BottomRoutes:   []RouteRow{},
		ImpactStops:    []ImpactRow{},
		WaitBuckets:    []WaitBucketRow{},
		LateWaitByStop: []LateWaitRow{},
		Quality:        q,
	}
}

// Analyze builds the compliance report over the catalog's analysis activities.
// No matching record yields an empty report, not an error.
func Analyze(in []records.OrderRecord, opts Options) Report {
	prepared, _ := Prepare(in, opts)
	orders := AnalysisSubset(prepared, opts.catalog())
	q := qualityOf(orders)

	if len(orders) == 0 {
		return emptyReport(q)
	}

	deliveries := AggregateDeliveries(orders, ByWindow)

	report := emptyReport(q)
	report.Summary = summarize(orders, deliveries)
	report.Daily = dailyOverview(orders, deliveries)
	report.ByActivity = groupDeliveries(deliveries, func(d Delivery) string { return d.ActivityCode })
	sort.SliceStable(report.ByActivity, func(i, j int) bool {
		return report.ByActivity[i].Group < report.ByActivity[j].Group
	})
	report.ByChannel = groupDeliveries(deliveries, func(d Delivery) string { return d.Channel })
	sort.SliceStable(report.ByChannel, func(i, j int) bool {
		if report.ByChannel[i].Deliveries != report.ByChannel[j].Deliveries {
			return report.ByChannel[i].Deliveries > report.ByChannel[j].Deliveries
		}
		return report.ByChannel[i].Group < report.ByChannel[j].Group
	})
	report.BottomRoutes = bottomRoutes(deliveries)
	report.ImpactStops = impactStops(deliveries)
	report.WaitBuckets, report.LateWaitByStop = waitingRootCause(orders)

	return report
}

func qualityOf(orders []Order) Quality {
	var q Quality
	for _, o := range orders {
		q.Orders++
		if o.WindowFrom == nil || o.WindowUntil == nil {
			q.MissingWindow++
		}
		if o.PlannedArrival == nil {
			q.MissingPlannedArrival++
		}
		if o.ActualArrival == nil {
			q.MissingActualArrival++
		}
		if o.ActualDuration == nil {
			q.MissingActualDuration++
		}
		if o.Reason == "" {
			q.MissingReason++
		}
	}
	return q
}

func summarize(orders []Order, deliveries []Delivery) Summary {
	s := Summary{Orders: len(orders), Deliveries: len(deliveries)}
	for _, o := range orders {
		if o.Scenario1 {
			s.Scenario1Orders++
		}
		if o.Scenario2 {
			s.Scenario2Orders++
		}
	}
	for _, d := range deliveries {
		if d.Scenario1 {
			s.Scenario1Deliveries++
		}
		if d.Scenario2 {
			s.Scenario2Deliveries++
		}
	}
	s.Scenario1OrdersPct = Pct(s.Scenario1Orders, s.Orders)
	s.Scenario2OrdersPct = Pct(s.Scenario2Orders, s.Orders)
	s.Scenario1DelivPct = Pct(s.Scenario1Deliveries, s.Deliveries)
	s.Scenario2DelivPct = Pct(s.Scenario2Deliveries, s.Deliveries)
	return s
}

func dailyOverview(orders []Order, deliveries []Delivery) []DailyRow {
	byDate := make(map[string]*DailyRow)
	get := func(date string) *DailyRow {
		row, ok := byDate[date]
		if !ok {
			row = &DailyRow{Date: date}
			byDate[date] = row
		}
		return row
	}

	for _, d := range deliveries {
		row := get(d.Key.Date)
		row.Deliveries++
		if d.Scenario1 {
			row.Scenario1Deliveries++
		}
		if d.Scenario2 {
			row.Scenario2Deliveries++
		}
	}
	for _, o := range orders {
		row := get(o.Date)
		row.Orders++
		if o.Scenario1 {
			row.Scenario1Orders++
		}
		if o.Scenario2 {
			row.Scenario2Orders++
		}
	}

	out := make([]DailyRow, 0, len(byDate))
	for _, row := range byDate {
		row.Scenario1DelivPct = Pct(row.Scenario1Deliveries, row.Deliveries)
		row.Scenario2DelivPct = Pct(row.Scenario2Deliveries, row.Deliveries)
		row.Scenario1OrdersPct = Pct(row.Scenario1Orders, row.Orders)
		row.Scenario2OrdersPct = Pct(row.Scenario2Orders, row.Orders)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func groupDeliveries(deliveries []Delivery, keyOf func(Delivery) string) []GroupRow {
	index := make(map[string]int)
	out := make([]GroupRow, 0)

	for _, d := range deliveries {
		k := keyOf(d)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, GroupRow{Group: k})
		}
		out[i].Deliveries++
		if d.Scenario1 {
			out[i].Scenario1Deliveries++
		}
		if d.Scenario2 {
			out[i].Scenario2Deliveries++
		}
	}

	for i := range out {
		out[i].Scenario1DelivPct = Pct(out[i].Scenario1Deliveries, out[i].Deliveries)
		out[i].Scenario2DelivPct = Pct(out[i].Scenario2Deliveries, out[i].Deliveries)
	}
	return out
}

func bottomRoutes(deliveries []Delivery) []RouteRow {
	type key struct{ date, route string }
	index := make(map[key]int)
	out := make([]RouteRow, 0)

	for _, d := range deliveries {
		k := key{d.Key.Date, d.Key.RouteID}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, RouteRow{Date: k.date, RouteID: k.route})
		}
		out[i].Deliveries++
		if d.Scenario2 {
			out[i].Scenario2Deliveries++
		}
	}
	for i := range out {
		out[i].Scenario2DelivPct = Pct(out[i].Scenario2Deliveries, out[i].Deliveries)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Scenario2DelivPct != out[j].Scenario2DelivPct {
			return out[i].Scenario2DelivPct < out[j].Scenario2DelivPct
		}
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].RouteID < out[j].RouteID
	})
	if len(out) > bottomRoutesLimit {
		out = out[:bottomRoutesLimit]
	}
	return out
}

func impactStops(deliveries []Delivery) []ImpactRow {
	index := make(map[string]int)
	out := make([]ImpactRow, 0)

	for _, d := range deliveries {
		i, ok := index[d.Key.StopName]
		if !ok {
			i = len(out)
			index[d.Key.StopName] = i
			out = append(out, ImpactRow{StopName: d.Key.StopName})
		}
		out[i].Deliveries++
		if !d.Scenario2 {
			out[i].NonCompliant++
		}
	}
	for i := range out {
		out[i].NonCompliantPct = Pct(out[i].NonCompliant, out[i].Deliveries)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].NonCompliant != out[j].NonCompliant {
			return out[i].NonCompliant > out[j].NonCompliant
		}
		if out[i].NonCompliantPct != out[j].NonCompliantPct {
			return out[i].NonCompliantPct > out[j].NonCompliantPct
		}
		return out[i].StopName < out[j].StopName
	})
	if len(out) > impactStopsLimit {
		out = out[:impactStopsLimit]
	}
	return out
}

// WaitBucket classifies the extra on-site minutes of a late order.
func WaitBucket(extra *float64) string {
	switch {
	case extra == nil:
		return WaitUnknown
	case *extra > 30:
		return WaitSevere
	case *extra > 10:
		return WaitModerate
	case *extra >= 0:
		return WaitLight
	default:
		return WaitNone
	}
}

type waitAcc struct {
	late                   int
	planned, actual, extra []float64
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	m := timeofday.RoundTo(sum/float64(len(values)), waitMinutesDecimals)
	return &m
}

func waitingRootCause(orders []Order) ([]WaitBucketRow, []LateWaitRow) {
	buckets := make([]WaitBucketRow, 0)
	byStop := make([]LateWaitRow, 0)

	bucketIndex := make(map[string]int)
	stopIndex := make(map[string]int)
	var stopAcc []*waitAcc
	total := 0

	for _, o := range orders {
		if o.Scenario2 {
			continue
		}
		total++

		extra := timeofday.Sub(o.ActualDuration, o.PlannedDuration)
		b := WaitBucket(extra)
		i, ok := bucketIndex[b]
		if !ok {
			i = len(buckets)
			bucketIndex[b] = i
			buckets = append(buckets, WaitBucketRow{Bucket: b})
		}
		buckets[i].Count++

		j, ok := stopIndex[o.StopName]
		if !ok {
			j = len(byStop)
			stopIndex[o.StopName] = j
			byStop = append(byStop, LateWaitRow{StopName: o.StopName})
			stopAcc = append(stopAcc, &waitAcc{})
		}
		acc := stopAcc[j]
		acc.late++
		if o.PlannedDuration != nil {
			acc.planned = append(acc.planned, *o.PlannedDuration)
		}
		if o.ActualDuration != nil {
			acc.actual = append(acc.actual, *o.ActualDuration)
		}
		if extra != nil {
			acc.extra = append(acc.extra, *extra)
		}
	}

	for i := range buckets {
		buckets[i].SharePct = Pct(buckets[i].Count, total)
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Bucket < buckets[j].Bucket
	})

	for j := range byStop {
		acc := stopAcc[j]
		byStop[j].LateOrders = acc.late
		byStop[j].AvgPlannedWait = mean(acc.planned)
		byStop[j].AvgActualWait = mean(acc.actual)
		byStop[j].AvgExtraWait = mean(acc.extra)
	}
	sort.SliceStable(byStop, func(i, j int) bool {
		if byStop[i].LateOrders != byStop[j].LateOrders {
			return byStop[i].LateOrders > byStop[j].LateOrders
		}
		ei, ej := byStop[i].AvgExtraWait, byStop[j].AvgExtraWait
		switch {
		case ei != nil && ej != nil && *ei != *ej:
			return *ei > *ej
		case ei != nil && ej == nil:
			return true
		case ei == nil && ej != nil:
			return false
		}
		return byStop[i].StopName < byStop[j].StopName
	})
	if len(byStop) > lateWaitStopsLimit {
		byStop = byStop[:lateWaitStopsLimit]
	}

	return buckets, byStop
}
