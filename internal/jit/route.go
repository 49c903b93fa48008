package jit

import (
	"sort"

	"jit-rca/internal/records"
	"jit-rca/internal/timeofday"
)

// Route health bands by Scenario 2 delivery percentage.
const (
	HealthBad   = "bad"
	HealthWatch = "watch"
	HealthGood  = "good"
)

// Order row status in a route detail.
const (
	StatusScenario1 = "s1"
	StatusS2Only    = "s2_only"
	StatusOutside   = "outside"
)

// RouteOverviewRow is the compliance of one route-day, with deliveries keyed by stop.
type RouteOverviewRow struct {
	Date                string  `json:"date"`
	RouteID             string  `json:"route_id"`
	Deliveries          int     `json:"deliveries"`
	Scenario1Deliveries int     `json:"s1_deliveries"`
	Scenario1DelivPct   float64 `json:"s1_deliveries_pct"`
	Scenario2Deliveries int     `json:"s2_deliveries"`
	Scenario2DelivPct   float64 `json:"s2_deliveries_pct"`
	Orders              int     `json:"orders"`
	Scenario1Orders     int     `json:"s1_orders"`
	Scenario1OrdersPct  float64 `json:"s1_orders_pct"`
	Scenario2Orders     int     `json:"s2_orders"`
	Scenario2OrdersPct  float64 `json:"s2_orders_pct"`
	Health              string  `json:"health"`
}

// OrderRow is one order of a route detail.
type OrderRow struct {
	StopName     string `json:"stop_name"`
	CustomerID   string `json:"customer_id"`
	ActivityCode string `json:"activity_code"`
	Channel      string `json:"channel"`
	WindowFrom   string `json:"window_from"`
	WindowUntil  string `json:"window_until"`
	Planned      string `json:"planned_arrival"`
	Actual       string `json:"actual_arrival"`
	Compliance
	Status string `json:"status"`
}

// DeliveryRow is one stop delivery of a route detail.
type DeliveryRow struct {
	StopName        string `json:"stop_name"`
	CustomerID      string `json:"customer_id"`
	Channel         string `json:"channel"`
	WindowFrom      string `json:"window_from"`
	WindowUntil     string `json:"window_until"`
	Planned         string `json:"first_planned"`
	Actual          string `json:"first_actual"`
	Orders          int    `json:"orders"`
	Scenario1Orders int    `json:"s1_orders"`
	Scenario2Orders int    `json:"s2_orders"`
	Compliance
}

// RouteDetail lists the orders and stop deliveries of one route-day in planned order.
type RouteDetail struct {
	Date               string        `json:"date"`
	RouteID            string        `json:"route_id"`
	Scenario1OrdersPct float64       `json:"s1_orders_pct"`
	Scenario2OrdersPct float64       `json:"s2_orders_pct"`
	Orders             []OrderRow    `json:"orders"`
	Deliveries         []DeliveryRow `json:"deliveries"`
}

// HealthBand maps a Scenario 2 delivery percentage to its band.
func HealthBand(s2DeliveryPct float64) string {
	switch {
	case s2DeliveryPct < 93:
		return HealthBad
	case s2DeliveryPct < 95:
		return HealthWatch
	default:
		return HealthGood
	}
}

// OrderStatus is s1 when inside the window, s2_only when early, outside otherwise.
func OrderStatus(c Compliance) string {
	switch {
	case c.Scenario1:
		return StatusScenario1
	case c.Scenario2:
		return StatusS2Only
	default:
		return StatusOutside
	}
}

// RouteOverview computes per route-day compliance over all activities of the input.
func RouteOverview(in []records.OrderRecord, opts Options) []RouteOverviewRow {
	orders, _ := Prepare(in, opts)
	deliveries := AggregateDeliveries(orders, ByStop)

	type key struct{ date, route string }
	index := make(map[key]int)
	out := make([]RouteOverviewRow, 0)

	row := func(date, route string) *RouteOverviewRow {
		k := key{date, route}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, RouteOverviewRow{Date: date, RouteID: route})
		}
		return &out[i]
	}

	for _, d := range deliveries {
		r := row(d.Key.Date, d.Key.RouteID)
		r.Deliveries++
		if d.Scenario1 {
			r.Scenario1Deliveries++
		}
		if d.Scenario2 {
			r.Scenario2Deliveries++
		}
	}
	for _, o := range orders {
		r := row(o.Date, o.RouteID)
		r.Orders++
		if o.Scenario1 {
			r.Scenario1Orders++
		}
		if o.Scenario2 {
			r.Scenario2Orders++
		}
	}

	for i := range out {
		r := &out[i]
		r.Scenario1DelivPct = Pct(r.Scenario1Deliveries, r.Deliveries)
		r.Scenario2DelivPct = Pct(r.Scenario2Deliveries, r.Deliveries)
		r.Scenario1OrdersPct = Pct(r.Scenario1Orders, r.Orders)
		r.Scenario2OrdersPct = Pct(r.Scenario2Orders, r.Orders)
		r.Health = HealthBand(r.Scenario2DelivPct)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].RouteID < out[j].RouteID
	})
	return out
}

// Route builds the detail of one route-day. An unknown route yields empty tables.
func Route(in []records.OrderRecord, date, routeID string, opts Options) RouteDetail {
	f := records.Filter{DateFrom: date, DateTo: date, RouteID: routeID}
	orders, _ := Prepare(f.Apply(in), opts)
	orders = SortForAggregation(orders)

	detail := RouteDetail{
		Date:       date,
		RouteID:    records.NormalizeRouteID(routeID),
		Orders:     make([]OrderRow, 0, len(orders)),
		Deliveries: []DeliveryRow{},
	}

	s1, s2 := 0, 0
	for _, o := range orders {
		if o.Scenario1 {
			s1++
		}
		if o.Scenario2 {
			s2++
		}
		detail.Orders = append(detail.Orders, OrderRow{
			StopName:     o.StopName,
			CustomerID:   o.CustomerID,
			ActivityCode: o.ActivityCode,
			Channel:      o.Channel,
			WindowFrom:   timeofday.FormatShort(o.Source.WindowFrom),
			WindowUntil:  timeofday.FormatShort(o.Source.WindowUntil),
			Planned:      timeofday.FormatShort(o.Source.PlannedArrival),
			Actual:       timeofday.FormatShort(o.Source.ActualArrival),
			Compliance:   o.Compliance,
			Status:       OrderStatus(o.Compliance),
		})
	}
	detail.Scenario1OrdersPct = Pct(s1, len(orders))
	detail.Scenario2OrdersPct = Pct(s2, len(orders))

	deliveries := AggregateDeliveries(orders, ByStop)
	sort.SliceStable(deliveries, func(i, j int) bool {
		if less, decided := timeofday.Before(deliveries[i].EarliestPlanned, deliveries[j].EarliestPlanned); decided {
			return less
		}
		return deliveries[i].Key.StopName < deliveries[j].Key.StopName
	})

	for _, d := range deliveries {
		detail.Deliveries = append(detail.Deliveries, DeliveryRow{
			StopName:        d.Key.StopName,
			CustomerID:      d.CustomerID,
			Channel:         d.Channel,
			WindowFrom:      timeofday.FormatShort(d.WindowFromRaw),
			WindowUntil:     timeofday.FormatShort(d.WindowUntilRaw),
			Planned:         timeofday.FormatShort(d.PlannedArrivalRaw),
			Actual:          timeofday.FormatShort(d.ActualArrivalRaw),
			Orders:          d.Orders,
			Scenario1Orders: d.Scenario1Orders,
			Scenario2Orders: d.Scenario2Orders,
			Compliance:      d.Compliance,
		})
	}

	return detail
}
