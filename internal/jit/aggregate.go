package jit

import (
	"time"

	"jit-rca/internal/timeofday"
)

// Grouping selects the delivery key.
type Grouping int

const (
	// ByWindow keys a delivery on date, route, customer, stop and the raw window bounds.
	ByWindow Grouping = iota
	// ByStop keys a delivery on date, route and stop only.
	ByStop
)

// DeliveryKey identifies a delivery. Fields not used by the grouping stay empty.
type DeliveryKey struct {
	Date        string
	RouteID     string
	StopName    string
	CustomerID  string
	WindowFrom  string
	WindowUntil string
}

// Delivery is one or more orders sharing a delivery key. Compliance is the OR over its orders.
type Delivery struct {
	Key DeliveryKey

	ActivityCode string
	Channel      string
	CustomerID   string

	Orders          int
	Scenario1Orders int
	Scenario2Orders int

	// First non-null values in aggregation order.
	WindowFrom     *time.Time
	WindowUntil    *time.Time
	PlannedArrival *time.Time
	ActualArrival  *time.Time

	// First raw values, kept for display.
	WindowFromRaw     string
	WindowUntilRaw    string
	PlannedArrivalRaw string
	ActualArrivalRaw  string

	EarliestPlanned *time.Time

	Compliance
}

// AggregateDeliveries groups orders into deliveries in a single pass over the pre-sorted orders.
// Deliveries come back in order of their first order.
func AggregateDeliveries(orders []Order, g Grouping) []Delivery {
	sorted := SortForAggregation(orders)

	index := make(map[DeliveryKey]int)
	deliveries := make([]Delivery, 0)

	for _, o := range sorted {
		key := DeliveryKey{Date: o.Date, RouteID: o.RouteID, StopName: o.StopName}
		if g == ByWindow {
			key.CustomerID = o.CustomerID
			key.WindowFrom = o.Source.WindowFrom
			key.WindowUntil = o.Source.WindowUntil
		}

		i, ok := index[key]
		if !ok {
			i = len(deliveries)
			index[key] = i
			deliveries = append(deliveries, Delivery{
				Key:               key,
				ActivityCode:      o.ActivityCode,
				Channel:           o.Channel,
				CustomerID:        o.CustomerID,
				WindowFromRaw:     o.Source.WindowFrom,
				WindowUntilRaw:    o.Source.WindowUntil,
				PlannedArrivalRaw: o.Source.PlannedArrival,
				ActualArrivalRaw:  o.Source.ActualArrival,
			})
		}

		d := &deliveries[i]
		d.Orders++
		if o.Scenario1 {
			d.Scenario1Orders++
			d.Scenario1 = true
		}
		if o.Scenario2 {
			d.Scenario2Orders++
			d.Scenario2 = true
		}
		if d.WindowFrom == nil {
			d.WindowFrom = o.WindowFrom
		}
		if d.WindowUntil == nil {
			d.WindowUntil = o.WindowUntil
		}
		if d.PlannedArrival == nil {
			d.PlannedArrival = o.PlannedArrival
		}
		if d.ActualArrival == nil {
			d.ActualArrival = o.ActualArrival
		}
		d.EarliestPlanned = timeofday.Earliest(d.EarliestPlanned, o.PlannedArrival)
	}

	return deliveries
}

// StopKey identifies a physical stop on a route-day.
type StopKey struct {
	Date     string
	RouteID  string
	StopName string
}

// Stop is the stop-level aggregate used for sequencing, block time and delay attribution.
type Stop struct {
	StopKey

	ActivityCode string
	Orders       int

	// Earliest known instants over the stop's orders.
	PlannedArrival   *time.Time
	ActualArrival    *time.Time
	PlannedDeparture *time.Time
	ActualDeparture  *time.Time

	// First non-null window end in aggregation order.
	WindowUntil *time.Time

	// Block minutes come from the first order of the stop only.
	PlannedBlock       *float64
	ActualBlock        *float64
	ActualBlockDerived bool

	// First raw values, kept for display.
	PlannedRaw     string
	ActualRaw      string
	DepartureRaw   string
	WindowUntilRaw string
}

// AggregateStops groups orders by date, route and stop. The actual block comes from the
// first order's explicit duration, else from that same order's departure minus arrival.
func AggregateStops(orders []Order) []Stop {
	sorted := SortForAggregation(orders)

	index := make(map[StopKey]int)
	stops := make([]Stop, 0)

	for _, o := range sorted {
		key := StopKey{Date: o.Date, RouteID: o.RouteID, StopName: o.StopName}

		i, ok := index[key]
		if !ok {
			i = len(stops)
			index[key] = i

			s := Stop{
				StopKey:        key,
				ActivityCode:   o.ActivityCode,
				PlannedBlock:   o.PlannedDuration,
				ActualBlock:    o.ActualDuration,
				PlannedRaw:     o.Source.PlannedArrival,
				ActualRaw:      o.Source.ActualArrival,
				DepartureRaw:   o.Source.ActualDeparture,
				WindowUntilRaw: o.Source.WindowUntil,
			}
			if s.ActualBlock == nil {
				s.ActualBlock = timeofday.MinutesBetween(o.ActualDeparture, o.ActualArrival)
				s.ActualBlockDerived = s.ActualBlock != nil
			}
			stops = append(stops, s)
		}

		s := &stops[i]
		s.Orders++
		s.PlannedArrival = timeofday.Earliest(s.PlannedArrival, o.PlannedArrival)
		s.ActualArrival = timeofday.Earliest(s.ActualArrival, o.ActualArrival)
		s.PlannedDeparture = timeofday.Earliest(s.PlannedDeparture, o.PlannedDeparture)
		s.ActualDeparture = timeofday.Earliest(s.ActualDeparture, o.ActualDeparture)
		if s.WindowUntil == nil {
			s.WindowUntil = o.WindowUntil
		}
	}

	return stops
}

// LateMinutes is max(0, actual arrival − window end) for the stop, or nil.
func (s Stop) LateMinutes() *float64 {
	return LateMinutes(s.WindowUntil, s.ActualArrival)
}

// WaitMinutes is the actual on-site block time of the stop, or nil.
func (s Stop) WaitMinutes() *float64 {
	return s.ActualBlock
}
