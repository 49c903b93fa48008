package jit

import (
	"sort"
	"strings"
	"time"

	"jit-rca/internal/catalog"
	"jit-rca/internal/records"
	"jit-rca/internal/timeofday"
)

// Options are the parameters shared by every compliance entry point.
type Options struct {
	// ToleranceMinutes widens both window bounds symmetrically. Negative values count as 0.
	ToleranceMinutes int
	Catalog          *catalog.Catalog
}

func (o Options) tolerance() int {
	if o.ToleranceMinutes < 0 {
		return 0
	}
	return o.ToleranceMinutes
}

func (o Options) catalog() *catalog.Catalog {
	if o.Catalog == nil {
		return catalog.Default()
	}
	return o.Catalog
}

// Order is a classified order-leg. Normalized instants are nil when the source field was
// blank or unparsable.
type Order struct {
	Source records.OrderRecord

	Date         string
	RouteID      string
	CustomerID   string
	ActivityCode string
	StopName     string
	Channel      string
	Reason       string

	WindowFrom       *time.Time
	WindowUntil      *time.Time
	PlannedArrival   *time.Time
	ActualArrival    *time.Time
	PlannedDeparture *time.Time
	ActualDeparture  *time.Time

	PlannedDuration *float64
	ActualDuration  *float64

	Compliance
}

// Quality counts the data-quality gaps of a prepared snapshot. Gaps never abort a computation;
// they degrade to unknown values and are reported alongside the results.
type Quality struct {
	Orders                int `json:"orders"`
	MissingWindow         int `json:"missing_window"`
	MissingPlannedArrival int `json:"missing_planned_arrival"`
	MissingActualArrival  int `json:"missing_actual_arrival"`
	MissingActualDuration int `json:"missing_actual_duration"`
	MissingReason         int `json:"missing_reason"`
}

// Prepare normalizes and classifies every record. The input is never modified.
func Prepare(in []records.OrderRecord, opts Options) ([]Order, Quality) {
	cat := opts.catalog()
	tol := opts.tolerance()

	orders := make([]Order, 0, len(in))

	for _, r := range in {
		date := records.DateOnly(r.Date)

		o := Order{
			Source:           r,
			Date:             date,
			RouteID:          records.NormalizeRouteID(r.RouteID),
			CustomerID:       strings.TrimSpace(r.CustomerID),
			ActivityCode:     strings.TrimSpace(r.ActivityCode),
			StopName:         strings.TrimSpace(r.StopName),
			Reason:           strings.TrimSpace(r.Reason),
			WindowFrom:       timeofday.Combine(date, r.WindowFrom),
			WindowUntil:      timeofday.Combine(date, r.WindowUntil),
			PlannedArrival:   timeofday.Combine(date, r.PlannedArrival),
			ActualArrival:    timeofday.Combine(date, r.ActualArrival),
			PlannedDeparture: timeofday.Combine(date, r.PlannedDeparture),
			ActualDeparture:  timeofday.Combine(date, r.ActualDeparture),
			PlannedDuration:  r.PlannedDuration,
			ActualDuration:   r.ActualDuration,
		}
		o.Channel = cat.Channel(o.CustomerID)
		o.Compliance = Classify(o.WindowFrom, o.WindowUntil, o.ActualArrival, tol)

		orders = append(orders, o)
	}

	return orders, qualityOf(orders)
}

// AnalysisSubset keeps the orders whose activity code belongs to the catalog's analysis set.
func AnalysisSubset(orders []Order, cat *catalog.Catalog) []Order {
	if cat == nil {
		cat = catalog.Default()
	}
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if cat.AnalysisActivity(o.ActivityCode) {
			out = append(out, o)
		}
	}
	return out
}

// SortForAggregation returns a copy ordered by planned arrival ascending (unknown last), then
// stop name. Every aggregation that keeps the "first" value of a group runs over this order.
func SortForAggregation(orders []Order) []Order {
	out := make([]Order, len(orders))
	copy(out, orders)

	sort.SliceStable(out, func(i, j int) bool {
		if less, decided := timeofday.Before(out[i].PlannedArrival, out[j].PlannedArrival); decided {
			return less
		}
		return out[i].StopName < out[j].StopName
	})
	return out
}
