package jit

import (
	"fmt"
	"sort"

	"jit-rca/internal/records"
	"jit-rca/internal/timeofday"
)

// KPI grouping dimensions.
const (
	GroupByDate     = "date"
	GroupByRoute    = "route"
	GroupByActivity = "activity"
	GroupByChannel  = "channel"
	GroupByCustomer = "customer"
)

// KPIOverall is the on-time rate against planned arrival.
type KPIOverall struct {
	Orders int     `json:"orders"`
	OnTime int     `json:"on_time"`
	KPIPct float64 `json:"kpi_pct"`
}

// KPIGroupRow is the on-time rate of one group.
type KPIGroupRow struct {
	Group  string  `json:"group"`
	Orders int     `json:"orders"`
	OnTime int     `json:"on_time"`
	KPIPct float64 `json:"kpi_pct"`
}

// KPIResult is the on-time KPI overall and, when requested, per group.
type KPIResult struct {
	Overall KPIOverall    `json:"overall"`
	GroupBy string        `json:"group_by,omitempty"`
	Detail  []KPIGroupRow `json:"detail,omitempty"`
}

// OnTime reports whether an order arrived no later than planned plus the tolerance.
// An unknown planned or actual arrival is not on time.
func OnTime(o Order, toleranceMinutes int) bool {
	delta := timeofday.MinutesBetween(o.ActualArrival, o.PlannedArrival)
	if delta == nil {
		return false
	}
	return *delta <= float64(toleranceMinutes)
}

func groupValue(o Order, dimension string) (string, error) {
	switch dimension {
	case GroupByDate:
		return o.Date, nil
	case GroupByRoute:
		return o.RouteID, nil
	case GroupByActivity:
		return o.ActivityCode, nil
	case GroupByChannel:
		return o.Channel, nil
	case GroupByCustomer:
		return o.CustomerID, nil
	}
	return "", fmt.Errorf("unknown grouping %q", dimension)
}

// KPI computes the planned-versus-actual on-time rate. groupBy may be empty.
func KPI(in []records.OrderRecord, groupBy string, opts Options) (KPIResult, error) {
	if groupBy != "" {
		if _, err := groupValue(Order{}, groupBy); err != nil {
			return KPIResult{}, err
		}
	}

	orders, _ := Prepare(in, opts)
	tol := opts.tolerance()

	res := KPIResult{GroupBy: groupBy}
	index := make(map[string]int)

	for _, o := range orders {
		ok := OnTime(o, tol)
		res.Overall.Orders++
		if ok {
			res.Overall.OnTime++
		}

		if groupBy == "" {
			continue
		}
		g, _ := groupValue(o, groupBy)
		i, seen := index[g]
		if !seen {
			i = len(res.Detail)
			index[g] = i
			res.Detail = append(res.Detail, KPIGroupRow{Group: g})
		}
		res.Detail[i].Orders++
		if ok {
			res.Detail[i].OnTime++
		}
	}

	res.Overall.KPIPct = Pct(res.Overall.OnTime, res.Overall.Orders)
	for i := range res.Detail {
		res.Detail[i].KPIPct = Pct(res.Detail[i].OnTime, res.Detail[i].Orders)
	}
	sort.Slice(res.Detail, func(i, j int) bool { return res.Detail[i].Group < res.Detail[j].Group })

	return res, nil
}
