package records

import (
	"fmt"
	"strings"
)

// Column names of the flat input contract.
const (
	ColDate             = "date"
	ColRouteID          = "route_id"
	ColCustomerID       = "customer_id"
	ColActivityCode     = "activity_code"
	ColStopName         = "stop_name"
	ColWindowFrom       = "window_from"
	ColWindowUntil      = "window_until"
	ColPlannedArrival   = "planned_arrival"
	ColActualArrival    = "actual_arrival"
	ColPlannedDeparture = "planned_departure"
	ColActualDeparture  = "actual_departure"
	ColPlannedDuration  = "planned_duration_min"
	ColActualDuration   = "actual_duration_min"
	ColReason           = "reason"
)

// RequiredColumns must be present on every input collection handed to the classifier and aggregator.
var RequiredColumns = []string{
	ColDate,
	ColRouteID,
	ColCustomerID,
	ColActivityCode,
	ColStopName,
	ColWindowFrom,
	ColWindowUntil,
	ColPlannedArrival,
	ColActualArrival,
}

// OptionalColumns are understood when present but never required.
var OptionalColumns = []string{
	ColPlannedDeparture,
	ColActualDeparture,
	ColPlannedDuration,
	ColActualDuration,
	ColReason,
}

// OrderRecord is one order-leg as delivered by the ingestion layer.
// Time fields are kept as the raw short strings (HH:MM[:SS], blank, "nan", "none");
// normalization happens downstream and never mutates the record.
type OrderRecord struct {
	Date             string   `json:"date" jsonschema:"delivery date as YYYY-MM-DD"`
	RouteID          string   `json:"route_id" jsonschema:"route (tour) identifier"`
	CustomerID       string   `json:"customer_id" jsonschema:"customer number, mapped to a channel label"`
	ActivityCode     string   `json:"activity_code" jsonschema:"activity code of the delivering account"`
	StopName         string   `json:"stop_name" jsonschema:"short name of the unload point"`
	WindowFrom       string   `json:"window_from" jsonschema:"start of the delivery window (HH:MM or HH:MM:SS)"`
	WindowUntil      string   `json:"window_until" jsonschema:"end of the delivery window (HH:MM or HH:MM:SS)"`
	PlannedArrival   string   `json:"planned_arrival" jsonschema:"planned arrival time of day"`
	ActualArrival    string   `json:"actual_arrival" jsonschema:"actual arrival time of day"`
	PlannedDeparture string   `json:"planned_departure,omitempty" jsonschema:"planned departure time of day"`
	ActualDeparture  string   `json:"actual_departure,omitempty" jsonschema:"actual departure time of day"`
	PlannedDuration  *float64 `json:"planned_duration_min,omitempty" jsonschema:"planned on-site block time in minutes"`
	ActualDuration   *float64 `json:"actual_duration_min,omitempty" jsonschema:"actual on-site block time in minutes"`
	Reason           string   `json:"reason,omitempty" jsonschema:"free-text reason code for a missed window"`
}

// ValidationError reports required columns that are absent from an input collection.
// It is fatal: no partial result is produced.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dataset is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ValidateColumns checks the presence of every required column, preserving the
// canonical column order in the error.
func ValidateColumns(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[strings.TrimSpace(c)] = true
	}

	var missing []string
	for _, c := range RequiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Clone returns an independent copy of the collection, including the optional numeric fields.
func Clone(in []OrderRecord) []OrderRecord {
	if in == nil {
		return nil
	}
	out := make([]OrderRecord, len(in))
	for i, r := range in {
		out[i] = r
		if r.PlannedDuration != nil {
			v := *r.PlannedDuration
			out[i].PlannedDuration = &v
		}
		if r.ActualDuration != nil {
			v := *r.ActualDuration
			out[i].ActualDuration = &v
		}
	}
	return out
}
