package records

import "strings"

// Filter narrows a collection before analysis. Empty fields do not filter.
// Dates compare as YYYY-MM-DD strings and both bounds are inclusive.
type Filter struct {
	DateFrom     string `json:"date_from,omitempty"`
	DateTo       string `json:"date_to,omitempty"`
	ActivityCode string `json:"activity_code,omitempty"`
	RouteID      string `json:"route_id,omitempty"`
	CustomerID   string `json:"customer_id,omitempty"`
}

// IsZero reports whether the filter lets every record through.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Match reports whether a single record passes the filter.
func (f Filter) Match(r OrderRecord) bool {
	date := DateOnly(r.Date)
	if f.DateFrom != "" && date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && date > f.DateTo {
		return false
	}
	if f.ActivityCode != "" && strings.TrimSpace(r.ActivityCode) != f.ActivityCode {
		return false
	}
	if f.RouteID != "" && NormalizeRouteID(r.RouteID) != NormalizeRouteID(f.RouteID) {
		return false
	}
	if f.CustomerID != "" && strings.TrimSpace(r.CustomerID) != f.CustomerID {
		return false
	}
	return true
}

// Apply returns the records that pass the filter, in input order.
func (f Filter) Apply(in []OrderRecord) []OrderRecord {
	out := make([]OrderRecord, 0, len(in))
	for _, r := range in {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// NormalizeRouteID strips whitespace and the ".0" suffix spreadsheets add to numeric route ids.
func NormalizeRouteID(id string) string {
	id = strings.TrimSpace(id)
	return strings.TrimSuffix(id, ".0")
}

// DateOnly trims a date and drops a trailing time part ("2024-01-10 00:00:00" → "2024-01-10").
func DateOnly(date string) string {
	date = strings.TrimSpace(date)
	if len(date) > 10 && (date[10] == ' ' || date[10] == 'T') {
		return date[:10]
	}
	return date
}
