package rca

import (
	"sort"

	"jit-rca/internal/jit"
	"jit-rca/internal/timeofday"
)

// Severity bands of minutes late, in ascending order. Upper edges are inclusive.
const (
	Band0to15   = "0–15"
	Band15to30  = "15–30"
	Band30to45  = "30–45"
	Band45to60  = "45–60"
	Band60Plus  = "60+"
	BandUnknown = "unknown"
)

// Bands lists the known severity bands in ascending order.
var Bands = []string{Band0to15, Band15to30, Band30to45, Band45to60, Band60Plus}

// Band classifies minutes late. Negative values count as 0; nil is unknown.
func Band(late *float64) string {
	if late == nil {
		return BandUnknown
	}
	switch v := *late; {
	case v <= 15:
		return Band0to15
	case v <= 30:
		return Band15to30
	case v <= 45:
		return Band30to45
	case v <= 60:
		return Band45to60
	default:
		return Band60Plus
	}
}

// BandShare is one severity band of a distribution. CumulativePct is the projected compliance
// if every delivery up to and including this band were fixed.
type BandShare struct {
	Band          string  `json:"band"`
	Count         int     `json:"count"`
	Pct           float64 `json:"pct"`
	CumulativePct float64 `json:"cumulative_compliance_pct"`
}

// Distribution is the severity breakdown of one day, optionally per activity.
// Percentages use every delivery of the group as denominator.
type Distribution struct {
	Date                 string      `json:"date"`
	ActivityCode         string      `json:"activity_code,omitempty"`
	TotalDeliveries      int         `json:"total_deliveries"`
	Outside              int         `json:"outside"`
	CurrentCompliancePct float64     `json:"current_compliance_pct"`
	Bands                []BandShare `json:"bands"`
	Unknown              int         `json:"unknown"`
	UnknownPct           float64     `json:"unknown_pct"`
}

type distKey struct {
	date     string
	activity string
}

// Distributions buckets the outside stops per date, or per date and activity.
func Distributions(stops []jit.OutsideStop, byActivity bool) []Distribution {
	type acc struct {
		total, outside, unknown int
		counts                  map[string]int
	}

	groups := make(map[distKey]*acc)
	var keys []distKey
	for _, s := range stops {
		k := distKey{date: s.Date}
		if byActivity {
			k.activity = s.ActivityCode
		}
		a, ok := groups[k]
		if !ok {
			a = &acc{counts: make(map[string]int)}
			groups[k] = a
			keys = append(keys, k)
		}
		a.total++
		if !s.Outside {
			continue
		}
		a.outside++
		if b := Band(s.LateMinutes); b == BandUnknown {
			a.unknown++
		} else {
			a.counts[b]++
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return keys[i].activity < keys[j].activity
	})

	out := make([]Distribution, 0, len(keys))
	for _, k := range keys {
		a := groups[k]
		d := Distribution{
			Date:                 k.date,
			ActivityCode:         k.activity,
			TotalDeliveries:      a.total,
			Outside:              a.outside,
			CurrentCompliancePct: jit.Pct(a.total-a.outside, a.total),
			Bands:                make([]BandShare, 0, len(Bands)),
			Unknown:              a.unknown,
			UnknownPct:           jit.Pct(a.unknown, a.total),
		}

		// Accumulated unrounded, rounded per band.
		current := 0.0
		if a.total > 0 {
			current = float64(a.total-a.outside) / float64(a.total) * 100
		}
		running := current
		for _, b := range Bands {
			n := a.counts[b]
			if a.total > 0 {
				running += float64(n) / float64(a.total) * 100
			}
			d.Bands = append(d.Bands, BandShare{
				Band:          b,
				Count:         n,
				Pct:           jit.Pct(n, a.total),
				CumulativePct: timeofday.RoundTo(running, 2),
			})
		}
		out = append(out, d)
	}
	return out
}
