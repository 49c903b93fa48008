package visuals

import (
	"fmt"
	"math"
	"strings"

	"jit-rca/internal/jit"
	"jit-rca/internal/rca"
	"jit-rca/internal/rootcause"
)

const (
	fenceOpen  = "```mermaid\n"
	fenceClose = "```"
	maxPoints  = 60
)

func quoted(labels []string) string {
	q := make([]string, len(labels))
	for i, l := range labels {
		q[i] = fmt.Sprintf("%q", strings.ReplaceAll(l, "\"", "'"))
	}
	return strings.Join(q, ", ")
}

// Unfence strips the markdown code fence, leaving the bare diagram for an HTML page.
func Unfence(chart string) string {
	chart = strings.TrimPrefix(chart, fenceOpen)
	return strings.TrimSuffix(chart, fenceClose)
}

// SeverityChart draws the outside deliveries of one group per severity band, unknown last.
func SeverityChart(d rca.Distribution) string {
	if d.Outside == 0 {
		return ""
	}

	var labels, values []string
	maxVal := d.Unknown
	for _, b := range d.Bands {
		labels = append(labels, b.Band)
		values = append(values, fmt.Sprintf("%d", b.Count))
		maxVal = max(maxVal, b.Count)
	}
	labels = append(labels, rca.BandUnknown)
	values = append(values, fmt.Sprintf("%d", d.Unknown))

	title := "Minutes Late " + d.Date
	if d.ActivityCode != "" {
		title += " / activity " + d.ActivityCode
	}

	var sb strings.Builder
	sb.WriteString(fenceOpen)
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title %q\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", quoted(labels)))
	sb.WriteString(fmt.Sprintf("    y-axis \"Deliveries\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fenceClose)
	return sb.String()
}

// CumulativeChart draws the projected compliance as the severity bands are fixed in order.
func CumulativeChart(d rca.Distribution) string {
	if d.TotalDeliveries == 0 {
		return ""
	}

	labels := []string{"now"}
	values := []string{fmt.Sprintf("%.1f", d.CurrentCompliancePct)}
	for _, b := range d.Bands {
		labels = append(labels, "+"+b.Band)
		values = append(values, fmt.Sprintf("%.1f", b.CumulativePct))
	}

	var sb strings.Builder
	sb.WriteString(fenceOpen)
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Projected Compliance %s\"\n", d.Date))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", quoted(labels)))
	sb.WriteString(fmt.Sprintf("    y-axis \"Compliance %%\" %d --> 100\n", int(math.Floor(d.CurrentCompliancePct/10))*10))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fenceClose)
	return sb.String()
}

// ParetoChart draws the issue count per cause cluster, largest first.
func ParetoChart(rows []rootcause.ParetoRow) string {
	if len(rows) == 0 {
		return ""
	}

	var labels, values []string
	maxVal := 0
	for _, r := range rows {
		labels = append(labels, r.Cluster)
		values = append(values, fmt.Sprintf("%d", r.Count))
		maxVal = max(maxVal, r.Count)
	}

	var sb strings.Builder
	sb.WriteString(fenceOpen)
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Root Causes (Pareto)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", quoted(labels)))
	sb.WriteString(fmt.Sprintf("    y-axis \"Issues\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fenceClose)
	return sb.String()
}

// OutsideTrendChart draws the daily share of stops outside the window.
func OutsideTrendChart(days []jit.OutsideDay) string {
	if len(days) == 0 {
		return ""
	}

	// Mermaid's layout starts overlapping labels past ~60 points.
	step := 1
	if len(days) > maxPoints {
		step = int(math.Ceil(float64(len(days)) / maxPoints))
	}

	var labels, values []string
	maxVal := 0.0
	for i, d := range days {
		if i%step == 0 || i == len(days)-1 {
			labels = append(labels, d.Date)
			values = append(values, fmt.Sprintf("%.1f", d.OutsidePct))
		}
		maxVal = math.Max(maxVal, d.OutsidePct)
	}

	var sb strings.Builder
	sb.WriteString(fenceOpen)
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Stops Outside Window (Daily)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", quoted(labels)))
	sb.WriteString(fmt.Sprintf("    y-axis \"Outside %%\" 0 --> %d\n", int(math.Min(100, math.Ceil(maxVal*1.2+1)))))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fenceClose)
	return sb.String()
}

// CompliancePie splits the deliveries into inside the window, early only and outside.
func CompliancePie(s jit.Summary) string {
	if s.Deliveries == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fenceOpen)
	sb.WriteString("pie title Delivery Compliance\n")
	sb.WriteString(fmt.Sprintf("    \"Inside window\" : %d\n", s.Scenario1Deliveries))
	sb.WriteString(fmt.Sprintf("    \"Early only\" : %d\n", s.Scenario2Deliveries-s.Scenario1Deliveries))
	sb.WriteString(fmt.Sprintf("    \"Outside\" : %d\n", s.Deliveries-s.Scenario2Deliveries))
	sb.WriteString(fenceClose)
	return sb.String()
}
