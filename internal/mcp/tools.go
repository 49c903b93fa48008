package mcp

import (
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools(srv *sdk.Server) {
	addTool(srv, "list_datasets",
		"List the imported order datasets, newest first. Every other tool reads the most recent one unless 'dataset' names another.",
		s.handleListDatasets)

	addTool(srv, "analyze_compliance",
		"Time-window compliance report over the analysis activities. "+
			"Scenario 1 counts arrivals inside [window_from, window_until]; Scenario 2 also accepts early arrivals. "+
			"Returns summary, daily, per activity and channel tables, the weakest routes and stops, waiting-time buckets of late orders and data-quality gaps.",
		s.handleAnalyzeCompliance)

	addTool(srv, "route_detail",
		"Order and stop rows of one route on one date, with compliance flags, the planned versus actual stop sequence and the per-stop blocks.",
		s.handleRouteDetail)

	addTool(srv, "transport_overview",
		"Per route-day transport view: sequence mismatches, departure delay, planned versus actual on-site blocks and the arrival delay profile (Planning/Dispatch, Sequencing / Route design, Stable / On time).",
		s.handleTransportOverview)

	addTool(srv, "delay_drivers",
		"Splits each stop's delay into a late-departure part and a transit part relative to its predecessor on the route, and sums wait and lateness per route and activity-day. "+
			"Set 'detail_date' with 'activity_code' to list the stops of one activity-day by wait.",
		s.handleDelayDrivers)

	addTool(srv, "severity_buckets",
		"Distribution of deliveries outside the Scenario 2 window by minutes late, with the projected compliance if each band were fixed in order. "+
			"Set 'date' to also list the outside stops of that day.",
		s.handleSeverityBuckets)

	addTool(srv, "root_causes",
		"Pareto of the non-compliant orders by cause cluster, the customer/route/stop segments behind them and an action plan toward the target SLA. "+
			"basis 's2' (default) uses Scenario 2 order compliance; 'kpi' uses planned versus actual arrival.",
		s.handleRootCauses)

	addTool(srv, "compare_tolerances",
		"Runs the full analysis once per tolerance value and returns the headline figures side by side, ascending by tolerance.",
		s.handleCompareTolerances)

	addTool(srv, "on_time_kpi",
		"Share of orders arriving no later than planned arrival plus the tolerance, overall and optionally grouped by date, route, activity, channel or customer.",
		s.handleOnTimeKPI)

	addTool(srv, "waiting_times",
		"On-site time per activity code. Set 'activity_code' for the per-stop totals of that activity, and 'stop_name' for its orders.",
		s.handleWaitingTimes)
}
