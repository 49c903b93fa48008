package commands

import (
	"fmt"
	"slices"

	"jit-rca/internal/jit"
	"jit-rca/internal/rca"
	"jit-rca/internal/report"
	"jit-rca/internal/rootcause"
	"jit-rca/internal/transport"

	"github.com/spf13/cobra"
)

var (
	tableNames   []string
	routeDate    string
	detailDate   string
	byActivity   bool
	basis        string
	targetSLA    float64
	horizonDays  int
	tolerances   []int
	compareLimit int
	groupBy      string
	waitStop     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compliance report with every derived table",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		recs, err := selectRecords()
		if err != nil {
			return err
		}

		res, err := report.Build(cmd.Context(), recs, report.Params{Options: opts, Planner: planner(), Basis: basis})
		if err != nil {
			return err
		}

		tables := res.Tables
		if len(tableNames) > 0 {
			tables = tables[:0:0]
			for _, name := range tableNames {
				t, ok := res.Table(name)
				if !ok {
					return fmt.Errorf("unknown table %q", name)
				}
				tables = append(tables, t)
			}
			if asJSON {
				return emit(cmd.OutOrStdout(), tables)
			}
		}
		return emit(cmd.OutOrStdout(), res, tables...)
	},
}

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Order and stop detail of one route-day (needs --route and --date)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if filter.RouteID == "" || routeDate == "" {
			return fmt.Errorf("--route and --date are required")
		}
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		recs, err := selectRecords()
		if err != nil {
			return err
		}

		detail := jit.Route(recs, routeDate, filter.RouteID, opts)
		blocks := transport.Route(recs, routeDate, filter.RouteID, opts)
		return emit(cmd.OutOrStdout(),
			map[string]any{"compliance": detail, "transport": blocks},
			report.TableOf("orders", detail.Orders),
			report.TableOf("deliveries", detail.Deliveries),
			report.TableOf("sequence", blocks.Sequence),
			report.TableOf("blocks", blocks.Blocks),
		)
	},
}

var transportCmd = &cobra.Command{
	Use:   "transport",
	Short: "Sequence, block and arrival-delay profile per route-day",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		recs, err := selectRecords()
		if err != nil {
			return err
		}

		overview := transport.Overview(recs, opts)
		profiles := transport.Profiles(recs, opts)
		return emit(cmd.OutOrStdout(),
			map[string]any{"routes": overview, "profiles": profiles},
			report.TableOf("transport_overview", overview),
			report.TableOf("route_profiles", profiles),
		)
	},
}

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "Delay decomposition and minutes-late severity buckets",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		recs, err := selectRecords()
		if err != nil {
			return err
		}

		d := rca.Decompose(recs, opts)
		dists := rca.Distributions(jit.OutsideStops(recs, opts), byActivity)
		tables := []report.Table{
			report.TableOf("route_decomposition", d.Routes),
			report.TableOf("activity_days", d.ActivityDays),
			report.TableOf("late_buckets", d.LateBuckets),
			report.TableOf("bucket_distribution", report.FlattenDistributions(dists)),
		}
		out := map[string]any{"decomposition": d, "distributions": dists}

		if detailDate != "" {
			if filter.ActivityCode == "" {
				return fmt.Errorf("--detail-date needs --activity")
			}
			detail := rca.Detail(recs, detailDate, filter.ActivityCode, opts)
			tables = append(tables, report.TableOf("stop_detail", detail))
			out["detail"] = detail
		}
		return emit(cmd.OutOrStdout(), out, tables...)
	},
}

var rootCauseCmd = &cobra.Command{
	Use:   "rootcause",
	Short: "Pareto of cause clusters, affected segments and an action plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		recs, err := selectRecords()
		if err != nil {
			return err
		}

		p := planner()
		if cmd.Flags().Changed("target") {
			p.TargetSLA = targetSLA
		}
		if cmd.Flags().Changed("horizon") {
			p.HorizonDays = horizonDays
		}
		if p.TargetSLA <= 0 || p.TargetSLA > 100 {
			return fmt.Errorf("target must be in (0, 100], got %v", p.TargetSLA)
		}

		res, err := rootcause.Analyze(recs, basis, p, opts)
		if err != nil {
			return err
		}
		if res.Diagnosis.Message != "" && !asJSON {
			fmt.Fprintln(cmd.OutOrStdout(), res.Diagnosis.Message)
		}
		return emit(cmd.OutOrStdout(), res,
			report.TableOf("pareto", res.Diagnosis.Pareto),
			report.TableOf("segments", res.Diagnosis.Segments),
			report.TableOf("action_plan", res.Plan.Actions),
		)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Headline figures for several tolerance values, computed concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		if slices.ContainsFunc(tolerances, func(t int) bool { return t < 0 }) {
			return fmt.Errorf("tolerances must not be negative: %v", tolerances)
		}
		recs, err := selectRecords()
		if err != nil {
			return err
		}

		rows, err := report.Compare(cmd.Context(), recs, report.Params{Options: opts, Planner: planner(), Basis: basis}, tolerances, compareLimit)
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), rows, report.TableOf("comparison", rows))
	},
}

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "On-time KPI against planned arrival",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		recs, err := selectRecords()
		if err != nil {
			return err
		}

		res, err := jit.KPI(recs, groupBy, opts)
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), res,
			report.TableOf("kpi", []jit.KPIOverall{res.Overall}),
			report.TableOf("kpi_detail", res.Detail),
		)
	},
}

var waitsCmd = &cobra.Command{
	Use:   "waits",
	Short: "On-site time per activity, or per stop with --activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		recs, err := selectRecords()
		if err != nil {
			return err
		}

		if filter.ActivityCode == "" {
			rows := jit.Waits(recs, opts)
			return emit(cmd.OutOrStdout(), rows, report.TableOf("waits", rows))
		}
		d := jit.WaitsForActivity(recs, filter.ActivityCode, waitStop, opts)
		return emit(cmd.OutOrStdout(), d,
			report.TableOf("stops", d.Stops),
			report.TableOf("deliveries", d.Deliveries),
			report.TableOf("orders", d.Orders),
		)
	},
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&tableNames, "table", nil, "only print these tables")
	for _, c := range []*cobra.Command{analyzeCmd, rootCauseCmd, compareCmd, reportCmd} {
		c.Flags().StringVar(&basis, "basis", rootcause.BasisScenario2, "root-cause issue basis: s2 or kpi")
	}

	routeCmd.Flags().StringVar(&routeDate, "date", "", "service date (YYYY-MM-DD)")

	driversCmd.Flags().StringVar(&detailDate, "detail-date", "", "list the stops of --activity on this date by wait")
	driversCmd.Flags().BoolVar(&byActivity, "by-activity", false, "one severity distribution per date and activity")

	rootCauseCmd.Flags().Float64Var(&targetSLA, "target", rootcause.DefaultTargetSLA, "target compliance % (default: TARGET_SLA)")
	rootCauseCmd.Flags().IntVar(&horizonDays, "horizon", rootcause.DefaultHorizonDays, "days until action deadlines (default: ACTION_HORIZON_DAYS)")

	compareCmd.Flags().IntSliceVar(&tolerances, "tolerances", []int{0, 5, 10, 15}, "tolerance values in minutes")
	compareCmd.Flags().IntVar(&compareLimit, "limit", 2, "reports computed at the same time")

	kpiCmd.Flags().StringVar(&groupBy, "group-by", "", "date, route, activity, channel or customer")
	waitsCmd.Flags().StringVar(&waitStop, "stop", "", "include the orders of this stop")
}
