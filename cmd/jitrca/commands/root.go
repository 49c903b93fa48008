package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"jit-rca/internal/catalog"
	"jit-rca/internal/config"
	"jit-rca/internal/dataset"
	"jit-rca/internal/jit"
	"jit-rca/internal/logging"
	"jit-rca/internal/records"
	"jit-rca/internal/report"
	"jit-rca/internal/rootcause"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
	cat     *catalog.Catalog
	store   *dataset.Store

	datasetRef string
	filter     records.Filter
	tolerance  int
	asJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "jitrca",
	Short: "jitrca measures delivery time-window compliance and attributes delays",
	Long: `Just-in-time delivery analysis over imported order records: Scenario 1/2 window compliance,
route and transport views, delay decomposition, severity buckets and a root-cause action plan.
Without a subcommand it serves the analyses as MCP tools over stdio.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		cat, err = cfg.Catalog()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load catalog")
		}

		store = dataset.NewStore(cfg.DatasetDir)
		if err := store.Load(); err != nil {
			log.Fatal().Err(err).Str("path", cfg.DatasetDir).Msg("Failed to load datasets")
		}

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Int("datasets", len(store.List())).
			Msg("jitrca starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVarP(&datasetRef, "dataset", "d", "", "dataset id or name (default: most recent import)")
	pf.StringVar(&filter.DateFrom, "date-from", "", "first date to include (YYYY-MM-DD)")
	pf.StringVar(&filter.DateTo, "date-to", "", "last date to include (YYYY-MM-DD)")
	pf.StringVar(&filter.ActivityCode, "activity", "", "only records of this activity code")
	pf.StringVar(&filter.RouteID, "route", "", "only records of this route")
	pf.StringVar(&filter.CustomerID, "customer", "", "only records of this customer")
	pf.IntVarP(&tolerance, "tolerance", "t", 0, "window tolerance in minutes (default: TOLERANCE_MINUTES)")
	pf.BoolVar(&asJSON, "json", false, "print JSON instead of text tables")

	rootCmd.AddCommand(
		analyzeCmd,
		routeCmd,
		transportCmd,
		driversCmd,
		rootCauseCmd,
		compareCmd,
		kpiCmd,
		waitsCmd,
		reportCmd,
		schemaCmd,
		serveCmd,
		importCmd,
		datasetsCmd,
	)
}

// options resolves the tolerance: the flag when given, else the configured default.
func options(cmd *cobra.Command) (jit.Options, error) {
	tol := cfg.ToleranceMinutes
	if cmd.Flags().Changed("tolerance") {
		tol = tolerance
	}
	if tol < 0 {
		return jit.Options{}, fmt.Errorf("tolerance must not be negative, got %d", tol)
	}
	return jit.Options{ToleranceMinutes: tol, Catalog: cat}, nil
}

func planner() rootcause.Params {
	return rootcause.Params{TargetSLA: cfg.TargetSLA, HorizonDays: cfg.ActionHorizonDays}
}

// selectRecords returns the filtered snapshot of the selected dataset.
func selectRecords() ([]records.OrderRecord, error) {
	id, err := store.Resolve(datasetRef)
	if err != nil {
		return nil, err
	}
	recs, err := store.Snapshot(id)
	if err != nil {
		return nil, err
	}

	selected := filter.Apply(recs)
	log.Debug().Str("dataset", id).Int("records", len(recs)).Int("selected", len(selected)).Msg("Records selected")
	return selected, nil
}

// emit prints v as JSON with --json, else the tables as text.
func emit(w io.Writer, v any, tables ...report.Table) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return report.WriteText(w, tables)
}
