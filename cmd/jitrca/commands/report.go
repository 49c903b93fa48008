package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jit-rca/internal/report"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	reportOut  string
	reportOpen bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render every table, and the charts when enabled, as one HTML page",
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

		path := reportOut
		if path == "" {
			path = filepath.Join(cfg.DataPath, fmt.Sprintf("jitrca-report-%s.html", time.Now().Format("20060102-150405")))
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer f.Close()

		title := fmt.Sprintf("JIT compliance report (tolerance %d min)", res.Tolerance)
		if err := report.WriteHTML(f, res, title, cfg.EnableMermaidCharts, time.Now()); err != nil {
			return fmt.Errorf("render report: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Info().Str("path", path).Bool("charts", cfg.EnableMermaidCharts).Msg("Report written")
		fmt.Fprintln(cmd.OutOrStdout(), path)

		if reportOpen {
			return browser.OpenFile(path)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output file (default: timestamped file in DATA_PATH)")
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "open the report in the default browser")
}
