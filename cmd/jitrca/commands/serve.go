package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"jit-rca/internal/catalog"
	"jit-rca/internal/mcp"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyses as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	active := catalog.NewActive(cat)
	if cfg.CatalogPath != "" {
		go func() {
			if err := catalog.Watch(ctx, cfg.CatalogPath, active); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("path", cfg.CatalogPath).Msg("Catalog watcher stopped")
			}
		}()
	}

	server := mcp.NewServer(store, active, mcp.Settings{
		ToleranceMinutes: cfg.ToleranceMinutes,
		TargetSLA:        cfg.TargetSLA,
		HorizonDays:      cfg.ActionHorizonDays,
		Charts:           cfg.EnableMermaidCharts,
		CompareLimit:     2,
	})
	if err := server.Serve(ctx, Version); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("MCP server stopped")
	return nil
}
