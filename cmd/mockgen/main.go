package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"jit-rca/cmd/mockgen/engine"
	"jit-rca/internal/dataset"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	outDir := flag.String("out", "./datasets", "Dataset store directory (DATA_PATH/datasets for jitrca)")
	name := flag.String("name", "", "Dataset name (default: mock-<scenario>)")
	days := flag.Int("days", 14, "Number of service days")
	routes := flag.Int("routes", 12, "Routes per day")
	stops := flag.Int("stops", 8, "Stops per route")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:      *scenario,
		Days:          *days,
		Routes:        *routes,
		StopsPerRoute: *stops,
		Seed:          *seed,
		Start:         time.Now().AddDate(0, 0, -*days),
	}

	fmt.Printf("Generating scenario '%s' (%d days x %d routes x %d stops) to %s...\n", cfg.Scenario, cfg.Days, cfg.Routes, cfg.StopsPerRoute, *outDir)

	recs, err := engine.Generate(cfg)
	if err != nil {
		fmt.Printf("Failed to generate mock data: %v\n", err)
		os.Exit(1)
	}

	store := dataset.NewStore(*outDir)
	if err := store.Load(); err != nil {
		fmt.Printf("Failed to open dataset store: %v\n", err)
		os.Exit(1)
	}

	if *name == "" {
		*name = "mock-" + cfg.Scenario
	}
	info := store.Put(*name, recs)
	if err := store.Save(info.ID); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. %d records as dataset %s (%s).\n", info.Records, info.ID, info.Name)
}
