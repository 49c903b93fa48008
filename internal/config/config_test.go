package config

import (
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("LOGS_FOLDER", filepath.Join(dir, "l"))
	t.Setenv("TOLERANCE_MINUTES", "")
	t.Setenv("TARGET_SLA", "")
	t.Setenv("ACTION_HORIZON_DAYS", "")
	t.Setenv("ENABLE_MERMAID_CHARTS", "")
	t.Setenv("CATALOG_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DatasetDir != filepath.Join(dir, "datasets") || cfg.LogDir != filepath.Join(dir, "l") {
		t.Errorf("unexpected paths: %+v", cfg)
	}
	if cfg.ToleranceMinutes != 0 || cfg.TargetSLA != 97 || cfg.ActionHorizonDays != 14 || cfg.EnableMermaidCharts {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	cat, err := cfg.Catalog()
	if err != nil || cat == nil {
		t.Fatalf("expected the built-in catalog, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("TOLERANCE_MINUTES", "5")
	t.Setenv("TARGET_SLA", "95.5")
	t.Setenv("ACTION_HORIZON_DAYS", "notanumber")
	t.Setenv("ENABLE_MERMAID_CHARTS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ToleranceMinutes != 5 || cfg.TargetSLA != 95.5 || !cfg.EnableMermaidCharts {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.ActionHorizonDays != 14 {
		t.Errorf("an unparsable value must fall back to the default, got %d", cfg.ActionHorizonDays)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"NegativeTolerance", "TOLERANCE_MINUTES", "-1"},
		{"TargetAboveHundred", "TARGET_SLA", "101"},
		{"ZeroTarget", "TARGET_SLA", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATA_PATH", t.TempDir())
			t.Setenv("TOLERANCE_MINUTES", "0")
			t.Setenv("TARGET_SLA", "97")
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected an error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestCatalog_MissingFile(t *testing.T) {
	cfg := &AppConfig{CatalogPath: filepath.Join(t.TempDir(), "missing.yaml")}
	if _, err := cfg.Catalog(); err == nil {
		t.Error("expected an error for a missing catalog file")
	}
}
