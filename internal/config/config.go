package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"jit-rca/internal/catalog"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath    string
	LogDir      string
	DatasetDir  string
	CatalogPath string

	ToleranceMinutes    int
	TargetSLA           float64
	ActionHorizonDays   int
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// Binary directory first; MCP clients start the server from anywhere.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	datasetDir := filepath.Join(dataPath, "datasets")

	if err := os.MkdirAll(datasetDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", datasetDir).Msg("Failed to create dataset directory")
	}

	cfg := &AppConfig{
		DataPath:            dataPath,
		LogDir:              logDir,
		DatasetDir:          datasetDir,
		CatalogPath:         getEnv("CATALOG_PATH", ""),
		ToleranceMinutes:    getEnvInt("TOLERANCE_MINUTES", 0),
		TargetSLA:           getEnvFloat("TARGET_SLA", 97.0),
		ActionHorizonDays:   getEnvInt("ACTION_HORIZON_DAYS", 14),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}

	if cfg.ToleranceMinutes < 0 {
		return nil, fmt.Errorf("TOLERANCE_MINUTES must not be negative, got %d", cfg.ToleranceMinutes)
	}
	if cfg.TargetSLA <= 0 || cfg.TargetSLA > 100 {
		return nil, fmt.Errorf("TARGET_SLA must be in (0, 100], got %v", cfg.TargetSLA)
	}

	return cfg, nil
}

// Catalog loads the lookup catalog from CatalogPath, or the built-in defaults when unset.
func (c *AppConfig) Catalog() (*catalog.Catalog, error) {
	if c.CatalogPath == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(c.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", c.CatalogPath, err)
	}
	log.Debug().Str("path", c.CatalogPath).Msg("Loaded catalog override")
	return cat, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer setting")
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric setting")
	}
	return fallback
}
