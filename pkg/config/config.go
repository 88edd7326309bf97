package config

import (
	"os"
	"strconv"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Catalog   CatalogConfig
	Detection DetectionConfig
	Output    OutputConfig
}

type CatalogConfig struct {
	Path           string
	AutoReload     bool
	ReloadSchedule string
}

type DetectionConfig struct {
	ERPHint          string
	SampleSize       int
	MinConfidence    float64
	BalanceTolerance float64
}

type OutputConfig struct {
	Dir      string
	Prefix   string
	Currency string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Catalog: CatalogConfig{
			Path:           getEnv("LEDGERMAP_CATALOG", ""),
			AutoReload:     getEnvAsBool("LEDGERMAP_CATALOG_AUTO_RELOAD", false),
			ReloadSchedule: getEnv("LEDGERMAP_CATALOG_RELOAD_SCHEDULE", "@every 30s"),
		},
		Detection: DetectionConfig{
			ERPHint:          getEnv("LEDGERMAP_ERP_HINT", ""),
			SampleSize:       getEnvAsInt("LEDGERMAP_SAMPLE_SIZE", 100),
			MinConfidence:    getEnvAsFloat("LEDGERMAP_MIN_CONFIDENCE", 0.3),
			BalanceTolerance: getEnvAsFloat("LEDGERMAP_BALANCE_TOLERANCE", 0.01),
		},
		Output: OutputConfig{
			Dir:      getEnv("LEDGERMAP_OUTPUT_DIR", "results"),
			Prefix:   getEnv("LEDGERMAP_OUTPUT_PREFIX", "transformed"),
			Currency: getEnv("LEDGERMAP_CURRENCY", "EUR"),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
