// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the databases (always absolute)
	Port     int
	DevMode  bool
	LogLevel string

	// RandomSeed seeds the prediction engines' random sources.
	// Zero means "seed from the current time" (production default);
	// a non-zero value makes churn confidences, forecast noise and
	// retrain accuracies reproducible across restarts.
	RandomSeed int64

	// Scheduler settings. Cron specs use the robfig/cron format with
	// a seconds field.
	SchedulerEnabled          bool
	ChurnRescoreSpec          string
	RecommendationRefreshSpec string
	PredictionPruneSpec       string
	WALCheckpointSpec         string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// INSIGHT_DATA_DIR if set, otherwise ./data, always resolved to
	// an absolute path that is guaranteed to exist.
	dataDir := getEnv("INSIGHT_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:                   absDataDir,
		Port:                      getEnvAsInt("INSIGHT_PORT", 8080),
		DevMode:                   getEnvAsBool("DEV_MODE", false),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		RandomSeed:                int64(getEnvAsInt("INSIGHT_RANDOM_SEED", 0)),
		SchedulerEnabled:          getEnvAsBool("SCHEDULER_ENABLED", true),
		ChurnRescoreSpec:          getEnv("CHURN_RESCORE_SPEC", "0 0 3 * * *"),
		RecommendationRefreshSpec: getEnv("RECOMMENDATION_REFRESH_SPEC", "0 30 3 * * *"),
		PredictionPruneSpec:       getEnv("PREDICTION_PRUNE_SPEC", "0 0 4 * * *"),
		WALCheckpointSpec:         getEnv("WAL_CHECKPOINT_SPEC", "0 0 5 * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
