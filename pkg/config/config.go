// Package config provides configuration management for ensemble runs.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/aristath/wigner/pkg/ensemble"
	"github.com/aristath/wigner/pkg/logger"
	"github.com/aristath/wigner/pkg/operators"
)

// Config holds ensemble configuration
type Config struct {
	LogLevel     string
	LogPretty    bool
	NFrames      int
	Workers      int     // 0 = one per physical core
	Seed         uint64  // seeds the per-frame random sources
	ExcitedRatio float64 // sampling-precision ratio for a dof carrying one exciton
}

// Load reads configuration from environment variables, after loading a .env file if present
func Load() (*Config, error) {
	_ = godotenv.Load()

	seed, err := getEnvAsUint64("WIGNER_SEED", 1)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    getEnvAsBool("LOG_PRETTY", false),
		NFrames:      getEnvAsInt("WIGNER_N_FRAMES", 1000),
		Workers:      getEnvAsInt("WIGNER_WORKERS", 0),
		Seed:         seed,
		ExcitedRatio: getEnvAsFloat("WIGNER_EXCITED_RATIO", operators.DefaultRatios()[1]),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.NFrames < 1 {
		return fmt.Errorf("WIGNER_N_FRAMES must be at least 1, got %d", c.NFrames)
	}
	if c.Workers < 0 {
		return fmt.Errorf("WIGNER_WORKERS must not be negative, got %d", c.Workers)
	}
	if c.ExcitedRatio < 1.0 {
		return fmt.Errorf("WIGNER_EXCITED_RATIO must be at least 1, got %g", c.ExcitedRatio)
	}
	return nil
}

// Ratios returns the sampling ratio table for CoherentProjection.SamplerWithRatios
func (c *Config) Ratios() map[int]float64 {
	ratios := operators.DefaultRatios()
	ratios[1] = c.ExcitedRatio
	return ratios
}

// Logger returns the logger configuration
func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:  c.LogLevel,
		Pretty: c.LogPretty,
	}
}

// EnsembleOptions returns runner options; the engine is left for the caller to set
func (c *Config) EnsembleOptions() ensemble.Options {
	return ensemble.Options{
		NFrames: c.NFrames,
		Workers: c.Workers,
		Seed:    c.Seed,
	}
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvAsUint64 fails on malformed values rather than falling back
func getEnvAsUint64(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return parsed, nil
}
