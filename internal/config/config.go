package config

import (
	"os"
	"strconv"
	"strings"

	"simvote/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	LogLevel string
	Output   OutputConfig
	Chart    ChartConfig
	Load     LoadConfig
}

// OutputConfig holds artifact output settings
type OutputConfig struct {
	Dir       string
	Overwrite bool
}

// ChartConfig holds chart rendering settings
type ChartConfig struct {
	Width    int
	Height   int
	HistBins int
}

// LoadConfig holds scenario loading settings
type LoadConfig struct {
	Concurrency int
}

// Default values
const (
	DefaultOutputDir   = "./out"
	DefaultChartWidth  = 1024
	DefaultChartHeight = 600
	// matplotlib's default bin count
	DefaultHistBins    = 10
	DefaultConcurrency = 4
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		LogLevel: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
		Output:   *loadOutputConfig(),
		Chart:    *loadChartConfig(),
		Load:     *loadLoadConfig(),
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		LogLevel: "INFO",
		Output:   OutputConfig{Dir: DefaultOutputDir},
		Chart:    ChartConfig{Width: DefaultChartWidth, Height: DefaultChartHeight, HistBins: DefaultHistBins},
		Load:     LoadConfig{Concurrency: DefaultConcurrency},
	}
}

func loadOutputConfig() *OutputConfig {
	return &OutputConfig{
		Dir:       getEnvOrDefault("SIMVOTE_OUTPUT_DIR", DefaultOutputDir),
		Overwrite: getEnvBoolOrDefault("SIMVOTE_OVERWRITE", false),
	}
}

func loadChartConfig() *ChartConfig {
	return &ChartConfig{
		Width:    getEnvIntOrDefault("SIMVOTE_CHART_WIDTH", DefaultChartWidth),
		Height:   getEnvIntOrDefault("SIMVOTE_CHART_HEIGHT", DefaultChartHeight),
		HistBins: getEnvIntOrDefault("SIMVOTE_HIST_BINS", DefaultHistBins),
	}
}

func loadLoadConfig() *LoadConfig {
	return &LoadConfig{
		Concurrency: getEnvIntOrDefault("SIMVOTE_LOAD_CONCURRENCY", DefaultConcurrency),
	}
}

// Validate checks value ranges
func Validate(config *Config) error {
	switch config.LogLevel {
	case "ERROR", "WARN", "INFO", "DEBUG", "TRACE":
	default:
		return errors.ConfigInvalid("LOG_LEVEL must be one of ERROR, WARN, INFO, DEBUG, TRACE")
	}
	if config.Output.Dir == "" {
		return errors.ConfigInvalid("output directory is required")
	}
	if config.Chart.Width < 100 || config.Chart.Height < 100 {
		return errors.ConfigInvalid("chart dimensions must be at least 100x100")
	}
	if config.Chart.HistBins < 1 {
		return errors.ConfigInvalid("histogram bin count must be positive")
	}
	if config.Load.Concurrency < 1 {
		return errors.ConfigInvalid("load concurrency must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
