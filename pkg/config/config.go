// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Batch error policy names accepted in configuration
const (
	PolicyContinue = "continue"
	PolicyAbort    = "abort"
)

// Config represents the application configuration
type Config struct {
	// Relational sink
	Sink *SinkConfig

	// Ingestion settings
	BatchSize       int
	ProgressEvery   int
	TGNBatchPolicy  string
	HGISBatchPolicy string

	// Working directories
	RawDataDir string
	LogDir     string

	// Training configuration file (YAML)
	ModelConfigPath string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file and then loads configuration from
// environment variables. An empty envFile means ".env" in the working
// directory, which may be absent.
func Load(envFile string) (*Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	return LoadConfig()
}

// LoadEnvFile exports the variables of an env file into the process
// environment without overriding variables that are already set
func LoadEnvFile(envFile string) error {
	if envFile == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to read env file %s: %w", envFile, err)
	}
	return nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		BatchSize:       getEnvAsInt("BATCH_SIZE", 1000),
		ProgressEvery:   getEnvAsInt("PROGRESS_EVERY", 1000),
		TGNBatchPolicy:  strings.ToLower(getEnv("TGN_BATCH_ERROR_POLICY", PolicyContinue)),
		HGISBatchPolicy: strings.ToLower(getEnv("HGIS_BATCH_ERROR_POLICY", PolicyAbort)),
		RawDataDir:      getEnv("RAW_DATA_DIR", "raw_data"),
		LogDir:          getEnv("LOG_DIR", "logs"),
		ModelConfigPath: getEnv("MODEL_CONFIG", "config/model_config.yaml"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
	}

	sinkConfig, err := LoadSinkConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load sink configuration: %w", err)
	}
	cfg.Sink = sinkConfig

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.Sink == nil {
		return errors.New("sink configuration is required")
	}

	if err := c.Sink.Validate(); err != nil {
		return err
	}

	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}

	if c.ProgressEvery <= 0 {
		return errors.New("progress interval must be positive")
	}

	for name, policy := range map[string]string{
		"TGN_BATCH_ERROR_POLICY":  c.TGNBatchPolicy,
		"HGIS_BATCH_ERROR_POLICY": c.HGISBatchPolicy,
	} {
		if policy != PolicyContinue && policy != PolicyAbort {
			return fmt.Errorf("%s must be %q or %q, got %q", name, PolicyContinue, PolicyAbort, policy)
		}
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}
