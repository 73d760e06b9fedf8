package config

import (
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"surveyclean/domain/cleaning"
	"surveyclean/domain/stats"
	"surveyclean/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
	Cleaning CleaningConfig
	Weights  stats.WeightConfig
}

// DatabaseConfig holds database connection settings. An empty URL keeps
// everything in memory.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port        string `validate:"required"`
	MaxUploadMB int    `validate:"gt=0"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string `validate:"oneof=console json"`
}

// CleaningConfig holds the default cleaning pass settings
type CleaningConfig struct {
	Defaults    cleaning.Config
	Threshold   float64 `validate:"gt=0"`
	ProfilePath string
	NoiseSeed   int64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{URL: getEnvOrDefault("DATABASE_URL", "")},
		Server:   *loadServerConfig(),
		Logging:  *loadLoggingConfig(),
		Cleaning: *loadCleaningConfig(),
		Weights: stats.WeightConfig{
			WeightColumn:         getEnvOrDefault("WEIGHT_COLUMN", ""),
			ComputeMarginOfError: getEnvBoolOrDefault("WEIGHT_MARGIN_OF_ERROR", true),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:        getEnvOrDefault("PORT", "8080"),
		MaxUploadMB: getEnvIntOrDefault("MAX_UPLOAD_MB", 32),
	}
}

func loadLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "console")),
	}
}

func loadCleaningConfig() *CleaningConfig {
	threshold := getEnvFloatOrDefault("CLEAN_OUTLIER_THRESHOLD", cleaning.DefaultOutlierThreshold)
	return &CleaningConfig{
		Defaults: cleaning.Config{
			MissingValueMethod:    cleaning.ParseMissingValueMethod(getEnvOrDefault("CLEAN_MISSING_METHOD", string(cleaning.MissingMean))),
			OutlierMethod:         cleaning.ParseOutlierMethod(getEnvOrDefault("CLEAN_OUTLIER_METHOD", string(cleaning.OutlierIQR))),
			OutlierThreshold:      threshold,
			RuleValidationEnabled: getEnvBoolOrDefault("CLEAN_RULE_VALIDATION", false),
		},
		Threshold:   threshold,
		ProfilePath: getEnvOrDefault("CLEAN_PROFILE", ""),
		NoiseSeed:   int64(getEnvIntOrDefault("NOISE_SEED", 0)),
	}
}

var validate = validator.New()

func validateConfig(config *Config) error {
	if math.IsInf(config.Cleaning.Threshold, 0) {
		return errors.ConfigInvalid("CLEAN_OUTLIER_THRESHOLD must be finite")
	}
	if err := validate.Struct(config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
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
