package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	Symbol           string
	DataFile         string
	PopulationSize   int
	BatchSize        int
	HistoryLimit     int
	SourceTimeout    time.Duration
	TrainingSchedule string
	CalibrationFile  string
	LogLevel         string

	PostgresDSN  string
	KafkaBrokers string
	KafkaTopic   string
	DeployURL    string
	DeployToken  string
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := Config{
		Symbol:           getEnvWithDefault("SYMBOL", "EUR/USD"),
		DataFile:         getEnvWithDefault("DATA_FILE", "data/candles.csv"),
		PopulationSize:   getEnvIntWithDefault("POPULATION_SIZE", 5000),
		BatchSize:        getEnvIntWithDefault("BATCH_SIZE", 50),
		HistoryLimit:     getEnvIntWithDefault("HISTORY_LIMIT", 200),
		SourceTimeout:    time.Duration(getEnvIntWithDefault("SOURCE_TIMEOUT_MS", 2000)) * time.Millisecond,
		TrainingSchedule: getEnvWithDefault("TRAINING_SCHEDULE", "@hourly"),
		CalibrationFile:  getEnvWithDefault("CALIBRATION_FILE", ""),
		LogLevel:         getEnvWithDefault("LOG_LEVEL", "info"),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		KafkaBrokers:     os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:       getEnvWithDefault("KAFKA_TOPIC", "training-runs"),
		DeployURL:        os.Getenv("DEPLOY_URL"),
		DeployToken:      os.Getenv("DEPLOY_TOKEN"),
	}

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
