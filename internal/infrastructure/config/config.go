package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the risk engine.
type Config struct {
	HTTPPort             string
	MongoURI             string
	RedisURL             string
	KafkaBroker          string
	EventTopic           string
	ModelPath            string
	ModelVersion         string
	MLflowTrackingURI    string
	MLflowExperimentName string
	// APIKey protects the scoring endpoints. When empty, authentication is
	// bypassed entirely; that open-by-default exists for local development
	// and is unsafe in production.
	APIKey      string
	CacheTTL    time.Duration
	Environment string
	LogLevel    string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8090"),
		MongoURI:             getEnv("MONGO_URI", "mongodb://localhost:27017/confirmly"),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379"),
		KafkaBroker:          getEnv("KAFKA_BROKER", ""),
		EventTopic:           getEnv("EVENT_TOPIC", "risk.events"),
		ModelPath:            getEnv("MODEL_PATH", "./models/risk_model.json"),
		ModelVersion:         getEnv("MODEL_VERSION", "v1.0.0"),
		MLflowTrackingURI:    getEnv("MLFLOW_TRACKING_URI", ""),
		MLflowExperimentName: getEnv("MLFLOW_EXPERIMENT_NAME", "confirmly-risk-engine"),
		APIKey:               getEnv("ML_API_KEY", ""),
		CacheTTL:             time.Duration(getEnvInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
		Environment:          getEnv("ENVIRONMENT", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
