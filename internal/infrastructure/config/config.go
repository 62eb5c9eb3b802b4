// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion       string
	LogLevel         string
	MetricsNamespace string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Relational store
	StoreDriver string
	PostgresURI string

	// MongoDB (audit log)
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// Uploads
	UploadTempDir  string
	UploadMaxBytes int64

	// Fetching
	FetchHTTPTimeout      time.Duration
	FetchRetryMaxAttempts int
	FetchRetryBackoff     time.Duration
	FetchScheduleInterval time.Duration
	RawSnapshotBytes      int

	// Task queue
	TaskWorkers   int
	TaskQueueSize int

	// Ingestion
	BulkConflictPolicy string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:       getEnv("APP_VERSION", "1.0.0"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "roster"),

		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		PostgresURI: getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=roster port=5432 sslmode=disable"),

		MongoURI:      getEnv("MONGODB_DSN", ""),
		MongoDB:       getEnv("MONGO_DB", "roster"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		UploadTempDir:  getEnv("UPLOAD_TEMP_DIR", os.TempDir()),
		UploadMaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 10<<20)),

		FetchHTTPTimeout:      time.Duration(getEnvAsInt("FETCH_HTTP_TIMEOUT", 30)) * time.Second,
		FetchRetryMaxAttempts: getEnvAsInt("FETCH_RETRY_MAX_ATTEMPTS", 3),
		FetchRetryBackoff:     time.Duration(getEnvAsInt("FETCH_RETRY_BACKOFF", 60)) * time.Second,
		FetchScheduleInterval: time.Duration(getEnvAsInt("FETCH_SCHEDULE_INTERVAL", 900)) * time.Second,
		RawSnapshotBytes:      getEnvAsInt("RAW_SNAPSHOT_BYTES", 64<<10),

		TaskWorkers:   getEnvAsInt("TASK_WORKERS", 4),
		TaskQueueSize: getEnvAsInt("TASK_QUEUE_SIZE", 100),

		BulkConflictPolicy: strings.ToLower(getEnv("BULK_CONFLICT_POLICY", "ignore")),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.BulkConflictPolicy {
	case "ignore", "reject":
	default:
		return fmt.Errorf("unsupported BULK_CONFLICT_POLICY %q", c.BulkConflictPolicy)
	}
	if c.FetchRetryMaxAttempts < 1 {
		return fmt.Errorf("FETCH_RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.FetchRetryMaxAttempts)
	}
	if c.TaskWorkers < 1 {
		return fmt.Errorf("TASK_WORKERS must be at least 1, got %d", c.TaskWorkers)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.UploadMaxBytes)
	}
	return nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
