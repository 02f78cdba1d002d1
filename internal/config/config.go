// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/utils"
	"github.com/joho/godotenv"
)

// Attachment backends
const (
	AttachmentBackendLocal = "local"
	AttachmentBackendS3    = "s3"
)

// Config holds application configuration
type Config struct {
	DataDir     string // Base directory for the journal database (always absolute)
	Port        int
	LogLevel    string
	DevMode     bool
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string

	RateLimitRPS   float64
	RateLimitBurst int

	MaintenanceSchedule string // cron expression with seconds field
	IntegritySchedule   string

	Attachments *AttachmentConfig
}

// AttachmentConfig selects where trade screenshots are stored
type AttachmentConfig struct {
	Backend string // "local" or "s3"
	Dir     string // local backend root

	S3Bucket          string
	S3Region          string
	S3Endpoint        string // optional, for S3-compatible stores
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TRADEBOOK_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		Port:                getEnvAsInt("PORT", 8001),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		TokenTTL:            getEnvAsDuration("TOKEN_TTL", 30*time.Minute),
		CORSOrigins:         getEnvAsList("CORS_ORIGINS", []string{"*"}),
		RateLimitRPS:        getEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:      getEnvAsInt("RATE_LIMIT_BURST", 40),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "0 0 3 * * *"),
		IntegritySchedule:   getEnv("INTEGRITY_SCHEDULE", "0 30 3 * * 0"),
		Attachments: &AttachmentConfig{
			Backend:           strings.ToLower(getEnv("ATTACHMENT_BACKEND", AttachmentBackendLocal)),
			Dir:               getEnv("ATTACHMENT_DIR", filepath.Join(absDataDir, "uploads", "screenshots")),
			S3Bucket:          getEnv("S3_BUCKET", ""),
			S3Region:          getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:        getEnv("S3_ENDPOINT", ""),
			S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		},
	}

	// A throwaway secret keeps local development friction-free
	if cfg.JWTSecret == "" && cfg.DevMode {
		cfg.JWTSecret = "dev-insecure-secret"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabasePath returns the path of the journal database file
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "journal.db")
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required unless DEV_MODE is enabled")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if c.Attachments == nil {
		return fmt.Errorf("attachment configuration missing")
	}
	switch c.Attachments.Backend {
	case AttachmentBackendLocal:
		if c.Attachments.Dir == "" {
			return fmt.Errorf("ATTACHMENT_DIR is required for the local backend")
		}
	case AttachmentBackendS3:
		if c.Attachments.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown ATTACHMENT_BACKEND %q", c.Attachments.Backend)
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if out := utils.ParseCSV(os.Getenv(key)); out != nil {
		return out
	}
	return defaultValue
}
