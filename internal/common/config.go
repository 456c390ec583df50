package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Fees      FeeConfig
	Paths     PathConfig
	Extractor ExtractorConfig
	SMTP      SMTPConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
}

// DatabaseConfig holds draft store configuration
type DatabaseConfig struct {
	Driver          string // "sqlite" or "postgres"
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// FeeConfig holds statutory fee parameters
type FeeConfig struct {
	RatePerSqmDay        int // CZK per m² per day
	FallbackDurationDays int // used when duration cannot be parsed
}

// PathConfig holds filesystem locations used by the pipeline
type PathConfig struct {
	UploadDir string
	OutputDir string
	CacheDir  string
	WatchDir  string
	DraftsDB  string // sqlite file path when Driver == "sqlite"
}

// ExtractorConfig holds entity-extractor API configuration
type ExtractorConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// SMTPConfig holds clerk-notification configuration
type SMTPConfig struct {
	Addr       string // host:port
	User       string
	Password   string
	ClerkEmail string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Fees: FeeConfig{
			RatePerSqmDay:        getEnvAsInt("RATE_PER_SQM_DAY", 10),
			FallbackDurationDays: getEnvAsInt("FALLBACK_DURATION_DAYS", 7),
		},
		Paths: PathConfig{
			UploadDir: getEnv("UPLOAD_DIR", "uploads"),
			OutputDir: getEnv("OUTPUT_DIR", "output"),
			CacheDir:  getEnv("CACHE_DIR", "extraction_cache"),
			WatchDir:  getEnv("WATCH_DIR", "zadosti"),
			DraftsDB:  getEnv("DRAFTS_DB", "drafts.db"),
		},
		Extractor: ExtractorConfig{
			BaseURL: getEnv("EXTRACTOR_BASE_URL", "https://api.tokenfactory.nebius.com/v1"),
			APIKey:  getEnv("EXTRACTOR_API_KEY", ""),
			Model:   getEnv("EXTRACTOR_MODEL", "Qwen/Qwen2.5-VL-72B-Instruct"),
			Timeout: getEnvAsDuration("EXTRACTOR_TIMEOUT", 45*time.Second),
		},
		SMTP: SMTPConfig{
			Addr:       getEnv("SMTP_ADDR", "smtp.gmail.com:587"),
			User:       getEnv("SMTP_USER", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			ClerkEmail: getEnv("CLERK_EMAIL", "clerk@municipality.cz"),
		},
	}
}

// Helper functions for environment variable parsing
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" && c.Database.Driver != "memory" {
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be sqlite, postgres or memory", ErrInvalidInput)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required for the postgres driver", ErrInvalidInput)
	}
	if c.Fees.RatePerSqmDay < 0 {
		return NewAppError("CONFIG_ERROR", "RATE_PER_SQM_DAY must be non-negative", ErrInvalidInput)
	}
	if c.Fees.FallbackDurationDays <= 0 {
		return NewAppError("CONFIG_ERROR", "FALLBACK_DURATION_DAYS must be positive", ErrInvalidInput)
	}
	return nil
}
