package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Store    StoreConfig
	Refresh  RefreshConfig
	Tracing  TracingConfig
	LogLevel string
}

type ServerConfig struct {
	Port               string
	Host               string
	ReadTimeout        int
	WriteTimeout       int
	ShutdownTimeout    int
	CORSAllowedOrigins []string
}

// SourceConfig describes where the registry publication lives and how to read it.
type SourceConfig struct {
	LandingPageURL   string
	TableID          string
	NameColumn       string
	StartRow         int
	HTTPTimeout      time.Duration
	MaxDownloadBytes int64
	RateLimit        float64 // requests per second to the registry site, 0 disables
}

// StoreConfig selects the catalog backend.
type StoreConfig struct {
	Driver        string // memory, sqlite, postgres or redis
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

type RefreshConfig struct {
	OnStartup bool
	Interval  time.Duration // zero disables the scheduler
	Timeout   time.Duration
}

type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
	Insecure     bool
	SampleRatio  float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			Host:               getEnv("HOST", "0.0.0.0"),
			ReadTimeout:        getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout:       getEnvAsInt("WRITE_TIMEOUT", 15),
			ShutdownTimeout:    getEnvAsInt("SHUTDOWN_TIMEOUT", 30),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Source: SourceConfig{
			LandingPageURL:   getEnv("SOURCE_LANDING_URL", "https://www.titck.gov.tr/dinamikmodul/43"),
			TableID:          getEnv("SOURCE_TABLE_ID", "myTable"),
			NameColumn:       strings.ToUpper(getEnv("SOURCE_NAME_COLUMN", "A")),
			StartRow:         getEnvAsInt("SOURCE_START_ROW", 4),
			HTTPTimeout:      getEnvAsDuration("SOURCE_HTTP_TIMEOUT", 2*time.Minute),
			MaxDownloadBytes: int64(getEnvAsInt("SOURCE_MAX_DOWNLOAD_MB", 64)) << 20,
			RateLimit:        getEnvAsFloat("SOURCE_RATE_LIMIT", 1.0),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", "memory")),
			DSN:           getEnv("STORE_DSN", ""),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			RedisPrefix:   getEnv("REDIS_PREFIX", "medicines"),
		},
		Refresh: RefreshConfig{
			OnStartup: getEnvAsBool("REFRESH_ON_STARTUP", false),
			Interval:  getEnvAsDuration("REFRESH_INTERVAL", 0),
			Timeout:   getEnvAsDuration("REFRESH_TIMEOUT", 10*time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:     getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio:  getEnvAsFloat("OTEL_SAMPLER_RATIO", 1.0),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Source.LandingPageURL == "" {
		return fmt.Errorf("SOURCE_LANDING_URL is required")
	}

	if c.Source.TableID == "" {
		return fmt.Errorf("SOURCE_TABLE_ID is required")
	}

	if c.Source.StartRow < 1 {
		return fmt.Errorf("SOURCE_START_ROW must be at least 1, got %d", c.Source.StartRow)
	}

	if c.Source.MaxDownloadBytes <= 0 {
		return fmt.Errorf("SOURCE_MAX_DOWNLOAD_MB must be positive")
	}

	if c.Source.RateLimit < 0 {
		return fmt.Errorf("SOURCE_RATE_LIMIT must not be negative")
	}

	switch c.Store.Driver {
	case "memory", "redis":
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("STORE_DSN is required for the %s driver", c.Store.Driver)
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be memory, sqlite, postgres, or redis)", c.Store.Driver)
	}

	if c.Refresh.Interval < 0 {
		return fmt.Errorf("REFRESH_INTERVAL must not be negative")
	}

	if c.Refresh.Timeout <= 0 {
		return fmt.Errorf("REFRESH_TIMEOUT must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go duration strings ("90s", "6h").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
