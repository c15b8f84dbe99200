package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the reporting service.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	ClickHouse ClickHouseConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
	Metrics    MetricsConfig
	Notify     NotifyConfig
	Platform   PlatformConfig
	FX         FXConfig
}

type ServerConfig struct {
	Addr            string
	Env             string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// ClickHouseConfig configures the analytics warehouse connection.
type ClickHouseConfig struct {
	Addr     string
	Database string
	User     string
	Password string
}

type AuthConfig struct {
	Enabled   bool
	MasterKey string
	SkipPaths []string
}

type RateLimitConfig struct {
	Enabled    bool
	RPS        float64
	Burst      int
	BuildRPS   float64
	BuildBurst int
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// NotifyConfig configures the publish notification webhook.
type NotifyConfig struct {
	WebhookURL string
	Channel    string
}

// PlatformConfig holds the upstream ad platform OAuth credentials used
// by the warehouse sync jobs.
type PlatformConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// FXConfig holds the fixed currency conversion rate.
type FXConfig struct {
	KRWPerUSD float64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("POLARAD_HTTP_ADDR", ":8080"),
			Env:             getEnv("POLARAD_ENV", "development"),
			ShutdownTimeout: getDurationEnv("POLARAD_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POLARAD_DB_HOST", "localhost"),
			Port:     getIntEnv("POLARAD_DB_PORT", 5432),
			User:     getEnv("POLARAD_DB_USER", "polarad"),
			Password: getEnv("POLARAD_DB_PASSWORD", "polarad_secret"),
			DBName:   getEnv("POLARAD_DB_NAME", "polarad_reports"),
			SSLMode:  getEnv("POLARAD_DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("POLARAD_DB_MAX_CONNS", 25),
			MinConns: getIntEnv("POLARAD_DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("POLARAD_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("POLARAD_REDIS_PASSWORD", ""),
			DB:       getIntEnv("POLARAD_REDIS_DB", 0),
			CacheTTL: getDurationEnv("POLARAD_REPORT_CACHE_TTL", 10*time.Minute),
		},
		ClickHouse: ClickHouseConfig{
			Addr:     getEnv("POLARAD_CLICKHOUSE_ADDR", "localhost:9000"),
			Database: getEnv("POLARAD_CLICKHOUSE_DB", "ad_metrics"),
			User:     getEnv("POLARAD_CLICKHOUSE_USER", "default"),
			Password: getEnv("POLARAD_CLICKHOUSE_PASSWORD", ""),
		},
		Auth: AuthConfig{
			Enabled:   getBoolEnv("POLARAD_AUTH_ENABLED", true),
			MasterKey: getEnv("POLARAD_API_KEY_MASTER", ""),
			SkipPaths: getSliceEnv("POLARAD_AUTH_SKIP_PATHS", []string{"/health", "/metrics"}),
		},
		RateLimit: RateLimitConfig{
			Enabled:    getBoolEnv("POLARAD_RATE_LIMIT_ENABLED", true),
			RPS:        getFloatEnv("POLARAD_RATE_LIMIT_RPS", 100),
			Burst:      getIntEnv("POLARAD_RATE_LIMIT_BURST", 20),
			BuildRPS:   getFloatEnv("POLARAD_RATE_LIMIT_BUILD_RPS", 5),
			BuildBurst: getIntEnv("POLARAD_RATE_LIMIT_BUILD_BURST", 2),
		},
		Log: LogConfig{
			Level:  getEnv("POLARAD_LOG_LEVEL", "info"),
			Format: getEnv("POLARAD_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("POLARAD_METRICS_ENABLED", true),
			Path:    getEnv("POLARAD_METRICS_PATH", "/metrics"),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("POLARAD_NOTIFY_WEBHOOK_URL", ""),
			Channel:    getEnv("POLARAD_NOTIFY_CHANNEL", "#ad-reports"),
		},
		Platform: PlatformConfig{
			TokenURL:     getEnv("POLARAD_PLATFORM_TOKEN_URL", ""),
			ClientID:     getEnv("POLARAD_PLATFORM_CLIENT_ID", ""),
			ClientSecret: getEnv("POLARAD_PLATFORM_CLIENT_SECRET", ""),
			RefreshToken: getEnv("POLARAD_PLATFORM_REFRESH_TOKEN", ""),
		},
		FX: FXConfig{
			KRWPerUSD: getFloatEnv("POLARAD_FX_KRW_PER_USD", 1300),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.MasterKey == "" {
		return fmt.Errorf("POLARAD_API_KEY_MASTER is required when auth is enabled")
	}
	if c.FX.KRWPerUSD <= 0 {
		return fmt.Errorf("POLARAD_FX_KRW_PER_USD must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getSliceEnv(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		return result
	}
	return def
}
