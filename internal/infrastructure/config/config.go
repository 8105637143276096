package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	Wawi     WawiConfig
	Sync     SyncConfig
	HTTP     HTTPConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// WawiConfig holds the external WAWI API connection settings
type WawiConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	// MaxRetries is the bounded retry ceiling for auth/transient failures
	MaxRetries int
	// RetryBaseDelay is multiplied by the attempt number (linear backoff)
	RetryBaseDelay time.Duration
	// TokenExpiryBuffer refreshes tokens this long before actual expiry
	TokenExpiryBuffer time.Duration
}

// Validate checks that the WAWI integration is configured
func (c *WawiConfig) Validate() error {
	if c.BaseURL == "" || c.TokenURL == "" {
		return fmt.Errorf("wawi base_url and token_url are required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid wawi base_url: %w", err)
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("wawi client_id and client_secret are required")
	}
	return nil
}

// SyncConfig holds cascade sync orchestration settings
type SyncConfig struct {
	// Enabled controls the timer-driven scheduler
	Enabled bool
	// IncrementalInterval is the period between incremental runs
	IncrementalInterval time.Duration
	// IncrementalHoursBack is the modified-since window for incremental runs
	IncrementalHoursBack int
	// FullSyncHour is the local hour of day for the daily full run (0-23)
	FullSyncHour int
	// BatchSize is the customer page size during full runs
	BatchSize int
	// ProductFreshnessWindow skips re-fetching products synced within it
	ProductFreshnessWindow time.Duration
	// AuthErrorThreshold is the consecutive auth failure count that
	// triggers a sync cooldown
	AuthErrorThreshold int
	// AuthErrorCooldown is the pause applied when the threshold is hit
	AuthErrorCooldown time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
}

// Load loads configuration from YAML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with LOYALTY_ prefix (e.g., LOYALTY_DATABASE_PASSWORD)
// 2. config.yaml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("LOYALTY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Wawi: WawiConfig{
			BaseURL:           v.GetString("wawi.base_url"),
			TokenURL:          v.GetString("wawi.token_url"),
			ClientID:          v.GetString("wawi.client_id"),
			ClientSecret:      v.GetString("wawi.client_secret"),
			Timeout:           v.GetDuration("wawi.timeout"),
			MaxRetries:        v.GetInt("wawi.max_retries"),
			RetryBaseDelay:    v.GetDuration("wawi.retry_base_delay"),
			TokenExpiryBuffer: v.GetDuration("wawi.token_expiry_buffer"),
		},
		Sync: SyncConfig{
			Enabled:                v.GetBool("sync.enabled"),
			IncrementalInterval:    v.GetDuration("sync.incremental_interval"),
			IncrementalHoursBack:   v.GetInt("sync.incremental_hours_back"),
			FullSyncHour:           v.GetInt("sync.full_sync_hour"),
			BatchSize:              v.GetInt("sync.batch_size"),
			ProductFreshnessWindow: v.GetDuration("sync.product_freshness_window"),
			AuthErrorThreshold:     v.GetInt("sync.auth_error_threshold"),
			AuthErrorCooldown:      v.GetDuration("sync.auth_error_cooldown"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
		},
	}

	return cfg, nil
}

// setDefaults registers the built-in defaults
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "loyalty-backend")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "loyalty")
	v.SetDefault("database.dbname", "loyalty")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.conn_max_idle_time", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("wawi.timeout", 30*time.Second)
	v.SetDefault("wawi.max_retries", 3)
	v.SetDefault("wawi.retry_base_delay", time.Second)
	v.SetDefault("wawi.token_expiry_buffer", time.Minute)

	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.incremental_interval", time.Hour)
	v.SetDefault("sync.incremental_hours_back", 2)
	v.SetDefault("sync.full_sync_hour", 3)
	v.SetDefault("sync.batch_size", 50)
	v.SetDefault("sync.product_freshness_window", time.Hour)
	v.SetDefault("sync.auth_error_threshold", 10)
	v.SetDefault("sync.auth_error_cooldown", 5*time.Minute)

	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", time.Minute)
	v.SetDefault("http.max_header_bytes", 1<<20)
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
