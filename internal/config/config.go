package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Data source kinds.
const (
	DataSourceSimulated = "simulated"
	DataSourceScript    = "script"
)

// devSessionSecret signs flash cookies when SESSION_SECRET is unset.
const devSessionSecret = "kpiboard-development-secret-change-me"

// Provider exposes configuration to components.
type Provider interface {
	GetAppAddr() string
	GetSessionDir() string
	GetSessionSecret() string
	GetDataSource() string
	GetDataSourceDelay() time.Duration
	GetDataSourceFailureRate() float64
	GetDataSourceScript() string
	GetDefaultRangeDays() int
	GetLocale() string
	GetCurrencySymbol() string
	GetTracingEnabled() bool
	GetTracingServiceName() string
	GetTracingZipkinURL() string
}

// Config holds all configuration for the application.
type Config struct {
	AppAddr               string
	SessionDir            string
	SessionSecret         string
	DataSource            string
	DataSourceDelay       time.Duration
	DataSourceFailureRate float64
	DataSourceScript      string
	DefaultRangeDays      int
	Locale                string
	CurrencySymbol        string
	TracingEnabled        bool
	TracingServiceName    string
	TracingZipkinURL      string
}

var _ Provider = (*Config)(nil)

// New loads .env (if present) and then reads the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv reads configuration from the environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppAddr:            getEnv("APP_ADDR", ":8080"),
		SessionDir:         getEnv("SESSION_DIR", "./data"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		DataSource:         strings.ToLower(getEnv("DATA_SOURCE", DataSourceSimulated)),
		DataSourceScript:   os.Getenv("DATA_SOURCE_SCRIPT"),
		Locale:             getEnv("LOCALE", "pt-BR"),
		CurrencySymbol:     getEnv("CURRENCY_SYMBOL", "R$"),
		TracingServiceName: getEnv("TRACING_SERVICE_NAME", "kpiboard"),
		TracingZipkinURL:   getEnv("TRACING_ZIPKIN_URL", "http://localhost:9411/api/v2/spans"),
	}

	var err error
	if cfg.DataSourceDelay, err = time.ParseDuration(getEnv("DATA_SOURCE_DELAY", "1500ms")); err != nil {
		return nil, fmt.Errorf("DATA_SOURCE_DELAY: %w", err)
	}
	if cfg.DataSourceFailureRate, err = strconv.ParseFloat(getEnv("DATA_SOURCE_FAILURE_RATE", "0"), 64); err != nil {
		return nil, fmt.Errorf("DATA_SOURCE_FAILURE_RATE: %w", err)
	}
	if cfg.DefaultRangeDays, err = strconv.Atoi(getEnv("DEFAULT_RANGE_DAYS", "30")); err != nil {
		return nil, fmt.Errorf("DEFAULT_RANGE_DAYS: %w", err)
	}
	if cfg.TracingEnabled, err = strconv.ParseBool(getEnv("TRACING_ENABLED", "false")); err != nil {
		return nil, fmt.Errorf("TRACING_ENABLED: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		slog.Warn("SESSION_SECRET is not set, using the development secret")
		cfg.SessionSecret = devSessionSecret
	}
	return cfg, nil
}

// Validate checks value ranges and combinations.
func (c *Config) Validate() error {
	switch c.DataSource {
	case DataSourceSimulated, DataSourceScript:
	default:
		return fmt.Errorf("DATA_SOURCE must be %q or %q, got %q", DataSourceSimulated, DataSourceScript, c.DataSource)
	}
	if c.DataSourceFailureRate < 0 || c.DataSourceFailureRate > 1 {
		return fmt.Errorf("DATA_SOURCE_FAILURE_RATE must be within [0,1], got %v", c.DataSourceFailureRate)
	}
	if c.DataSourceDelay < 0 {
		return fmt.Errorf("DATA_SOURCE_DELAY must not be negative, got %v", c.DataSourceDelay)
	}
	if c.DefaultRangeDays < 1 {
		return fmt.Errorf("DEFAULT_RANGE_DAYS must be at least 1, got %d", c.DefaultRangeDays)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func (c *Config) GetAppAddr() string                { return c.AppAddr }
func (c *Config) GetSessionDir() string             { return c.SessionDir }
func (c *Config) GetSessionSecret() string          { return c.SessionSecret }
func (c *Config) GetDataSource() string             { return c.DataSource }
func (c *Config) GetDataSourceDelay() time.Duration { return c.DataSourceDelay }
func (c *Config) GetDataSourceFailureRate() float64 { return c.DataSourceFailureRate }
func (c *Config) GetDataSourceScript() string       { return c.DataSourceScript }
func (c *Config) GetDefaultRangeDays() int          { return c.DefaultRangeDays }
func (c *Config) GetLocale() string                 { return c.Locale }
func (c *Config) GetCurrencySymbol() string         { return c.CurrencySymbol }
func (c *Config) GetTracingEnabled() bool           { return c.TracingEnabled }
func (c *Config) GetTracingServiceName() string     { return c.TracingServiceName }
func (c *Config) GetTracingZipkinURL() string       { return c.TracingZipkinURL }
