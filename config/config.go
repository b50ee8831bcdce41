package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultStrategyAPIBaseURL is the hosted strategy service the desk talks to
const DefaultStrategyAPIBaseURL = "https://backend-950106760076.us-central1.run.app"

// DefaultNasdaqScreenerURL lists every NASDAQ-traded symbol in one table
const DefaultNasdaqScreenerURL = "https://api.nasdaq.com/api/screener/stocks?tableonly=true&limit=10000"

// Config holds all application configuration
type Config struct {
	// Remote strategy service
	StrategyAPI StrategyAPIConfig `yaml:"strategy_api"`

	// Initial form values for new sessions
	Form FormConfig `yaml:"form"`

	// Optional circuit breaker in front of the strategy service
	Breaker BreakerConfig `yaml:"breaker"`

	// Session API server
	HTTP HTTPConfig `yaml:"http"`

	Logging LoggingConfig `yaml:"logging"`

	// Scan universe download
	Universe UniverseConfig `yaml:"universe"`
}

// StrategyAPIConfig holds the strategy service origin
type StrategyAPIConfig struct {
	BaseURL string `yaml:"base_url"`
}

// FormConfig holds form defaults
type FormConfig struct {
	DefaultDollars      string `yaml:"default_dollars"`
	DefaultStrategyType string `yaml:"default_strategy_type"`
}

// BreakerConfig holds circuit breaker configuration
type BreakerConfig struct {
	Enabled         bool `yaml:"enabled"`
	MaxRequests     int  `yaml:"max_requests"`
	IntervalSeconds int  `yaml:"interval_seconds"`
	TimeoutSeconds  int  `yaml:"timeout_seconds"`

	// Trip once TripAfter calls have been seen in an interval and at least
	// FailurePercent of them failed
	TripAfter      int `yaml:"trip_after"`
	FailurePercent int `yaml:"failure_percent"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr               string `yaml:"addr"`
	CORSAllowedOrigins string `yaml:"cors_allowed_origins"`
	MaxSessions        int    `yaml:"max_sessions"`
}

// LoggingConfig configures the application logger
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`   // terminal UI log destination
}

// UniverseConfig holds ticker universe download configuration
type UniverseConfig struct {
	NasdaqURL  string `yaml:"nasdaq_url"`
	OutputPath string `yaml:"output_path"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := defaults()
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile reads the YAML file at path on top of the defaults, then applies
// environment variable overrides. An empty path behaves like Load.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Load()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		StrategyAPI: StrategyAPIConfig{
			BaseURL: DefaultStrategyAPIBaseURL,
		},
		Form: FormConfig{
			DefaultDollars:      "",
			DefaultStrategyType: "all",
		},
		Breaker: BreakerConfig{
			Enabled:         false,
			MaxRequests:     5,
			IntervalSeconds: 60,
			TimeoutSeconds:  30,
			TripAfter:       5,
			FailurePercent:  50,
		},
		HTTP: HTTPConfig{
			Addr:               ":8080",
			CORSAllowedOrigins: "*",
			MaxSessions:        1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "breakout-desk.log",
		},
		Universe: UniverseConfig{
			NasdaqURL:  DefaultNasdaqScreenerURL,
			OutputPath: "tickers.json",
		},
	}
}

// applyEnv overrides fields whose environment variables are set
func applyEnv(cfg *Config) {
	cfg.StrategyAPI.BaseURL = getEnvString("STRATEGY_API_BASE_URL", cfg.StrategyAPI.BaseURL)

	cfg.Form.DefaultDollars = getEnvString("DEFAULT_DOLLARS", cfg.Form.DefaultDollars)
	cfg.Form.DefaultStrategyType = getEnvString("DEFAULT_STRATEGY_TYPE", cfg.Form.DefaultStrategyType)

	cfg.Breaker.Enabled = getEnvBool("STRATEGY_BREAKER_ENABLED", cfg.Breaker.Enabled)
	cfg.Breaker.MaxRequests = getEnvInt("STRATEGY_BREAKER_MAX_REQUESTS", cfg.Breaker.MaxRequests)
	cfg.Breaker.IntervalSeconds = getEnvInt("STRATEGY_BREAKER_INTERVAL_SECONDS", cfg.Breaker.IntervalSeconds)
	cfg.Breaker.TimeoutSeconds = getEnvInt("STRATEGY_BREAKER_TIMEOUT_SECONDS", cfg.Breaker.TimeoutSeconds)
	cfg.Breaker.TripAfter = getEnvInt("STRATEGY_BREAKER_TRIP_AFTER", cfg.Breaker.TripAfter)
	cfg.Breaker.FailurePercent = getEnvInt("STRATEGY_BREAKER_FAILURE_PERCENT", cfg.Breaker.FailurePercent)

	cfg.HTTP.Addr = getEnvString("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.CORSAllowedOrigins = getEnvString("CORS_ALLOWED_ORIGINS", cfg.HTTP.CORSAllowedOrigins)
	cfg.HTTP.MaxSessions = getEnvInt("MAX_SESSIONS", cfg.HTTP.MaxSessions)

	cfg.Logging.Level = getEnvString("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnvString("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.File = getEnvString("LOG_FILE", cfg.Logging.File)

	cfg.Universe.NasdaqURL = getEnvString("NASDAQ_SCREENER_URL", cfg.Universe.NasdaqURL)
	cfg.Universe.OutputPath = getEnvString("TICKERS_OUTPUT", cfg.Universe.OutputPath)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.StrategyAPI.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("STRATEGY_API_BASE_URL must be an absolute http(s) URL, got %q", c.StrategyAPI.BaseURL)
	}

	switch strings.ToLower(c.Form.DefaultStrategyType) {
	case "simple", "retest", "swing", "all":
	default:
		return fmt.Errorf("DEFAULT_STRATEGY_TYPE must be one of simple, retest, swing, all, got %q", c.Form.DefaultStrategyType)
	}

	if c.Form.DefaultDollars != "" {
		if v, err := strconv.ParseFloat(c.Form.DefaultDollars, 64); err != nil || v <= 0 {
			return fmt.Errorf("DEFAULT_DOLLARS must be a positive number, got %q", c.Form.DefaultDollars)
		}
	}

	if c.Breaker.Enabled {
		if c.Breaker.MaxRequests <= 0 {
			return fmt.Errorf("STRATEGY_BREAKER_MAX_REQUESTS must be positive, got %d", c.Breaker.MaxRequests)
		}
		if c.Breaker.TimeoutSeconds <= 0 {
			return fmt.Errorf("STRATEGY_BREAKER_TIMEOUT_SECONDS must be positive, got %d", c.Breaker.TimeoutSeconds)
		}
		if c.Breaker.TripAfter <= 0 {
			return fmt.Errorf("STRATEGY_BREAKER_TRIP_AFTER must be positive, got %d", c.Breaker.TripAfter)
		}
		if c.Breaker.FailurePercent <= 0 || c.Breaker.FailurePercent > 100 {
			return fmt.Errorf("STRATEGY_BREAKER_FAILURE_PERCENT must be between 1 and 100, got %d", c.Breaker.FailurePercent)
		}
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Logging.Format)
	}

	if c.HTTP.MaxSessions <= 0 {
		return fmt.Errorf("MAX_SESSIONS must be positive, got %d", c.HTTP.MaxSessions)
	}

	return nil
}

// IsProduction reports whether logs should be written as JSON
func (c *Config) IsProduction() bool {
	return c.Logging.Format == "json"
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	cfg := defaults()
	cfg.StrategyAPI.BaseURL = "http://localhost:8000"
	cfg.Logging.File = ""
	return cfg
}
