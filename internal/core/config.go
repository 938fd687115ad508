package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the main configuration for the trends collector
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Log      LogConfig      `json:"log"`
	Features FeatureConfig  `json:"features"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port        int      `json:"port"`
	Host        string   `json:"host"`
	CorsOrigins []string `json:"cors_origins"`
}

// DatabaseConfig contains the run ledger database configuration
type DatabaseConfig struct {
	Path string `json:"path"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `json:"level"`
}

// FeatureConfig contains feature-specific configuration
type FeatureConfig struct {
	Trends TrendsConfig `json:"trends"`
}

// TrendsConfig contains the fetch/merge/persist pipeline configuration
type TrendsConfig struct {
	Enabled          bool          `json:"enabled"`
	FeedBaseURL      string        `json:"feed_base_url"`
	RegionsFile      string        `json:"regions_file"`
	RequestTimeout   time.Duration `json:"request_timeout"`
	MaxRetries       int           `json:"max_retries"`
	TransportRetries int           `json:"transport_retries"`
	DelayMin         time.Duration `json:"delay_min"`
	DelayMax         time.Duration `json:"delay_max"`
	UserAgent        string        `json:"user_agent"`
	ProxyHost        string        `json:"proxy_host"`
	ProxyPort        int           `json:"proxy_port"`

	OutputDir         string `json:"output_dir"`
	FilePrefix        string `json:"file_prefix"`
	FileExtension     string `json:"file_extension"`
	QuarantineCorrupt bool   `json:"quarantine_corrupt"`

	SchedulerEnabled bool          `json:"scheduler_enabled"`
	TargetTimes      []string      `json:"target_times"`
	CheckInterval    time.Duration `json:"check_interval"`
}

// DefaultUserAgent is the fixed browser-like user agent sent to the feed endpoint
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36"

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("TRENDS_PORT", 8080),
			Host:        getEnvOrDefault("TRENDS_HOST", "0.0.0.0"),
			CorsOrigins: getEnvAsSlice("TRENDS_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Path: getEnvOrDefault("TRENDS_DB_PATH", "./trends.db"),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("TRENDS_LOG_LEVEL", "info"),
		},
		Features: FeatureConfig{
			Trends: TrendsConfig{
				Enabled:          getEnvAsBool("TRENDS_ENABLED", true),
				FeedBaseURL:      getEnvOrDefault("TRENDS_FEED_BASE_URL", "https://trends.google.com/trending/rss"),
				RegionsFile:      getEnvOrDefault("TRENDS_REGIONS_FILE", ""),
				RequestTimeout:   getEnvAsDuration("TRENDS_REQUEST_TIMEOUT", 30*time.Second),
				MaxRetries:       getEnvAsInt("TRENDS_MAX_RETRIES", 3),
				TransportRetries: getEnvAsInt("TRENDS_TRANSPORT_RETRIES", 3),
				DelayMin:         getEnvAsSeconds("TRENDS_DELAY_MIN", 1),
				DelayMax:         getEnvAsSeconds("TRENDS_DELAY_MAX", 2),
				UserAgent:        getEnvOrDefault("TRENDS_USER_AGENT", DefaultUserAgent),
				ProxyHost:        getEnvOrDefault("TRENDS_PROXY_HOST", ""),
				ProxyPort:        getEnvAsInt("TRENDS_PROXY_PORT", 10808),

				OutputDir:         getEnvOrDefault("TRENDS_OUTPUT_DIR", "JSONs"),
				FilePrefix:        getEnvOrDefault("TRENDS_FILE_PREFIX", "trends_"),
				FileExtension:     getEnvOrDefault("TRENDS_FILE_EXTENSION", ".json"),
				QuarantineCorrupt: getEnvAsBool("TRENDS_QUARANTINE_CORRUPT", true),

				SchedulerEnabled: getEnvAsBool("TRENDS_SCHEDULER_ENABLED", true),
				TargetTimes:      getEnvAsSlice("TRENDS_TARGET_TIMES", []string{"11:00", "11:30", "17:00", "17:30", "23:00", "23:30"}),
				CheckInterval:    getEnvAsDuration("TRENDS_CHECK_INTERVAL", time.Minute),
			},
		},
	}

	if err := config.Validate(); err != nil {
		return nil, NewConfigurationError("invalid configuration", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	return c.Features.Trends.Validate()
}

// Validate validates the pipeline configuration
func (t *TrendsConfig) Validate() error {
	if t.FeedBaseURL == "" {
		return fmt.Errorf("feed base url is required")
	}

	if t.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}

	if t.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if t.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}

	if t.TransportRetries < 0 {
		return fmt.Errorf("transport retries cannot be negative")
	}

	if t.DelayMin < 0 || t.DelayMax < t.DelayMin {
		return fmt.Errorf("invalid delay window: %s..%s", t.DelayMin, t.DelayMax)
	}

	if t.ProxyHost != "" && (t.ProxyPort <= 0 || t.ProxyPort > 65535) {
		return fmt.Errorf("invalid proxy port: %d", t.ProxyPort)
	}

	for _, hm := range t.TargetTimes {
		if _, err := time.Parse("15:04", hm); err != nil {
			return fmt.Errorf("invalid target time %q: expected HH:MM", hm)
		}
	}

	if t.SchedulerEnabled && t.CheckInterval <= 0 {
		return fmt.Errorf("check interval must be positive")
	}

	return nil
}

// ProxyURL returns the configured proxy address, or "" when no proxy is set
func (t *TrendsConfig) ProxyURL() string {
	if t.ProxyHost == "" {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", t.ProxyHost, t.ProxyPort)
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
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

// getEnvAsSeconds reads a (possibly fractional) number of seconds
func getEnvAsSeconds(key string, defaultSeconds float64) time.Duration {
	seconds := defaultSeconds
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			seconds = f
		}
	}
	return time.Duration(seconds * float64(time.Second))
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
