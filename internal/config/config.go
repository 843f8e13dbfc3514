package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jgoulah/gridprofile/internal/analysis"
)

// Config holds the application configuration
type Config struct {
	Database      string         `yaml:"database,omitempty"` // sqlite file (fallback: gridprofile.db)
	Analysis      AnalysisConfig `yaml:"analysis,omitempty"`
	Cache         CacheConfig    `yaml:"cache,omitempty"`
	Logging       LoggingConfig  `yaml:"logging,omitempty"`
	MQTT          MQTTConfig     `yaml:"mqtt,omitempty"`
	HomeAssistant HAConfig       `yaml:"home_assistant,omitempty"`
}

// AnalysisConfig overrides the analysis thresholds. Zero values keep the
// built-in defaults.
type AnalysisConfig struct {
	SeasonalRatioThreshold      float64 `yaml:"seasonal_ratio_threshold,omitempty"`
	HighUserMeanKWh             float64 `yaml:"high_user_mean_kwh,omitempty"`
	HighUserMaxCV               float64 `yaml:"high_user_max_cv,omitempty"`
	VariableMinCV               float64 `yaml:"variable_min_cv,omitempty"`
	SeasonalConfidenceThreshold float64 `yaml:"seasonal_confidence_threshold,omitempty"`
	TrendR2Threshold            float64 `yaml:"trend_r2_threshold,omitempty"`
	OutlierZScore               float64 `yaml:"outlier_z_score,omitempty"`
	ConfidenceZ                 float64 `yaml:"confidence_z,omitempty"`
	MinObservedMonths           int     `yaml:"min_observed_months,omitempty"`
	MovingAverageWindow         int     `yaml:"moving_average_window,omitempty"`
}

// CacheConfig controls the persisted profile cache
type CacheConfig struct {
	Disabled       bool `yaml:"disabled,omitempty"`
	TTLDays        int  `yaml:"ttl_days,omitempty"`         // fallback: 7
	StoreTimeoutMS int  `yaml:"store_timeout_ms,omitempty"` // fallback: 250
}

// LoggingConfig selects the slog level and handler
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error (fallback: info)
	Format string `yaml:"format,omitempty"` // json or text (fallback: text)
}

// MQTTConfig holds the broker profiles are published to
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // e.g., "tcp://homeassistant.local:1883"
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // fallback: gridprofile
	ClientID    string `yaml:"client_id,omitempty"`    // fallback: random
}

// HAConfig holds Home Assistant HTTP API configuration
type HAConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`       // e.g., "http://homeassistant.local:8123"
	Token    string `yaml:"token"`     // Long-lived access token
	EntityID string `yaml:"entity_id"` // e.g., "sensor.electricity_usage_profile"
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetDatabase returns the sqlite path with a default of gridprofile.db
func (c *Config) GetDatabase() string {
	if c.Database == "" {
		return "gridprofile.db"
	}
	return c.Database
}

// AnalysisConfig returns the analysis configuration with overrides applied
// on top of the defaults
func (c *Config) AnalysisConfig() analysis.Config {
	cfg := analysis.DefaultConfig()
	a := c.Analysis

	setFloat := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	setFloat(&cfg.SeasonalRatioThreshold, a.SeasonalRatioThreshold)
	setFloat(&cfg.HighUserMeanKWh, a.HighUserMeanKWh)
	setFloat(&cfg.HighUserMaxCV, a.HighUserMaxCV)
	setFloat(&cfg.VariableMinCV, a.VariableMinCV)
	setFloat(&cfg.SeasonalConfidenceThreshold, a.SeasonalConfidenceThreshold)
	setFloat(&cfg.TrendR2Threshold, a.TrendR2Threshold)
	setFloat(&cfg.OutlierZScore, a.OutlierZScore)
	setFloat(&cfg.ConfidenceZ, a.ConfidenceZ)
	if a.MinObservedMonths > 0 {
		cfg.MinObservedMonths = a.MinObservedMonths
	}
	if a.MovingAverageWindow > 0 {
		cfg.MovingAverageWindow = a.MovingAverageWindow
	}
	return cfg
}

// GetCacheTTL returns the profile cache TTL with a default of 7 days
func (c *Config) GetCacheTTL() time.Duration {
	if c.Cache.TTLDays <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.Cache.TTLDays) * 24 * time.Hour
}

// GetStoreTimeout returns the cache store timeout with a default of 250ms
func (c *Config) GetStoreTimeout() time.Duration {
	if c.Cache.StoreTimeoutMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.Cache.StoreTimeoutMS) * time.Millisecond
}

// GetLevel parses the configured log level, defaulting to info
func (l LoggingConfig) GetLevel() (slog.Level, error) {
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return level, nil
}

// GetFormat returns the log format with a default of text
func (l LoggingConfig) GetFormat() string {
	if l.Format == "" {
		return "text"
	}
	return strings.ToLower(l.Format)
}

// GetTopicPrefix returns the MQTT topic prefix with a default of gridprofile
func (c *Config) GetTopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return "gridprofile"
	}
	return strings.TrimSuffix(c.MQTT.TopicPrefix, "/")
}
