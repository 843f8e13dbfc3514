package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/gridprofile/internal/analysis"
)

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gridprofile.db", cfg.GetDatabase())
	assert.Equal(t, analysis.DefaultConfig(), cfg.AnalysisConfig())
	assert.Equal(t, 7*24*time.Hour, cfg.GetCacheTTL())
	assert.Equal(t, 250*time.Millisecond, cfg.GetStoreTimeout())
	assert.Equal(t, "text", cfg.Logging.GetFormat())
	assert.Equal(t, "gridprofile", cfg.GetTopicPrefix())

	level, err := cfg.Logging.GetLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
database: /var/lib/gridprofile/usage.db
analysis:
  seasonal_ratio_threshold: 1.5
  outlier_z_score: 3.5
  min_observed_months: 6
cache:
  ttl_days: 1
  store_timeout_ms: 50
logging:
  level: debug
  format: JSON
mqtt:
  enabled: true
  broker: tcp://localhost:1883
  topic_prefix: home/energy/
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	analysisCfg := cfg.AnalysisConfig()
	assert.Equal(t, 1.5, analysisCfg.SeasonalRatioThreshold)
	assert.Equal(t, 3.5, analysisCfg.OutlierZScore)
	assert.Equal(t, 6, analysisCfg.MinObservedMonths)
	assert.Equal(t, analysis.DefaultConfig().HighUserMeanKWh, analysisCfg.HighUserMeanKWh)
	require.NoError(t, analysisCfg.Validate())

	assert.Equal(t, "/var/lib/gridprofile/usage.db", cfg.GetDatabase())
	assert.Equal(t, 24*time.Hour, cfg.GetCacheTTL())
	assert.Equal(t, 50*time.Millisecond, cfg.GetStoreTimeout())
	assert.Equal(t, "json", cfg.Logging.GetFormat())
	assert.Equal(t, "home/energy", cfg.GetTopicPrefix())
	assert.True(t, cfg.MQTT.Enabled)

	level, err := cfg.Logging.GetLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis: [1, 2"), 0600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestInvalidLogLevel(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "loud"}}
	_, err := cfg.Logging.GetLevel()
	assert.ErrorContains(t, err, `invalid log level "loud"`)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{
		HomeAssistant: HAConfig{Enabled: true, URL: "http://ha.local:8123", Token: "secret", EntityID: "sensor.usage_profile"},
		Cache:         CacheConfig{Disabled: true},
	}
	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
