package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the loader reads so host environments do not
// leak into tests. t.Setenv restores originals on cleanup.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_TIMEOUT",
		"EARTHDATA_USERNAME", "EARTHDATA_PASSWORD", "EARTHDATA_TIMEOUT",
		"CMR_BASE_URL", "URS_BASE_URL",
		"GRANULE_CACHE_DIR", "GRANULE_SHORT_NAME",
		"ANALYSIS_START", "ANALYSIS_END",
		"REGION_WEST", "REGION_SOUTH", "REGION_EAST", "REGION_NORTH",
		"HIGH_RISK_THRESHOLD", "KAFKA_BROKERS", "KAFKA_REPORT_TOPIC",
	} {
		// t.Setenv registers restoration of the original value; Unsetenv then
		// removes the variable so envconfig falls back to struct defaults.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTPAddr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "OMNO2d", cfg.GranuleShortName)
	assert.Equal(t, "granule_data", cfg.GranuleCacheDir)
	assert.InEpsilon(t, 1.6e-9, cfg.HighRiskThreshold, 1e-15)
	assert.False(t, cfg.KafkaEnabled())

	region := cfg.Region()
	assert.InEpsilon(t, -124.48, region.West, 1e-9)
	assert.InEpsilon(t, 42.01, region.North, 1e-9)

	assert.Equal(t, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), cfg.Window.Start)
	assert.Equal(t, time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC), cfg.Window.End)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("HIGH_RISK_THRESHOLD", "2.5e-9")
	t.Setenv("KAFKA_BROKERS", "localhost:9092,localhost:9093")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr())
	assert.Equal(t, "text", cfg.LogFormat)
	assert.InEpsilon(t, 2.5e-9, cfg.HighRiskThreshold, 1e-15)
	require.True(t, cfg.KafkaEnabled())
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, cfg.KafkaBrokers)
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_FORMAT", "yaml")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidWindow(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANALYSIS_START", "2025-10-01")
	t.Setenv("ANALYSIS_END", "2025-09-01")

	_, err := Load()
	assert.Error(t, err, "start after end")

	t.Setenv("ANALYSIS_START", "not-a-date")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_InvalidRegion(t *testing.T) {
	clearEnv(t)
	t.Setenv("REGION_WEST", "-114.13")
	t.Setenv("REGION_EAST", "-124.48")

	_, err := Load()
	assert.Error(t, err, "west >= east")
}
