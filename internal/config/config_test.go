package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no config file in scope

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60, cfg.Cache.TTLMinutes)

	assert.Equal(t, 8*time.Second, cfg.Pipeline.ProviderTimeout())
	assert.Equal(t, 30*time.Second, cfg.Pipeline.OverallTimeout())
	assert.Equal(t, 0.7, cfg.Pipeline.ApproximateThreshold)

	// Provider weights encode the trust ordering.
	assert.Greater(t, cfg.Geocode.CensusWeight, cfg.Geocode.GoogleWeight)
	assert.Greater(t, cfg.Geocode.GoogleWeight, cfg.Geocode.StaticWeight)
	assert.Greater(t, cfg.Solar.GoogleWeight, cfg.Solar.PVWattsWeight)
	assert.Greater(t, cfg.Solar.PVWattsWeight, cfg.Solar.OpenMeteoWeight)

	assert.Equal(t, int64(1024), cfg.Anthropic.MaxTokens)
	assert.Equal(t, 0.80, cfg.Anthropic.Weight)
	assert.NotEmpty(t, cfg.Anthropic.Model)

	assert.Equal(t, 0.17, cfg.Rates.UtilityRatePerKwh)
	assert.Equal(t, 2.80, cfg.Rates.CostPerWattUSD)
	assert.Equal(t, 0.30, cfg.Rates.FederalCreditPct)
	assert.Equal(t, 0.39, cfg.Rates.CO2KgPerKwh)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SOLAR_SERVER_PORT", "9090")
	t.Setenv("SOLAR_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestCacheConfig_TTL(t *testing.T) {
	assert.Equal(t, 45*time.Minute, CacheConfig{TTLMinutes: 45}.TTL())
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nonsense", Format: "json"}))
}
