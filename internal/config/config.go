// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Solar     SolarConfig     `yaml:"solar" mapstructure:"solar"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Rates     RatesConfig     `yaml:"rates" mapstructure:"rates"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// GeocodeConfig configures the geocoding fallback chain.
type GeocodeConfig struct {
	GoogleKey    string  `yaml:"google_key" mapstructure:"google_key"`
	CensusRPS    float64 `yaml:"census_rps" mapstructure:"census_rps"`
	CensusWeight float64 `yaml:"census_weight" mapstructure:"census_weight"`
	GoogleWeight float64 `yaml:"google_weight" mapstructure:"google_weight"`
	StaticWeight float64 `yaml:"static_weight" mapstructure:"static_weight"`
}

// SolarConfig configures the solar-potential fallback chain.
type SolarConfig struct {
	GoogleKey       string  `yaml:"google_key" mapstructure:"google_key"`
	NRELKey         string  `yaml:"nrel_key" mapstructure:"nrel_key"`
	GoogleWeight    float64 `yaml:"google_weight" mapstructure:"google_weight"`
	PVWattsWeight   float64 `yaml:"pvwatts_weight" mapstructure:"pvwatts_weight"`
	OpenMeteoWeight float64 `yaml:"openmeteo_weight" mapstructure:"openmeteo_weight"`
}

// AnthropicConfig holds Anthropic API settings for roof analysis and
// proposal generation.
type AnthropicConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	Model     string  `yaml:"model" mapstructure:"model"`
	MaxTokens int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Weight    float64 `yaml:"weight" mapstructure:"weight"`
}

// RatesConfig holds the constants behind the pure financial and
// environmental derivations.
type RatesConfig struct {
	UtilityRatePerKwh float64 `yaml:"utility_rate_per_kwh" mapstructure:"utility_rate_per_kwh"`
	CostPerWattUSD    float64 `yaml:"cost_per_watt_usd" mapstructure:"cost_per_watt_usd"`
	FederalCreditPct  float64 `yaml:"federal_credit_pct" mapstructure:"federal_credit_pct"`
	CO2KgPerKwh       float64 `yaml:"co2_kg_per_kwh" mapstructure:"co2_kg_per_kwh"`
}

// PipelineConfig configures orchestration timing and degradation.
type PipelineConfig struct {
	ProviderTimeoutSecs  int     `yaml:"provider_timeout_secs" mapstructure:"provider_timeout_secs"`
	OverallTimeoutSecs   int     `yaml:"overall_timeout_secs" mapstructure:"overall_timeout_secs"`
	ApproximateThreshold float64 `yaml:"approximate_threshold" mapstructure:"approximate_threshold"`
	ChainsFile           string  `yaml:"chains_file" mapstructure:"chains_file"`
}

// ProviderTimeout returns the per-provider call timeout.
func (p PipelineConfig) ProviderTimeout() time.Duration {
	return time.Duration(p.ProviderTimeoutSecs) * time.Second
}

// OverallTimeout returns the end-to-end assessment deadline.
func (p PipelineConfig) OverallTimeout() time.Duration {
	return time.Duration(p.OverallTimeoutSecs) * time.Second
}

// CacheConfig configures the ephemeral result cache.
type CacheConfig struct {
	TTLMinutes int `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SOLAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("cache.ttl_minutes", 60)
	v.SetDefault("pipeline.provider_timeout_secs", 8)
	v.SetDefault("pipeline.overall_timeout_secs", 30)
	v.SetDefault("pipeline.approximate_threshold", 0.7)
	v.SetDefault("geocode.census_rps", 10)
	v.SetDefault("geocode.census_weight", 0.95)
	v.SetDefault("geocode.google_weight", 0.90)
	v.SetDefault("geocode.static_weight", 0.60)
	v.SetDefault("solar.google_weight", 0.95)
	v.SetDefault("solar.pvwatts_weight", 0.85)
	v.SetDefault("solar.openmeteo_weight", 0.70)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.weight", 0.80)
	v.SetDefault("rates.utility_rate_per_kwh", 0.17)
	v.SetDefault("rates.cost_per_watt_usd", 2.80)
	v.SetDefault("rates.federal_credit_pct", 0.30)
	v.SetDefault("rates.co2_kg_per_kwh", 0.39)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
