// Package config handles configuration loading for fairvalue.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// FAIRVALUE_VALUATION_DISCOUNT_RATE.
const EnvPrefix = "FAIRVALUE"

// Config represents the complete application configuration.
type Config struct {
	Valuation ValuationConfig `mapstructure:"valuation" yaml:"valuation"`
	Data      DataConfig      `mapstructure:"data"      yaml:"data"`
	Batch     BatchConfig     `mapstructure:"batch"     yaml:"batch"`
	Redis     RedisConfig     `mapstructure:"redis"     yaml:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"  yaml:"database"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// ValuationConfig holds the defaults applied to a request that omits them.
type ValuationConfig struct {
	ForecastYears  int     `mapstructure:"forecast_years"   yaml:"forecast_years"`
	DiscountRate   float64 `mapstructure:"discount_rate"    yaml:"discount_rate"`
	MarginOfSafety float64 `mapstructure:"margin_of_safety" yaml:"margin_of_safety"`
	Mode           string  `mapstructure:"mode"             yaml:"mode"` // "dcf" or "ddm"
}

// DataConfig holds financial data source settings.
type DataConfig struct {
	Provider      string `mapstructure:"provider"       yaml:"provider"`
	CacheTTL      int    `mapstructure:"cache_ttl"      yaml:"cache_ttl"`     // seconds
	CacheBackend  string `mapstructure:"cache_backend"  yaml:"cache_backend"` // "memory" or "redis"
	RateLimit     int    `mapstructure:"rate_limit"     yaml:"rate_limit"`    // requests per second
	HTTPTimeout   int    `mapstructure:"http_timeout"   yaml:"http_timeout"`  // seconds
	BaseURL       string `mapstructure:"base_url"       yaml:"base_url"`
	TimeseriesURL string `mapstructure:"timeseries_url" yaml:"timeseries_url"`
}

// CacheDuration returns CacheTTL as a duration.
func (d DataConfig) CacheDuration() time.Duration {
	return time.Duration(d.CacheTTL) * time.Second
}

// Timeout returns HTTPTimeout as a duration.
func (d DataConfig) Timeout() time.Duration {
	return time.Duration(d.HTTPTimeout) * time.Second
}

// BatchConfig bounds batch valuation fan-out.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// RedisConfig configures the shared snapshot cache.
type RedisConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// DatabaseConfig configures the valuation run history store.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Addr returns host:port for net/http.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// A .env file in the working directory is applied to the environment first.
// Config file search order:
//  1. ./config/config.yaml
//  2. ~/.fairvalue/config.yaml
//  3. /etc/fairvalue/config.yaml
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".fairvalue"))
	v.AddConfigPath("/etc/fairvalue")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, _ := decode(v)
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("valuation.forecast_years", 10)
	v.SetDefault("valuation.discount_rate", 0.10)
	v.SetDefault("valuation.margin_of_safety", 0.30)
	v.SetDefault("valuation.mode", "dcf")

	v.SetDefault("data.provider", "yfinance")
	v.SetDefault("data.cache_ttl", 1800) // 30 minutes
	v.SetDefault("data.cache_backend", "memory")
	v.SetDefault("data.rate_limit", 5)
	v.SetDefault("data.http_timeout", 30)
	v.SetDefault("data.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("data.timeseries_url", "https://query2.finance.yahoo.com")

	v.SetDefault("batch.concurrency", 4)

	// Registered so AutomaticEnv sees them during Unmarshal.
	v.SetDefault("redis.url", "")
	v.SetDefault("database.url", "")

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv picks up the conventional unprefixed connection strings
// when the prefixed ones are not set.
func overrideFromEnv(cfg *Config) {
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = os.Getenv("REDIS_URL")
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
