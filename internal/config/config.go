// Package config loads and validates service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Providers ProvidersConfig `mapstructure:"providers"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port             int `mapstructure:"port"`
	KeepaliveSeconds int `mapstructure:"keepalive_seconds"`
}

// ScrapeConfig governs pipeline defaults.
type ScrapeConfig struct {
	NumResultsDefault int     `mapstructure:"num_results_default"`
	DelaySecondsMax   float64 `mapstructure:"delay_seconds_max"`
	PageDelayMs       int     `mapstructure:"page_delay_ms"`
	UserAgent         string  `mapstructure:"user_agent"`
}

// HTTPConfig configures outbound HTTP retry behavior.
type HTTPConfig struct {
	TimeoutSeconds   int `mapstructure:"timeout_seconds"`
	MaxRetries       int `mapstructure:"max_retries"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// ProvidersConfig holds process-wide default API keys. Per-request keys
// override these.
type ProvidersConfig struct {
	SerperKey  string `mapstructure:"serper_key"`
	SerpAPIKey string `mapstructure:"serpapi_key"`
	HunterKey  string `mapstructure:"hunter_key"`
	ApolloKey  string `mapstructure:"apollo_key"`
}

// DBConfig controls access to the relational database. An empty DSN selects
// the in-memory stores.
type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig controls the lookup cache. An empty address selects the
// in-memory cache.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEADSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return errors.New("http timeout must be positive")
	}
	if c.HTTP.MaxRetries < 0 {
		return errors.New("http max_retries must be >= 0")
	}
	if c.Scrape.NumResultsDefault <= 0 {
		return errors.New("scrape num_results_default must be positive")
	}
	return nil
}

// RequestTimeout returns the per-attempt outbound HTTP timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.keepalive_seconds", 30)
	v.SetDefault("scrape.num_results_default", 20)
	v.SetDefault("scrape.delay_seconds_max", 30)
	v.SetDefault("scrape.page_delay_ms", 500)
	v.SetDefault("scrape.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 1000)
	v.SetDefault("http.backoff_max_ms", 16000)
	v.SetDefault("redis.db", 0)
	v.SetDefault("logging.development", true)
}
