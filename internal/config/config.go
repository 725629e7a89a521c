package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides (REDISOM_SEARCH_DIALECT).
const EnvPrefix = "REDISOM"

// Config is the runtime configuration of a redisom client
type Config struct {
	Redis  RedisConfig  `mapstructure:"redis"`
	Search SearchConfig `mapstructure:"search"`
	Log    LogConfig    `mapstructure:"log"`
}

// RedisConfig selects the backend connection
type RedisConfig struct {
	URL         string        `mapstructure:"url"`
	Protocol    int           `mapstructure:"protocol"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// SearchConfig tunes query compilation
type SearchConfig struct {
	Dialect         int    `mapstructure:"dialect"`
	MaxLimit        int    `mapstructure:"max_limit"`
	IntentCacheSize int    `mapstructure:"intent_cache_size"`
	IndexPrefix     string `mapstructure:"index_prefix"`
}

// LogConfig configures the zerolog logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

var defaults = map[string]interface{}{
	"redis.url":                "redis://localhost:6379/0",
	"redis.protocol":           2,
	"redis.dial_timeout":       5 * time.Second,
	"redis.read_timeout":       3 * time.Second,
	"search.dialect":           2,
	"search.max_limit":         10000,
	"search.intent_cache_size": 1024,
	"search.index_prefix":      "",
	"log.level":                "info",
	"log.pretty":               false,
}

// Load reads configuration from an optional file and REDISOM_* environment
// variables. An empty path looks for redisom.{yaml,json,toml} in the working
// directory and carries on without one.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("redisom")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	// REDISOM_SEARCH_MAX_LIMIT -> search.max_limit
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	if c.Redis.Protocol != 2 && c.Redis.Protocol != 3 {
		return fmt.Errorf("invalid redis.protocol %d: must be 2 or 3", c.Redis.Protocol)
	}
	if c.Search.Dialect < 1 || c.Search.Dialect > 4 {
		return fmt.Errorf("invalid search.dialect %d: must be between 1 and 4", c.Search.Dialect)
	}
	if c.Search.MaxLimit < 0 {
		return fmt.Errorf("invalid search.max_limit %d", c.Search.MaxLimit)
	}
	if c.Search.IntentCacheSize <= 0 {
		return fmt.Errorf("invalid search.intent_cache_size %d", c.Search.IntentCacheSize)
	}
	return nil
}
