package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	StartURL     string `mapstructure:"START_URL"`
	CrawlWorkers int    `mapstructure:"CRAWL_WORKERS"`
	MaxWorkers   int    `mapstructure:"MAX_WORKERS"` // upper bound for workers requested through the API
	MaxPages     int    `mapstructure:"MAX_PAGES"`
	OutputDir    string `mapstructure:"OUTPUT_DIR"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`

	FetchTimeout int    `mapstructure:"FETCH_TIMEOUT"` // in seconds
	MaxBodyBytes int64  `mapstructure:"MAX_BODY_BYTES"`
	UserAgent    string `mapstructure:"USER_AGENT"`
	Fetcher      string `mapstructure:"FETCHER"`  // "http" or "chrome"
	Frontier     string `mapstructure:"FRONTIER"` // "memory" or "redis"

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
}

// flagKeys maps CLI flag names onto configuration keys.
var flagKeys = map[string]string{
	"workers":    "CRAWL_WORKERS",
	"max-pages":  "MAX_PAGES",
	"output-dir": "OUTPUT_DIR",
	"log-level":  "LOG_LEVEL",
	"fetcher":    "FETCHER",
	"frontier":   "FRONTIER",
	"port":       "SERVER_PORT",
}

// Load reads configuration from an optional env-style file, the environment
// and flags, in increasing order of precedence. An empty file name means ".env";
// a missing default file is not an error.
func Load(flags *pflag.FlagSet, file string) (*Config, error) {
	v := viper.New()

	explicit := file != ""
	if !explicit {
		file = ".env"
	}
	v.SetConfigFile(file)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("START_URL", "")
	v.SetDefault("CRAWL_WORKERS", 50)
	v.SetDefault("MAX_WORKERS", 1000)
	v.SetDefault("MAX_PAGES", 100)
	v.SetDefault("OUTPUT_DIR", "files")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("FETCH_TIMEOUT", 30)
	v.SetDefault("MAX_BODY_BYTES", 10*1024*1024)
	v.SetDefault("USER_AGENT", "")
	v.SetDefault("FETCHER", "http")
	v.SetDefault("FRONTIER", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("SERVER_PORT", "8080")

	if err := v.ReadInConfig(); err != nil && explicit {
		return nil, fmt.Errorf("read config %s: %w", file, err)
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Fetcher = strings.ToLower(cfg.Fetcher)
	cfg.Frontier = strings.ToLower(cfg.Frontier)
	return &cfg, nil
}

// Validate reports configuration values the crawler cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.CrawlWorkers < 1 {
		errs = append(errs, fmt.Errorf("CRAWL_WORKERS must be positive, got %d", c.CrawlWorkers))
	}
	if c.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("MAX_WORKERS must be positive, got %d", c.MaxWorkers))
	} else if c.CrawlWorkers > c.MaxWorkers {
		errs = append(errs, fmt.Errorf("CRAWL_WORKERS must be at most MAX_WORKERS (%d), got %d", c.MaxWorkers, c.CrawlWorkers))
	}
	if c.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("MAX_PAGES must be positive, got %d", c.MaxPages))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("OUTPUT_DIR must not be empty"))
	}
	if c.FetchTimeout < 1 {
		errs = append(errs, fmt.Errorf("FETCH_TIMEOUT must be positive, got %d", c.FetchTimeout))
	}
	switch c.Fetcher {
	case "http", "chrome":
	default:
		errs = append(errs, fmt.Errorf("FETCHER must be http or chrome, got %q", c.Fetcher))
	}
	switch c.Frontier {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("FRONTIER must be memory or redis, got %q", c.Frontier))
	}
	return errors.Join(errs...)
}

// FetchTimeoutDuration returns FetchTimeout as a time.Duration.
func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}
