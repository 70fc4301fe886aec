// Package config handles loading, defaulting, and validation of the
// application configuration from a YAML file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ledgerkeep/regwatch/internal/elasticsearch"
	"github.com/ledgerkeep/regwatch/internal/fetcher"
	"github.com/ledgerkeep/regwatch/internal/ratelimit"
	"github.com/ledgerkeep/regwatch/internal/store"
	"github.com/ledgerkeep/regwatch/internal/summarizer"
)

// Defaults applied when neither the file nor the environment sets a value.
const (
	defaultServerAddress    = ":8080"
	defaultServerTimeout    = 30 * time.Second
	defaultElasticsearchURL = "http://localhost:9200"
	defaultCataloguePath    = "sources.md"
	defaultUserAgent        = "regwatch/1.0 (+https://github.com/ledgerkeep/regwatch)"
	defaultAdaptiveBaseline = time.Hour
	defaultScheduleSpec     = "0 3 * * *"
	defaultSummarizerModel  = "gpt-4o-mini"
)

// Config is the application configuration.
type Config struct {
	Debug         bool                 `mapstructure:"debug"`
	Server        ServerConfig         `mapstructure:"server"`
	Database      store.Config         `mapstructure:"database"`
	Elasticsearch elasticsearch.Config `mapstructure:"elasticsearch"`
	Redis         RedisConfig          `mapstructure:"redis"`
	Scraper       ScraperConfig        `mapstructure:"scraper"`
	Summarizer    summarizer.Config    `mapstructure:"summarizer"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RedisConfig holds the optional Redis connection for adaptive scheduling.
// An empty address disables the feature.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether adaptive scheduling state should be kept.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// ScraperConfig holds scraping behavior settings.
type ScraperConfig struct {
	CataloguePath    string        `mapstructure:"catalogue_path"`
	RateLimit        time.Duration `mapstructure:"rate_limit"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	UserAgent        string        `mapstructure:"user_agent"`
	AdaptiveBaseline time.Duration `mapstructure:"adaptive_baseline"`
	Schedule         string        `mapstructure:"schedule"`
}

// Load reads configuration from the given YAML file, with environment
// variables (REGWATCH_ prefix, e.g. REGWATCH_DATABASE_HOST) taking
// precedence. A missing file is fine; defaults and environment still apply.
func Load(path string) (*Config, error) {
	// Best effort: a .env file is a development convenience.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("REGWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings a running service cannot do without.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server.address is required")
	}
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.Elasticsearch.URL == "" {
		return errors.New("elasticsearch.url is required")
	}
	if c.Scraper.RateLimit < 0 {
		return errors.New("scraper.rate_limit must not be negative")
	}
	return nil
}

// setDefaults fills unset fields with defaults.
func setDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultServerAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerTimeout
	}

	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	if cfg.Elasticsearch.URL == "" {
		cfg.Elasticsearch.URL = defaultElasticsearchURL
	}
	if cfg.Elasticsearch.Index == "" {
		cfg.Elasticsearch.Index = elasticsearch.DefaultIndex
	}

	if cfg.Scraper.CataloguePath == "" {
		cfg.Scraper.CataloguePath = defaultCataloguePath
	}
	if cfg.Scraper.RateLimit == 0 {
		cfg.Scraper.RateLimit = ratelimit.DefaultInterval
	}
	if cfg.Scraper.FetchTimeout == 0 {
		cfg.Scraper.FetchTimeout = fetcher.DefaultTimeout
	}
	if cfg.Scraper.UserAgent == "" {
		cfg.Scraper.UserAgent = defaultUserAgent
	}
	if cfg.Scraper.AdaptiveBaseline == 0 {
		cfg.Scraper.AdaptiveBaseline = defaultAdaptiveBaseline
	}
	if cfg.Scraper.Schedule == "" {
		cfg.Scraper.Schedule = defaultScheduleSpec
	}

	if cfg.Summarizer.Model == "" {
		cfg.Summarizer.Model = defaultSummarizerModel
	}
}
