// Package config loads application configuration from config.yaml and
// RULEONE_-prefixed environment variables, and initializes the global
// logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	AlphaVantage AlphaVantageConfig `yaml:"alphavantage" mapstructure:"alphavantage"`
	FMP          FMPConfig          `yaml:"fmp" mapstructure:"fmp"`
	WebSearch    WebSearchConfig    `yaml:"websearch" mapstructure:"websearch"`
	Anthropic    AnthropicConfig    `yaml:"anthropic" mapstructure:"anthropic"`
	Resolver     ResolverConfig     `yaml:"resolver" mapstructure:"resolver"`
	Valuation    ValuationConfig    `yaml:"valuation" mapstructure:"valuation"`
	Batch        BatchConfig        `yaml:"batch" mapstructure:"batch"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AlphaVantageConfig holds Alpha Vantage API settings.
type AlphaVantageConfig struct {
	Key                string `yaml:"key" mapstructure:"key"`
	BaseURL            string `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerMinute  int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// FMPConfig holds Financial Modeling Prep API settings.
type FMPConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// WebSearchConfig holds search/reader API settings for AI extraction.
type WebSearchConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
	ReaderBaseURL string `yaml:"reader_base_url" mapstructure:"reader_base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ResolverConfig configures the source cascade.
type ResolverConfig struct {
	MinYears         int `yaml:"min_years" mapstructure:"min_years"`
	Horizon          int `yaml:"horizon" mapstructure:"horizon"`
	OverviewTTLHours int `yaml:"overview_ttl_hours" mapstructure:"overview_ttl_hours"`
}

// ValuationConfig configures the Rule One policy constants.
type ValuationConfig struct {
	PECap                  float64 `yaml:"pe_cap" mapstructure:"pe_cap"`
	MinimumReturn          float64 `yaml:"minimum_return" mapstructure:"minimum_return"`
	MarginOfSafetyDiscount float64 `yaml:"margin_of_safety_discount" mapstructure:"margin_of_safety_discount"`
}

// BatchConfig configures batch pacing.
type BatchConfig struct {
	GroupSize      int `yaml:"group_size" mapstructure:"group_size"`
	GroupDelaySecs int `yaml:"group_delay_secs" mapstructure:"group_delay_secs"`
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
	v.SetEnvPrefix("RULEONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "ruleone.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("alphavantage.base_url", "https://www.alphavantage.co")
	v.SetDefault("alphavantage.requests_per_minute", 5)
	v.SetDefault("fmp.base_url", "https://financialmodelingprep.com/api/v3")
	v.SetDefault("websearch.search_base_url", "https://s.jina.ai")
	v.SetDefault("websearch.reader_base_url", "https://r.jina.ai")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("resolver.min_years", 7)
	v.SetDefault("resolver.horizon", 10)
	v.SetDefault("resolver.overview_ttl_hours", 24)
	v.SetDefault("valuation.pe_cap", 40.0)
	v.SetDefault("valuation.minimum_return", 0.15)
	v.SetDefault("valuation.margin_of_safety_discount", 0.50)
	v.SetDefault("batch.group_size", 3)
	v.SetDefault("batch.group_delay_secs", 2)

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

// Validate checks the configuration for the given run mode. Modes map
// to commands: analyze and batch need a usable store, serve needs a
// port on top of that.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	if c.Batch.GroupSize < 1 || c.Batch.GroupSize > 20 {
		problems = append(problems, "batch.group_size must be between 1 and 20")
	}
	if c.Resolver.MinYears < 2 {
		problems = append(problems, "resolver.min_years must be >= 2")
	}
	if c.Valuation.PECap <= 0 {
		problems = append(problems, "valuation.pe_cap must be > 0")
	}

	switch mode {
	case "analyze", "batch", "migrate":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		problems = append(problems, "unknown mode "+mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
