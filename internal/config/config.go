package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MinGeminiKeyLength is the shortest Gemini key treated as configured.
const MinGeminiKeyLength = 20

// Config holds the full application configuration.
type Config struct {
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Chat       ChatConfig       `yaml:"chat" mapstructure:"chat"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	History    HistoryConfig    `yaml:"history" mapstructure:"history"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// GoogleConfig holds Custom Search credentials.
type GoogleConfig struct {
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	EngineID string `yaml:"engine_id" mapstructure:"engine_id"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Num      int    `yaml:"num" mapstructure:"num"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ChatConfig holds settings for an OpenAI-compatible chat completion endpoint.
type ChatConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// LLMConfig selects and tunes the analysis provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // gemini, chat, anthropic
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// StoreConfig configures the history database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // postgres, sqlite
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CacheConfig configures the optional Redis search cache. An empty URL
// disables caching.
type CacheConfig struct {
	RedisURL   string `yaml:"redis_url" mapstructure:"redis_url"`
	TTLMinutes int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
	KeyPrefix  string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// HistoryConfig controls history recording and listing.
type HistoryConfig struct {
	Scope           string `yaml:"scope" mapstructure:"scope"` // user, global
	RecordAnonymous bool   `yaml:"record_anonymous" mapstructure:"record_anonymous"`
	DefaultPerPage  int    `yaml:"default_per_page" mapstructure:"default_per_page"`
	MaxPerPage      int    `yaml:"max_per_page" mapstructure:"max_per_page"`
}

// PipelineConfig tunes the claim check.
type PipelineConfig struct {
	SearchTimeoutSecs     int  `yaml:"search_timeout_secs" mapstructure:"search_timeout_secs"`
	LLMTimeoutSecs        int  `yaml:"llm_timeout_secs" mapstructure:"llm_timeout_secs"`
	AnalyzeWithoutSources bool `yaml:"analyze_without_sources" mapstructure:"analyze_without_sources"`
	FallbackSources       int  `yaml:"fallback_sources" mapstructure:"fallback_sources"`
}

// BatchConfig controls the batch command.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	IdentityHeader     string   `yaml:"identity_header" mapstructure:"identity_header"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
	CORSOrigins        []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	ShutdownSecs       int      `yaml:"shutdown_secs" mapstructure:"shutdown_secs"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ResilienceConfig holds retry and circuit breaker settings shared by the
// search and LLM collaborators.
type ResilienceConfig struct {
	RetryAttempts         int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryInitialBackoffMs int `yaml:"retry_initial_backoff_ms" mapstructure:"retry_initial_backoff_ms"`
	RetryMaxBackoffMs     int `yaml:"retry_max_backoff_ms" mapstructure:"retry_max_backoff_ms"`
	BreakerThreshold      int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs   int `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// Load reads configuration from .env, config.yaml and KLARIFIKASI_* env vars,
// in increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("KLARIFIKASI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials default to empty so env-only values still bind on Unmarshal.
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.engine_id", "")
	v.SetDefault("google.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("google.num", 10)
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("chat.key", "")
	v.SetDefault("chat.model", "gpt-4o-mini")
	v.SetDefault("chat.base_url", "https://api.openai.com/v1")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "klarifikasi.db")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl_minutes", 60)
	v.SetDefault("cache.key_prefix", "klarifikasi:search:")
	v.SetDefault("history.scope", "user")
	v.SetDefault("history.record_anonymous", false)
	v.SetDefault("history.default_per_page", 20)
	v.SetDefault("history.max_per_page", 50)
	v.SetDefault("pipeline.search_timeout_secs", 30)
	v.SetDefault("pipeline.llm_timeout_secs", 30)
	v.SetDefault("pipeline.analyze_without_sources", false)
	v.SetDefault("pipeline.fallback_sources", 3)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.identity_header", "X-User-ID")
	v.SetDefault("server.rate_limit_per_minute", 10)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_secs", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("resilience.retry_attempts", 1)
	v.SetDefault("resilience.retry_initial_backoff_ms", 300)
	v.SetDefault("resilience.retry_max_backoff_ms", 5000)
	v.SetDefault("resilience.breaker_threshold", 5)
	v.SetDefault("resilience.breaker_cooldown_secs", 30)

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

// Validate checks the settings required by mode ("serve", "check",
// "migrate"). Missing collaborator credentials are not errors; see Warnings.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be postgres or sqlite", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}

	switch mode {
	case "migrate":
	case "serve", "check":
		errs = append(errs, c.validateRuntime()...)
		if mode == "serve" {
			if c.Server.Port <= 0 {
				errs = append(errs, "server.port must be > 0")
			}
			if c.Server.RateLimitPerMinute <= 0 {
				errs = append(errs, "server.rate_limit_per_minute must be > 0")
			}
		}
		if mode == "check" && (c.Batch.Concurrency < 1 || c.Batch.Concurrency > 50) {
			errs = append(errs, "batch.concurrency must be between 1 and 50")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateRuntime() []string {
	var errs []string
	switch c.History.Scope {
	case "user", "global":
	default:
		errs = append(errs, fmt.Sprintf("history.scope %q must be user or global", c.History.Scope))
	}
	switch c.LLM.Provider {
	case "gemini", "chat", "anthropic":
	default:
		errs = append(errs, fmt.Sprintf("llm.provider %q must be gemini, chat or anthropic", c.LLM.Provider))
	}
	if c.History.DefaultPerPage <= 0 || c.History.MaxPerPage <= 0 {
		errs = append(errs, "history page sizes must be > 0")
	}
	if c.Pipeline.SearchTimeoutSecs <= 0 || c.Pipeline.LLMTimeoutSecs <= 0 {
		errs = append(errs, "pipeline timeouts must be > 0")
	}
	return errs
}

// Warnings lists collaborators that will run in fallback mode because their
// credentials are missing.
func (c *Config) Warnings() []string {
	var out []string
	if c.Google.APIKey == "" || c.Google.EngineID == "" {
		out = append(out, "google.api_key or google.engine_id missing: search disabled")
	}
	if !c.LLMConfigured() {
		out = append(out, "llm."+c.LLM.Provider+" credentials missing or too short: fallback analysis only")
	}
	return out
}

// SearchConfigured reports whether Custom Search credentials are present.
func (c *Config) SearchConfigured() bool {
	return c.Google.APIKey != "" && c.Google.EngineID != ""
}

// LLMConfigured reports whether the selected provider has usable credentials.
func (c *Config) LLMConfigured() bool {
	switch c.LLM.Provider {
	case "gemini":
		return len(strings.TrimSpace(c.Gemini.Key)) >= MinGeminiKeyLength
	case "chat":
		return strings.TrimSpace(c.Chat.Key) != ""
	case "anthropic":
		return strings.TrimSpace(c.Anthropic.Key) != ""
	}
	return false
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
