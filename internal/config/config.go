// Package config handles application configuration using Viper.
// Values merge in priority order: defaults < YAML file < environment.
// Runtime-editable settings stored in the database override all of these —
// see storage.SettingsRepository.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration struct.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Predict   PredictConfig   `mapstructure:"predict"`
	Extract   ExtractConfig   `mapstructure:"extract"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

type AuthConfig struct {
	APIKeys   []string `mapstructure:"api_keys"`
	AdminKeys []string `mapstructure:"admin_keys"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LLMConfig configures the completion providers.
// ProviderOrder controls which providers are used and in what order; the
// first is primary, the rest are fallbacks. Example: ["openrouter", "anthropic"].
type LLMConfig struct {
	ProviderOrder  []string         `mapstructure:"provider_order"`
	OpenRouter     OpenRouterConfig `mapstructure:"openrouter"`
	Anthropic      AnthropicConfig  `mapstructure:"anthropic"`
	RatePerMinute  int              `mapstructure:"rate_per_minute"`
	RequestTimeout time.Duration    `mapstructure:"request_timeout"`
	MaxTokens      int              `mapstructure:"max_tokens"`
	Temperature    float32          `mapstructure:"temperature"`
}

type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	Referer string `mapstructure:"referer"`
	Title   string `mapstructure:"title"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// SearchConfig configures the advisory web-search provider.
type SearchConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	MaxResults   int           `mapstructure:"max_results"`
	Domains      []string      `mapstructure:"domains"`
}

// PredictConfig holds prediction-flow defaults; the stored settings record
// can override these at runtime.
type PredictConfig struct {
	AutoPredict     bool `mapstructure:"auto_predict"`
	ShowConfidence  bool `mapstructure:"show_confidence"`
	IncludeRankings bool `mapstructure:"include_rankings"`
}

// ExtractConfig bounds the page fetcher.
type ExtractConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	UserAgent    string        `mapstructure:"user_agent"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.database_path", "./storage/predictor.db")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("llm.provider_order", []string{"openrouter"})
	v.SetDefault("llm.openrouter.model", "anthropic/claude-3.5-sonnet")
	v.SetDefault("llm.openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.openrouter.referer", "https://majors.im")
	v.SetDefault("llm.openrouter.title", "Bracket Predictor")
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.rate_per_minute", 10)
	v.SetDefault("llm.request_timeout", 60*time.Second)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("search.base_url", "https://api.tavily.com/search")
	v.SetDefault("search.query_timeout", 10*time.Second)
	v.SetDefault("search.max_results", 3)
	v.SetDefault("search.domains", []string{"hltv.org"})
	v.SetDefault("predict.auto_predict", false)
	v.SetDefault("predict.show_confidence", true)
	v.SetDefault("predict.include_rankings", true)
	v.SetDefault("extract.fetch_timeout", 20*time.Second)
	v.SetDefault("extract.max_body_bytes", 4<<20)
	v.SetDefault("extract.user_agent", "bracket-predictor/1.0")
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("log.level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// A missing config file is fine — defaults plus env cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// PREDICTOR_LLM_OPENROUTER_API_KEY=... → llm.openrouter.api_key
	v.SetEnvPrefix("PREDICTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so keys
	// without a default (the secrets) need an explicit binding to be
	// settable from the environment alone.
	for _, key := range []string{
		"llm.openrouter.api_key",
		"llm.anthropic.api_key",
		"search.api_key",
		"auth.api_keys",
		"auth.admin_keys",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Address returns the listen address string like "0.0.0.0:8080".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
