package config

import "github.com/jackzampolin/storyboard/internal/backends"

// Config holds storyboard configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Providers  map[string]ProviderCfg `mapstructure:"providers" yaml:"providers" validate:"dive"`
	Backends   BackendsCfg            `mapstructure:"backends" yaml:"backends"`
	Pipeline   PipelineCfg            `mapstructure:"pipeline" yaml:"pipeline"`
	PromptsDir string                 `mapstructure:"prompts_dir" yaml:"prompts_dir"` // Prompt overrides; defaults to {home}/prompts
}

// ProviderCfg configures an LLM provider client.
type ProviderCfg struct {
	Type       string `mapstructure:"type" yaml:"type" validate:"required,oneof=openrouter openai gemini"`
	Model      string `mapstructure:"model" yaml:"model"`       // Used when a call names no model
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`   // Supports ${ENV_VAR} syntax
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"` // OpenAI-compatible endpoints
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries" validate:"gte=0"`
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
}

// BackendsCfg maps model identifiers to backend categories.
type BackendsCfg struct {
	DefaultCategory string                 `mapstructure:"default_category" yaml:"default_category" validate:"required"`
	Rules           []backends.Rule        `mapstructure:"rules" yaml:"rules" validate:"dive"`
	Categories      map[string]CategoryCfg `mapstructure:"categories" yaml:"categories" validate:"dive"`
	Aliases         []Alias                `mapstructure:"aliases" yaml:"aliases" validate:"dive"`
}

// Alias maps a user-facing model name to the provider model ID. Aliases are
// a list rather than a map because model names contain dots, which viper
// reads as key separators.
type Alias struct {
	Model  string `mapstructure:"model" yaml:"model" validate:"required"`
	Target string `mapstructure:"target" yaml:"target" validate:"required"`
}

// CategoryCfg binds a category to a provider.
type CategoryCfg struct {
	Provider       string `mapstructure:"provider" yaml:"provider" validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
	FirstClass     bool   `mapstructure:"first_class" yaml:"first_class"`
}

// PipelineCfg tunes shot generation.
type PipelineCfg struct {
	DefaultModel        string  `mapstructure:"default_model" yaml:"default_model" validate:"required"`
	RetryAttempts       uint    `mapstructure:"retry_attempts" yaml:"retry_attempts" validate:"gte=1,lte=10"`
	RetryDelaySeconds   float64 `mapstructure:"retry_delay_seconds" yaml:"retry_delay_seconds" validate:"gte=0"`
	SplitTimeoutSeconds int     `mapstructure:"split_timeout_seconds" yaml:"split_timeout_seconds" validate:"gt=0"`
	AssetTimeoutSeconds int     `mapstructure:"asset_timeout_seconds" yaml:"asset_timeout_seconds" validate:"gt=0"`
	AssetSimilarity     float64 `mapstructure:"asset_similarity" yaml:"asset_similarity" validate:"gte=0,lte=1"` // Duplicate threshold for extracted assets
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Providers: map[string]ProviderCfg{
			"openrouter": {
				Type:    "openrouter",
				Model:   "anthropic/claude-sonnet-4.5",
				APIKey:  "${OPENROUTER_API_KEY}",
				Enabled: true,
			},
			"openai": {
				Type:    "openai",
				Model:   "gpt-4.1",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: true,
			},
			"deepseek": {
				Type:    "openai",
				Model:   "deepseek-chat",
				APIKey:  "${DEEPSEEK_API_KEY}",
				BaseURL: "https://api.deepseek.com",
				Enabled: true,
			},
			"gemini": {
				Type:    "gemini",
				Model:   "gemini-2.0-flash",
				APIKey:  "${GEMINI_API_KEY}",
				Enabled: true,
			},
		},
		Backends: BackendsCfg{
			DefaultCategory: "claude",
			Rules: []backends.Rule{
				{Prefix: "claude", Category: "claude"},
				{Prefix: "anthropic/", Category: "claude"},
				{Prefix: "deepseek", Category: "deepseek"},
				{Prefix: "gemini", Category: "gemini"},
				{Prefix: "gpt", Category: "openai"},
			},
			Categories: map[string]CategoryCfg{
				"claude":   {Provider: "openrouter", TimeoutSeconds: 600, FirstClass: true},
				"deepseek": {Provider: "deepseek", TimeoutSeconds: 300},
				"gemini":   {Provider: "gemini", TimeoutSeconds: 300},
				"openai":   {Provider: "openai", TimeoutSeconds: 300},
			},
			Aliases: []Alias{
				{Model: "claude", Target: "anthropic/claude-sonnet-4.5"},
				{Model: "claude-sonnet-4-5", Target: "anthropic/claude-sonnet-4.5"},
				{Model: "claude-opus-4-1", Target: "anthropic/claude-opus-4.1"},
				{Model: "gpt4", Target: "gpt-4.1"},
			},
		},
		Pipeline: PipelineCfg{
			DefaultModel:        "claude-sonnet-4-5",
			RetryAttempts:       3,
			RetryDelaySeconds:   2,
			SplitTimeoutSeconds: 120,
			AssetTimeoutSeconds: 180,
			AssetSimilarity:     0.8,
		},
	}
}

// GetProvider returns a provider config by name.
func (c *Config) GetProvider(name string) (ProviderCfg, bool) {
	cfg, ok := c.Providers[name]
	return cfg, ok
}

// EnabledProviders returns all enabled providers.
func (c *Config) EnabledProviders() map[string]ProviderCfg {
	result := make(map[string]ProviderCfg)
	for name, cfg := range c.Providers {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
