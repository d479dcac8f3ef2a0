// Package config loads storyboard configuration from file, environment and
// defaults, and converts it into the provider and backend dispatch tables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/storyboard/internal/backends"
	"github.com/jackzampolin/storyboard/internal/providers"
)

// EnvPrefix prefixes environment overrides, e.g. STORYBOARD_PIPELINE_DEFAULT_MODEL.
const EnvPrefix = "STORYBOARD"

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
	logger    *slog.Logger
}

// NewManager creates a new config manager and loads initial config.
// cfgFile may be empty, in which case ./config.yaml and homeDir/config.yaml
// are tried; a missing file is not an error.
func NewManager(cfgFile, homeDir string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
		logger:    slog.Default(),
	}

	if err := cm.initViper(cfgFile, homeDir); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// SetLogger sets the logger used for reload messages.
func (cm *Manager) SetLogger(logger *slog.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.logger = logger
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile, homeDir string) error {
	v := cm.v
	defaults := DefaultConfig()
	v.SetDefault("providers", defaults.Providers)
	v.SetDefault("backends.default_category", defaults.Backends.DefaultCategory)
	v.SetDefault("backends.rules", defaults.Backends.Rules)
	v.SetDefault("backends.categories", defaults.Backends.Categories)
	v.SetDefault("backends.aliases", defaults.Backends.Aliases)
	v.SetDefault("pipeline.default_model", defaults.Pipeline.DefaultModel)
	v.SetDefault("pipeline.retry_attempts", defaults.Pipeline.RetryAttempts)
	v.SetDefault("pipeline.retry_delay_seconds", defaults.Pipeline.RetryDelaySeconds)
	v.SetDefault("pipeline.split_timeout_seconds", defaults.Pipeline.SplitTimeoutSeconds)
	v.SetDefault("pipeline.asset_timeout_seconds", defaults.Pipeline.AssetTimeoutSeconds)
	v.SetDefault("pipeline.asset_similarity", defaults.Pipeline.AssetSimilarity)
	v.SetDefault("prompts_dir", "")

	// Environment variables with STORYBOARD_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if homeDir != "" {
			v.AddConfigPath(homeDir)
		}
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a validated Config.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the path of the loaded config file, or "" when running on defaults.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. A changed file that
// fails to load or validate is logged and the previous config is kept.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			cm.mu.RLock()
			logger := cm.logger
			cm.mu.RUnlock()
			logger.Warn("ignoring invalid config change", "file", e.Name, "error", err)
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

var validate = validator.New()

// Validate checks field constraints and that every category names a configured provider.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	names := make([]string, 0, len(c.Backends.Categories))
	for name := range c.Backends.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cat := c.Backends.Categories[name]
		if _, ok := c.Providers[cat.Provider]; !ok {
			return fmt.Errorf("invalid config: category %q uses unknown provider %q", name, cat.Provider)
		}
	}
	return nil
}

// ToProviderRegistryConfig converts the config to a format suitable for providers.Registry.
// It resolves all ${ENV_VAR} references in API keys.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	cfg := providers.RegistryConfig{
		LLMProviders: make(map[string]providers.LLMProviderConfig, len(c.Providers)),
	}
	for name, p := range c.Providers {
		cfg.LLMProviders[name] = providers.LLMProviderConfig{
			Type:       p.Type,
			Model:      p.Model,
			APIKey:     ResolveEnvVars(p.APIKey),
			BaseURL:    p.BaseURL,
			MaxRetries: p.MaxRetries,
			Enabled:    p.Enabled,
		}
	}
	return cfg
}

// ToDispatchConfig converts the backends section to a dispatch table.
func (c *Config) ToDispatchConfig() backends.Config {
	cats := make(map[string]backends.CategoryConfig, len(c.Backends.Categories))
	for name, cat := range c.Backends.Categories {
		cats[name] = backends.CategoryConfig{
			Provider:   cat.Provider,
			Timeout:    time.Duration(cat.TimeoutSeconds) * time.Second,
			FirstClass: cat.FirstClass,
		}
	}
	aliases := make(map[string]string, len(c.Backends.Aliases))
	for _, a := range c.Backends.Aliases {
		aliases[a.Model] = a.Target
	}
	return backends.Config{
		DefaultCategory: c.Backends.DefaultCategory,
		Rules:           c.Backends.Rules,
		Categories:      cats,
		Aliases:         aliases,
	}
}

// RetryDelay returns the pipeline retry delay as a duration.
func (p PipelineCfg) RetryDelay() time.Duration {
	return time.Duration(p.RetryDelaySeconds * float64(time.Second))
}

// SplitTimeout returns the split call timeout as a duration.
func (p PipelineCfg) SplitTimeout() time.Duration {
	return time.Duration(p.SplitTimeoutSeconds) * time.Second
}

// AssetTimeout returns the asset extraction timeout as a duration.
func (p PipelineCfg) AssetTimeout() time.Duration {
	return time.Duration(p.AssetTimeoutSeconds) * time.Second
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Storyboard configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell or a .env file: OPENROUTER_API_KEY, OPENAI_API_KEY, DEEPSEEK_API_KEY, GEMINI_API_KEY
# Any key can be overridden with STORYBOARD_<SECTION>_<KEY>, e.g. STORYBOARD_PIPELINE_DEFAULT_MODEL

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
