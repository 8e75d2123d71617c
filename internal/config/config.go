// Package config resolves lookout settings from defaults, an optional YAML
// file and the environment. Command-line flags are applied last by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/aretw0/lookout/pkg/adapters/openai"
	"github.com/aretw0/lookout/pkg/adapters/tavily"
	"github.com/aretw0/lookout/pkg/persistence/middleware"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Environment variables read by Load.
const (
	EnvGroqAPIKey   = "GROQ_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvTavilyAPIKey = "TAVILY_API_KEY"
	EnvModel        = "LOOKOUT_MODEL"
	EnvBaseURL      = "LOOKOUT_BASE_URL"
	EnvRedisURL     = "LOOKOUT_REDIS_URL"
	EnvDebug        = "LOOKOUT_DEBUG"
	EnvEncryption   = "LOOKOUT_ENCRYPTION_KEY"
)

var (
	ErrMissingModelKey  = errors.New("missing model API key (set " + EnvGroqAPIKey + " or " + EnvOpenAIAPIKey + ")")
	ErrMissingSearchKey = errors.New("missing search API key (set " + EnvTavilyAPIKey + " or use --no-tools)")
)

// Model configures the chat completion backend.
type Model struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Name        string  `yaml:"name"`
	Temperature float32 `yaml:"temperature"`
	MaxRetries  int     `yaml:"max_retries"`
}

// Search configures the web search tool.
type Search struct {
	APIKey     string  `yaml:"api_key"`
	MaxResults int     `yaml:"max_results"`
	Topic      string  `yaml:"topic"`
	RateLimit  float64 `yaml:"rate_limit"`
	MaxRetries int     `yaml:"max_retries"`
	Disabled   bool    `yaml:"disabled"`
}

// Store selects where thread checkpoints live.
type Store struct {
	Kind     string        `yaml:"kind"`
	Path     string        `yaml:"path"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`

	// EncryptionKey is a base64 AES-256 key. When set, checkpoints are sealed at rest.
	EncryptionKey string `yaml:"encryption_key"`
}

// Chat configures the terminal loop and the agent graph.
type Chat struct {
	ThreadID       string `yaml:"thread_id"`
	Prompt         string `yaml:"prompt"`
	SystemPrompt   string `yaml:"system_prompt"`
	Render         bool   `yaml:"render"`
	Confirm        bool   `yaml:"confirm"`
	ToolErrors     bool   `yaml:"handle_tool_errors"`
	RecursionLimit int    `yaml:"recursion_limit"`
}

// Config is the resolved configuration.
type Config struct {
	Model       Model  `yaml:"model"`
	Search      Search `yaml:"search"`
	Store       Store  `yaml:"store"`
	Chat        Chat   `yaml:"chat"`
	MetricsAddr string `yaml:"metrics_addr"`
	Debug       bool   `yaml:"debug"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Model: Model{
			BaseURL:     openai.DefaultBaseURL,
			Name:        openai.DefaultModel,
			Temperature: 0,
			MaxRetries:  openai.DefaultMaxRetries,
		},
		Search: Search{
			MaxResults: tavily.DefaultMaxResults,
			Topic:      tavily.DefaultTopic,
			RateLimit:  tavily.DefaultRateLimit,
			MaxRetries: tavily.DefaultMaxRetries,
		},
		Store: Store{
			Kind: StoreMemory,
		},
		Chat: Chat{
			ThreadID:       "1",
			Prompt:         "you: ",
			RecursionLimit: 25,
		},
	}
}

// Load starts from Default, merges the YAML file at path (when non-empty) and
// then applies the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. Empty variables are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvGroqAPIKey); v != "" {
		c.Model.APIKey = v
	} else if v := getenv(EnvOpenAIAPIKey); v != "" {
		c.Model.APIKey = v
	}
	if v := getenv(EnvTavilyAPIKey); v != "" {
		c.Search.APIKey = v
	}
	if v := getenv(EnvModel); v != "" {
		c.Model.Name = v
	}
	if v := getenv(EnvBaseURL); v != "" {
		c.Model.BaseURL = v
	}
	if v := getenv(EnvRedisURL); v != "" {
		c.Store.RedisURL = v
		if c.Store.Kind == StoreMemory {
			c.Store.Kind = StoreRedis
		}
	}
	if v := getenv(EnvEncryption); v != "" {
		c.Store.EncryptionKey = v
	}
	if v := getenv(EnvDebug); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Model.APIKey == "" {
		errs = append(errs, ErrMissingModelKey)
	}
	if c.Model.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("model.max_retries must be >= 0, got %d", c.Model.MaxRetries))
	}
	if !c.Search.Disabled {
		if c.Search.APIKey == "" {
			errs = append(errs, ErrMissingSearchKey)
		}
		if c.Search.MaxResults <= 0 {
			errs = append(errs, fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults))
		}
		if c.Search.MaxRetries < 0 {
			errs = append(errs, fmt.Errorf("search.max_retries must be >= 0, got %d", c.Search.MaxRetries))
		}
		if !slices.Contains(tavily.Topics, c.Search.Topic) {
			errs = append(errs, fmt.Errorf("search.topic %q is not one of %v", c.Search.Topic, tavily.Topics))
		}
	}
	errs = append(errs, c.ValidateStore())
	if c.Chat.ThreadID == "" {
		errs = append(errs, errors.New("chat.thread_id must not be empty"))
	}
	if c.Chat.RecursionLimit <= 0 {
		errs = append(errs, fmt.Errorf("chat.recursion_limit must be positive, got %d", c.Chat.RecursionLimit))
	}
	return errors.Join(errs...)
}

// ValidateStore checks only the store section, for commands that never call the model.
func (c Config) ValidateStore() error {
	if c.Store.EncryptionKey != "" {
		if _, err := middleware.ParseKey(c.Store.EncryptionKey); err != nil {
			return fmt.Errorf("store.encryption_key: %w", err)
		}
	}
	switch c.Store.Kind {
	case StoreMemory, StoreFile:
		return nil
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required for the redis store (or set %s)", EnvRedisURL)
		}
		return nil
	default:
		return fmt.Errorf("unknown store kind %q (memory, file, redis)", c.Store.Kind)
	}
}
