package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "openai/gpt-oss-120b", cfg.Model.Name)
	assert.Equal(t, float32(0), cfg.Model.Temperature)
	assert.Equal(t, 2, cfg.Model.MaxRetries)
	assert.Equal(t, 3, cfg.Search.MaxResults)
	assert.Equal(t, "general", cfg.Search.Topic)
	assert.Equal(t, 2, cfg.Search.MaxRetries)
	assert.Equal(t, "1", cfg.Chat.ThreadID)
	assert.Equal(t, "you: ", cfg.Chat.Prompt)
	assert.Equal(t, StoreMemory, cfg.Store.Kind)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model:
  name: llama-3.3-70b-versatile
search:
  topic: news
store:
  kind: file
  path: /tmp/threads
  ttl: 1h
chat:
  system_prompt: Be brief.
debug: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Model.Name)
	assert.Equal(t, 2, cfg.Model.MaxRetries, "unset fields keep defaults")
	assert.Equal(t, "news", cfg.Search.Topic)
	assert.Equal(t, 3, cfg.Search.MaxResults)
	assert.Equal(t, StoreFile, cfg.Store.Kind)
	assert.Equal(t, time.Hour, cfg.Store.TTL)
	assert.Equal(t, "Be brief.", cfg.Chat.SystemPrompt)
	assert.True(t, cfg.Debug)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unclosed"), 0o600))
	_, err = Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(env(map[string]string{
		EnvOpenAIAPIKey: "sk-openai",
		EnvTavilyAPIKey: "tvly",
		EnvModel:        "gpt-4o-mini",
		EnvBaseURL:      "https://api.openai.com/v1",
		EnvRedisURL:     "redis://localhost:6379/0",
		EnvDebug:        "true",
	}))
	assert.Equal(t, "sk-openai", cfg.Model.APIKey)
	assert.Equal(t, "tvly", cfg.Search.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Model.BaseURL)
	assert.Equal(t, StoreRedis, cfg.Store.Kind)
	assert.True(t, cfg.Debug)

	// Groq wins over OpenAI.
	cfg.ApplyEnv(env(map[string]string{EnvGroqAPIKey: "gsk", EnvOpenAIAPIKey: "sk"}))
	assert.Equal(t, "gsk", cfg.Model.APIKey)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Model.APIKey = "gsk"
	valid.Search.APIKey = "tvly"
	require.NoError(t, valid.Validate())

	noSearch := Default()
	noSearch.Model.APIKey = "gsk"
	noSearch.Search.Disabled = true
	assert.NoError(t, noSearch.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"model key", func(c *Config) { c.Model.APIKey = "" }, "missing model API key"},
		{"search key", func(c *Config) { c.Search.APIKey = "" }, "missing search API key"},
		{"topic", func(c *Config) { c.Search.Topic = "sports" }, "search.topic"},
		{"max results", func(c *Config) { c.Search.MaxResults = 0 }, "max_results"},
		{"store kind", func(c *Config) { c.Store.Kind = "s3" }, "unknown store kind"},
		{"redis url", func(c *Config) { c.Store.Kind = StoreRedis }, "redis_url"},
		{"thread", func(c *Config) { c.Chat.ThreadID = "" }, "thread_id"},
		{"retries", func(c *Config) { c.Model.MaxRetries = -1 }, "max_retries"},
		{"search retries", func(c *Config) { c.Search.MaxRetries = -1 }, "search.max_retries"},
		{"encryption key", func(c *Config) { c.Store.EncryptionKey = "c2hvcnQ=" }, "encryption_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	both := Default()
	err := both.Validate()
	assert.ErrorIs(t, err, ErrMissingModelKey)
	assert.ErrorIs(t, err, ErrMissingSearchKey)
}
