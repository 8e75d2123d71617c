package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/lookout/internal/config"
	"github.com/aretw0/lookout/pkg/adapters/file"
	"github.com/aretw0/lookout/pkg/adapters/memory"
	"github.com/aretw0/lookout/pkg/adapters/openai"
	"github.com/aretw0/lookout/pkg/adapters/redis"
	"github.com/aretw0/lookout/pkg/adapters/tavily"
	"github.com/aretw0/lookout/pkg/agent"
	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/graph"
	"github.com/aretw0/lookout/pkg/observability"
	"github.com/aretw0/lookout/pkg/persistence/middleware"
	"github.com/aretw0/lookout/pkg/ports"
	"github.com/aretw0/lookout/pkg/registry"
	"github.com/aretw0/lookout/pkg/session"
)

// Backend is the checkpoint store selected by the configuration.
type Backend struct {
	Store    ports.StateStore
	Sessions *session.Manager
	close    func() error
}

// Close releases the store connection, if any.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend creates the store and its session manager.
// The redis store also coordinates thread locks through redis, and any store
// is sealed at rest when an encryption key is configured.
func OpenBackend(cfg config.Config, logger *slog.Logger) (*Backend, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}

	b := &Backend{}
	var sessionOpts []session.Option

	switch cfg.Store.Kind {
	case config.StoreFile:
		store := file.New(cfg.Store.Path)
		logger.Debug("Using file store", "path", store.BasePath)
		b.Store = store

	case config.StoreRedis:
		var opts []redis.Option
		if cfg.Store.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Store.TTL))
		}
		store, err := redis.New(cfg.Store.RedisURL, opts...)
		if err != nil {
			return nil, err
		}
		logger.Debug("Using redis store", "ttl", cfg.Store.TTL)
		b.Store = store
		b.close = store.Close
		sessionOpts = append(sessionOpts, session.WithLocker(redis.NewLocker(store.Client(), redis.DefaultPrefix+"lock:")))

	default:
		b.Store = memory.NewStore()
	}

	if cfg.Store.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.Store.EncryptionKey)
		if err != nil {
			b.Close()
			return nil, err
		}
		seal, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Store = middleware.Chain(b.Store, seal)
		logger.Debug("Checkpoints are encrypted at rest")
	}

	sessionOpts = append(sessionOpts, session.WithLogger(logger))
	b.Sessions = session.NewManager(b.Store, sessionOpts...)
	return b, nil
}

// NewModel creates the chat model client.
func NewModel(cfg config.Config, logger *slog.Logger) (ports.ChatModel, error) {
	return openai.New(openai.Config{
		APIKey:      cfg.Model.APIKey,
		BaseURL:     cfg.Model.BaseURL,
		Model:       cfg.Model.Name,
		Temperature: cfg.Model.Temperature,
		MaxRetries:  cfg.Model.MaxRetries,
	}, openai.WithLogger(logger))
}

// NewTools registers the search tool unless it is disabled.
func NewTools(cfg config.Config, logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry()
	if cfg.Search.Disabled {
		return reg
	}
	search := tavily.New(cfg.Search.APIKey,
		tavily.WithMaxResults(cfg.Search.MaxResults),
		tavily.WithTopic(cfg.Search.Topic),
		tavily.WithRateLimit(cfg.Search.RateLimit),
		tavily.WithMaxRetries(cfg.Search.MaxRetries),
		tavily.WithLogger(logger),
	)
	search.Register(reg)
	return reg
}

// AgentDeps groups what NewAgent wires together.
type AgentDeps struct {
	Model   ports.ChatModel
	Tools   *registry.Registry
	Backend *Backend
	Metrics *observability.Metrics
	Logger  *slog.Logger
	Debug   bool
}

// NewAgent builds the agent graph from the configuration.
func NewAgent(cfg config.Config, deps AgentDeps, extra ...agent.Option) (*agent.Agent, error) {
	if deps.Model == nil {
		return nil, fmt.Errorf("no chat model configured")
	}

	var hooks []domain.LifecycleHooks
	if deps.Metrics != nil {
		hooks = append(hooks, deps.Metrics.Hooks())
	}
	if deps.Debug {
		hooks = append(hooks, observability.LoggingHooks(deps.Logger))
	}

	opts := []agent.Option{
		agent.WithLogger(deps.Logger),
		agent.WithToolErrorHandling(cfg.Chat.ToolErrors),
		agent.WithGraphOptions(
			graph.WithSessionManager(deps.Backend.Sessions),
			graph.WithRecursionLimit(cfg.Chat.RecursionLimit),
		),
	}
	if len(hooks) > 0 {
		opts = append(opts, agent.WithHooks(domain.MergeHooks(hooks...)))
	}
	if cfg.Chat.SystemPrompt != "" {
		opts = append(opts, agent.WithSystemPrompt(cfg.Chat.SystemPrompt))
	}
	if cfg.Search.Disabled {
		opts = append(opts, agent.WithToolsDisabled())
	}
	opts = append(opts, extra...)

	return agent.New(deps.Model, deps.Tools, opts...)
}
