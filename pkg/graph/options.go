package graph

import (
	"log/slog"

	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/ports"
	"github.com/aretw0/lookout/pkg/session"
)

// DefaultRecursionLimit bounds the node steps of a single invocation.
const DefaultRecursionLimit = 25

// Option configures a compiled Graph.
type Option func(*Graph)

// WithStore checkpoints threads to store, wrapped in a fresh session.Manager.
func WithStore(store ports.StateStore) Option {
	return func(g *Graph) {
		g.sessions = session.NewManager(store)
	}
}

// WithSessionManager checkpoints through an existing manager, sharing its
// locks (and distributed locker) with other users of the same store.
func WithSessionManager(m *session.Manager) Option {
	return func(g *Graph) {
		g.sessions = m
	}
}

// WithHooks registers lifecycle callbacks. Multiple calls are merged.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(g *Graph) {
		g.hooks = domain.MergeHooks(g.hooks, hooks)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithRecursionLimit overrides DefaultRecursionLimit. Values < 1 are ignored.
func WithRecursionLimit(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.limit = n
		}
	}
}
