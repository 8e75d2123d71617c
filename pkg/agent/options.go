package agent

import (
	"log/slog"

	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/graph"
	"github.com/aretw0/lookout/pkg/ports"
)

// Option configures an Agent.
type Option func(*Agent)

// WithToolsDisabled hides every tool from the model. The graph never routes
// to the tools node.
func WithToolsDisabled() Option {
	return func(a *Agent) {
		a.toolsDisabled = true
	}
}

// WithToolErrorHandling controls what happens when a tool fails.
// When false (default) the invocation stops with a *graph.UnhandledToolError.
// When true the error is reported back to the model as a tool message.
func WithToolErrorHandling(enabled bool) Option {
	return func(a *Agent) {
		a.handleToolErrors = enabled
	}
}

// WithInterceptor gates every tool call through a policy.
func WithInterceptor(interceptor ports.ToolInterceptor) Option {
	return func(a *Agent) {
		a.interceptor = interceptor
	}
}

// WithSystemPrompt seeds new threads with a system message.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithHooks registers lifecycle callbacks for model, tool and node events.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Agent) {
		a.hooks = domain.MergeHooks(a.hooks, hooks)
	}
}

// WithLogger sets the structured logger, shared with the graph.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithGraphOptions forwards options to the compiled graph (store, session
// manager, recursion limit).
func WithGraphOptions(opts ...graph.Option) Option {
	return func(a *Agent) {
		a.graphOpts = append(a.graphOpts, opts...)
	}
}
