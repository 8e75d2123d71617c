package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/lookout/pkg/domain"
)

// LoggingHooks writes one debug line per lifecycle event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "thread_id", e.ThreadID, "node_id", e.NodeID, "step", e.Step)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_leave", "thread_id", e.ThreadID, "node_id", e.NodeID, "duration", e.Duration)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_call", "tool_name", e.ToolName, "call_id", e.CallID, "input", e.Input)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_return",
				"tool_name", e.ToolName,
				"call_id", e.CallID,
				"is_error", e.IsError,
				"duration", e.Duration,
			)
		},
		OnModelCall: func(ctx context.Context, e *domain.ModelEvent) {
			logger.DebugContext(ctx, "model_call", "model", e.Model, "messages", e.Messages)
		},
		OnModelReturn: func(ctx context.Context, e *domain.ModelEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "model_return", "model", e.Model, "err", e.Err, "duration", e.Duration)
				return
			}
			logger.DebugContext(ctx, "model_return", "model", e.Model, "tool_calls", e.ToolCalls, "duration", e.Duration)
		},
	}
}
