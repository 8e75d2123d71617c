package ports

import (
	"context"

	"github.com/aretw0/lookout/pkg/domain"
)

// ToolInterceptor is a middleware that can intercept or block a tool call
// before it is executed.
// It returns true if execution should proceed, or false to block it.
// If blocked, it should return a ToolResult describing the denial.
type ToolInterceptor func(ctx context.Context, call domain.ToolCall) (bool, domain.ToolResult, error)
