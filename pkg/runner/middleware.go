package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/ports"
)

// ConfirmationPrompt is shown when a tool call needs approval.
const ConfirmationPrompt = "Allow execution? [y/N] "

// MultiInterceptor chains multiple interceptors. The first denial wins.
func MultiInterceptor(interceptors ...ports.ToolInterceptor) ports.ToolInterceptor {
	return func(ctx context.Context, call domain.ToolCall) (bool, domain.ToolResult, error) {
		for _, interceptor := range interceptors {
			allowed, result, err := interceptor(ctx, call)
			if err != nil {
				return false, domain.ToolResult{}, err
			}
			if !allowed {
				return false, result, nil
			}
		}
		return true, domain.ToolResult{}, nil
	}
}

// ConfirmationMiddleware asks the operator through handler before every tool call.
// The prompt is sent as a system message so it stays distinct from replies.
func ConfirmationMiddleware(handler IOHandler) ports.ToolInterceptor {
	return func(ctx context.Context, call domain.ToolCall) (bool, domain.ToolResult, error) {
		if err := handler.SystemOutput(ctx, fmt.Sprintf("Tool Request: '%s' (ID: %s)\nArgs: %v", call.Name, call.ID, call.Args)); err != nil {
			return false, domain.ToolResult{}, err
		}

		actions := []domain.ActionRequest{{
			Type:    domain.ActionRequestInput,
			Payload: domain.InputRequest{Prompt: ConfirmationPrompt},
		}}
		if _, err := handler.Output(ctx, actions); err != nil {
			return false, domain.ToolResult{}, err
		}

		input, err := handler.Input(ctx)
		if err != nil {
			return false, domain.ToolResult{}, err
		}

		input = strings.TrimSpace(strings.ToLower(input))
		if input == "y" || input == "yes" {
			return true, domain.ToolResult{}, nil
		}

		return false, domain.ToolResult{
			ID:       call.ID,
			Name:     call.Name,
			IsDenied: true,
			Error:    "operator denied execution",
		}, nil
	}
}

// AutoApproveMiddleware allows everything.
func AutoApproveMiddleware() ports.ToolInterceptor {
	return func(ctx context.Context, call domain.ToolCall) (bool, domain.ToolResult, error) {
		return true, domain.ToolResult{}, nil
	}
}

// AllowListMiddleware only allows the named tools.
func AllowListMiddleware(names ...string) ports.ToolInterceptor {
	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[n] = true
	}
	return func(ctx context.Context, call domain.ToolCall) (bool, domain.ToolResult, error) {
		if allowed[call.Name] {
			return true, domain.ToolResult{}, nil
		}
		return false, domain.ToolResult{
			ID:       call.ID,
			Name:     call.Name,
			IsDenied: true,
			Error:    fmt.Sprintf("tool %q is not allowed", call.Name),
		}, nil
	}
}
