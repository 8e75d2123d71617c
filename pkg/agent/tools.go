package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/graph"
)

// runTools is the prebuilt tool node. It executes every call of the last
// assistant message and returns one tool message per call, in call order.
func (a *Agent) runTools(ctx context.Context, state *domain.State) ([]domain.Message, error) {
	last, ok := state.LastMessage()
	if !ok || !last.HasToolCalls() {
		return nil, nil
	}

	out := make([]domain.Message, 0, len(last.ToolCalls))
	for _, call := range last.ToolCalls {
		result, err := a.execute(ctx, state.ThreadID, call)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.NewToolMessage(call, FormatResult(result)))
	}
	return out, nil
}

func (a *Agent) execute(ctx context.Context, threadID string, call domain.ToolCall) (domain.ToolResult, error) {
	if !a.tools.Has(call.Name) {
		// Unknown tools are always reported back so the model can correct itself.
		return domain.ToolResult{
			ID:      call.ID,
			Name:    call.Name,
			IsError: true,
			Error:   fmt.Sprintf("%s is not a valid tool, try one of %v", call.Name, a.toolNames()),
		}, nil
	}

	if a.interceptor != nil {
		allowed, denial, err := a.interceptor(ctx, call)
		if err != nil {
			return domain.ToolResult{}, fmt.Errorf("tool interceptor: %w", err)
		}
		if !allowed {
			denial.ID = call.ID
			denial.Name = call.Name
			denial.IsDenied = true
			if denial.Error == "" {
				denial.Error = "execution denied by policy"
			}
			a.logger.Info("Tool call denied", "thread_id", threadID, "tool", call.Name, "call_id", call.ID)
			return denial, nil
		}
	}

	args, err := decodeArgs(call)
	if err != nil {
		return a.toolFailure(call, err)
	}

	start := time.Now()
	if a.hooks.OnToolCall != nil {
		a.hooks.OnToolCall(ctx, &domain.ToolEvent{
			EventBase: domain.EventBase{Timestamp: start, Type: domain.EventToolCall, ThreadID: threadID},
			ToolName:  call.Name,
			CallID:    call.ID,
			Input:     args,
		})
	}

	output, err := a.tools.Execute(ctx, call.Name, args)

	if a.hooks.OnToolReturn != nil {
		a.hooks.OnToolReturn(ctx, &domain.ToolEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventToolReturn, ThreadID: threadID},
			ToolName:  call.Name,
			CallID:    call.ID,
			Output:    output,
			IsError:   err != nil,
			Duration:  time.Since(start),
		})
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.ToolResult{}, err
		}
		return a.toolFailure(call, err)
	}

	return domain.ToolResult{ID: call.ID, Name: call.Name, Result: output}, nil
}

func (a *Agent) toolFailure(call domain.ToolCall, err error) (domain.ToolResult, error) {
	if !a.handleToolErrors {
		return domain.ToolResult{}, &graph.UnhandledToolError{ToolName: call.Name, CallID: call.ID, Err: err}
	}
	a.logger.Warn("Tool call failed, reporting to model", "tool", call.Name, "call_id", call.ID, "err", err)
	return domain.ToolResult{
		ID:      call.ID,
		Name:    call.Name,
		IsError: true,
		Error:   err.Error(),
	}, nil
}

func (a *Agent) toolNames() []string {
	defs := a.tools.Definitions()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

// decodeArgs returns the decoded arguments of a call, parsing RawArgs when the
// model adapter did not.
func decodeArgs(call domain.ToolCall) (map[string]any, error) {
	if call.Args != nil || call.RawArgs == "" {
		return call.Args, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(call.RawArgs), &args); err != nil {
		return nil, fmt.Errorf("invalid arguments for %s: %w", call.Name, err)
	}
	return args, nil
}

// FormatResult renders a tool result as the content of a tool message.
// Strings are passed through; other values are encoded as JSON.
func FormatResult(r domain.ToolResult) string {
	if r.IsDenied {
		return fmt.Sprintf("Denied: %s", r.Error)
	}
	if r.IsError {
		return fmt.Sprintf("Error: %s\nPlease fix your mistakes.", r.Error)
	}
	switch v := r.Result.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	b, err := json.Marshal(r.Result)
	if err != nil {
		return fmt.Sprint(r.Result)
	}
	return string(b)
}
