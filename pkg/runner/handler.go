package runner

import (
	"context"

	"github.com/aretw0/lookout/pkg/domain"
)

// IOHandler defines the strategy for interacting with the operator.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents the actions to the operator.
	// Returns true if one of the actions requests input.
	Output(ctx context.Context, actions []domain.ActionRequest) (bool, error)

	// Input reads one line from the operator.
	// It returns io.EOF when the input stream is exhausted.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (tool approval prompts, status).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms reply content before it is printed
// (e.g. markdown to ANSI).
type ContentRenderer func(string) (string, error)

// Responder produces the reply to one operator input on a thread.
type Responder interface {
	Respond(ctx context.Context, threadID, input string) (domain.Message, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, threadID, input string) (domain.Message, error)

func (f ResponderFunc) Respond(ctx context.Context, threadID, input string) (domain.Message, error) {
	return f(ctx, threadID, input)
}
