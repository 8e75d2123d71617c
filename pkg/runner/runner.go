package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/lookout/internal/logging"
	"github.com/aretw0/lookout/pkg/domain"
)

const (
	// DefaultPrompt is shown before every operator line.
	DefaultPrompt = "you: "
	// ExitCommand ends the loop without contacting the model.
	ExitCommand = "/bye"
	// ReplyPrefix precedes every printed reply.
	ReplyPrefix = "Agent: "
	// DefaultThreadID is the single conversation of a process.
	DefaultThreadID = "1"
)

// Runner is the read-respond-print loop.
type Runner struct {
	responder Responder
	handler   IOHandler
	threadID  string
	prompt    string
	logger    *slog.Logger
}

// New creates a Runner. Without WithInputHandler it talks to Stdin/Stdout.
func New(responder Responder, opts ...Option) *Runner {
	r := &Runner{
		responder: responder,
		threadID:  DefaultThreadID,
		prompt:    DefaultPrompt,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(nil, nil)
	}
	return r
}

// Handler returns the IO strategy in use.
func (r *Runner) Handler() IOHandler {
	return r.handler
}

// ThreadID returns the conversation the loop writes to.
func (r *Runner) ThreadID() string {
	return r.threadID
}

// Run loops until the operator types ExitCommand or the input ends.
// Both are a normal exit and return nil. Any failure of the response step
// stops the loop and is returned as is.
func (r *Runner) Run(ctx context.Context) error {
	for turn := 1; ; turn++ {
		line, err := r.read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.logger.Debug("Input closed", "thread_id", r.threadID)
				return nil
			}
			return err
		}

		if line == ExitCommand {
			r.logger.Debug("Exit requested", "thread_id", r.threadID)
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		r.logger.Debug("Responding", "thread_id", r.threadID, "turn", turn)
		reply, err := r.responder.Respond(ctx, r.threadID, line)
		if err != nil {
			return fmt.Errorf("respond: %w", err)
		}

		if _, err := r.handler.Output(ctx, []domain.ActionRequest{{
			Type:    domain.ActionRenderContent,
			Payload: ReplyPrefix + reply.Content,
		}}); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

func (r *Runner) read(ctx context.Context) (string, error) {
	if _, err := r.handler.Output(ctx, []domain.ActionRequest{{
		Type:    domain.ActionRequestInput,
		Payload: domain.InputRequest{Prompt: r.prompt},
	}}); err != nil {
		return "", fmt.Errorf("output error: %w", err)
	}
	return r.handler.Input(ctx)
}
