package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/lookout/internal/logging"
	"github.com/aretw0/lookout/pkg/adapters/memory"
	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/session"
)

// Graph is a compiled, immutable state graph bound to a checkpoint store.
// It is safe for concurrent use; invocations on the same thread are serialized.
type Graph struct {
	nodes  map[string]*node
	order  []string
	routes map[string]route

	sessions *session.Manager
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	limit    int
}

func newGraph(nodes map[string]*node, order []string, routes map[string]route, opts ...Option) *Graph {
	g := &Graph{
		nodes:  nodes,
		order:  order,
		routes: routes,
		logger: logging.NewNop(),
		limit:  DefaultRecursionLimit,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.sessions == nil {
		g.sessions = session.NewManager(memory.NewStore())
	}
	return g
}

// Sessions exposes the manager used for checkpoints.
func (g *Graph) Sessions() *session.Manager {
	return g.sessions
}

// GetState returns the latest checkpoint of a thread.
// It returns domain.ErrThreadNotFound for unknown threads.
func (g *Graph) GetState(ctx context.Context, threadID string) (*domain.State, error) {
	return g.sessions.Load(ctx, threadID)
}

// Invoke appends input to the thread and walks the graph from Start until End.
// The thread is checkpointed after the input is appended and after every node.
// The returned state is the final checkpoint.
func (g *Graph) Invoke(ctx context.Context, threadID string, input ...domain.Message) (*domain.State, error) {
	var final *domain.State
	err := g.sessions.WithLock(ctx, threadID, func(ctx context.Context) error {
		loaded, exists, err := g.sessions.LoadOrCreateLocked(ctx, threadID)
		if err != nil {
			return err
		}

		var last *domain.State
		if exists {
			last = loaded
		}

		state := loaded.Clone()
		state.Append(input...)
		state.Status = domain.StatusRunning
		state.Step = 0

		if last, err = g.checkpoint(ctx, last, state); err != nil {
			return err
		}

		current, err := g.next(ctx, Start, state)
		if err != nil {
			return err
		}

		for current != End {
			if err := ctx.Err(); err != nil {
				return err
			}
			if state.Step >= g.limit {
				return fmt.Errorf("%w: %d steps without reaching %s", ErrRecursionLimit, g.limit, End)
			}

			msgs, err := g.run(ctx, state, g.nodes[current])
			if err != nil {
				return err
			}

			state.Append(msgs...)
			state.CurrentNodeID = current
			state.History = append(state.History, current)
			state.Step++

			if last, err = g.checkpoint(ctx, last, state); err != nil {
				return err
			}

			if current, err = g.next(ctx, current, state); err != nil {
				return err
			}
		}

		state.Status = domain.StatusDone
		if _, err := g.checkpoint(ctx, last, state); err != nil {
			return err
		}
		final = state
		return nil
	})
	if err != nil {
		return nil, err
	}
	return final, nil
}

func (g *Graph) run(ctx context.Context, state *domain.State, n *node) ([]domain.Message, error) {
	enter := time.Now()
	if g.hooks.OnNodeEnter != nil {
		g.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			EventBase: domain.EventBase{Timestamp: enter, Type: domain.EventNodeEnter, ThreadID: state.ThreadID},
			NodeID:    n.id,
			Step:      state.Step,
		})
	}

	g.logger.Debug("Node enter", "thread_id", state.ThreadID, "node", n.id, "step", state.Step)
	msgs, err := n.fn(ctx, state.Clone())

	if g.hooks.OnNodeLeave != nil {
		g.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeLeave, ThreadID: state.ThreadID},
			NodeID:    n.id,
			Step:      state.Step,
			Duration:  time.Since(enter),
		})
	}

	if err != nil {
		return nil, &NodeError{NodeID: n.id, Err: err}
	}
	return msgs, nil
}

// next resolves the outgoing edge of from.
func (g *Graph) next(ctx context.Context, from string, state *domain.State) (string, error) {
	r, ok := g.routes[from]
	if !ok {
		return "", fmt.Errorf("%w: node %q has no outgoing edge", ErrUnknownRoute, from)
	}
	if r.cond == nil {
		return r.to, nil
	}

	label, err := r.cond(ctx, state)
	if err != nil {
		return "", fmt.Errorf("route from %q: %w", from, err)
	}
	if r.targets == nil {
		if label == End {
			return End, nil
		}
		if _, ok := g.nodes[label]; ok {
			return label, nil
		}
		return "", fmt.Errorf("%w: %q from %q", ErrUnknownRoute, label, from)
	}
	to, ok := r.targets[label]
	if !ok {
		return "", fmt.Errorf("%w: %q from %q", ErrUnknownRoute, label, from)
	}
	return to, nil
}

// checkpoint persists state if it differs from last, refusing any change that
// is not a pure extension of the stored conversation.
// It returns the snapshot that becomes the new baseline.
func (g *Graph) checkpoint(ctx context.Context, last, state *domain.State) (*domain.State, error) {
	diff, err := domain.Diff(last, state)
	if err != nil {
		return nil, fmt.Errorf("checkpoint thread %q: %w", state.ThreadID, err)
	}
	if diff == nil {
		return last, nil
	}

	state.UpdatedAt = time.Now().UTC()
	if err := g.sessions.Store().Save(ctx, state.ThreadID, state); err != nil {
		return nil, fmt.Errorf("checkpoint thread %q: %w", state.ThreadID, err)
	}

	g.logger.Debug("Checkpoint saved",
		"thread_id", state.ThreadID,
		"appended", len(diff.Appended),
		"messages", len(state.Messages),
	)
	return state.Clone(), nil
}

// IsCancellation reports whether err stems from context cancellation.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
