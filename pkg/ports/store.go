package ports

import (
	"context"

	"github.com/aretw0/lookout/pkg/domain"
)

// StateStore defines the interface for persisting thread checkpoints.
// It plays the role of the checkpointer: keyed by thread ID, it persists and
// replays the conversation across graph invocations.
type StateStore interface {
	// Save persists the state for a given thread ID.
	Save(ctx context.Context, threadID string, state *domain.State) error

	// Load retrieves the state for a given thread ID.
	// Returns domain.ErrThreadNotFound if the thread does not exist.
	Load(ctx context.Context, threadID string) (*domain.State, error)

	// Delete removes the state for a given thread ID.
	Delete(ctx context.Context, threadID string) error

	// List returns the IDs of all stored threads.
	List(ctx context.Context) ([]string, error)
}
