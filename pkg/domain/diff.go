package domain

import "fmt"

// StateDiff represents the changes between two checkpoints of the same thread.
type StateDiff struct {
	// ThreadID is always present to identify the target.
	ThreadID string `json:"thread_id"`

	CurrentNodeID *string          `json:"current_node_id,omitempty"`
	Status        *ExecutionStatus `json:"status,omitempty"`

	// Appended contains the messages added since the old checkpoint.
	Appended []Message `json:"appended,omitempty"`

	// Visited contains the node IDs appended to the history.
	Visited []string `json:"visited,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns ErrHistoryRewritten if newState does not extend oldState's messages.
func Diff(oldState, newState *State) (*StateDiff, error) {
	if newState == nil {
		return nil, nil
	}

	diff := &StateDiff{ThreadID: newState.ThreadID}

	if oldState == nil || oldState.CurrentNodeID != newState.CurrentNodeID {
		diff.CurrentNodeID = &newState.CurrentNodeID
	}
	if oldState == nil || oldState.Status != newState.Status {
		diff.Status = &newState.Status
	}

	appended, err := diffMessages(oldState, newState)
	if err != nil {
		return nil, err
	}
	diff.Appended = appended
	diff.Visited = diffHistory(oldState, newState)

	if diff.IsEmpty() {
		return nil, nil
	}
	return diff, nil
}

func diffMessages(old, new *State) ([]Message, error) {
	if old == nil {
		if len(new.Messages) == 0 {
			return nil, nil
		}
		return new.Messages, nil
	}

	oldLen := len(old.Messages)
	if len(new.Messages) < oldLen {
		return nil, fmt.Errorf("%w: %d messages became %d", ErrHistoryRewritten, oldLen, len(new.Messages))
	}
	for i := 0; i < oldLen; i++ {
		if old.Messages[i].ID != new.Messages[i].ID || old.Messages[i].Content != new.Messages[i].Content {
			return nil, fmt.Errorf("%w: message %d changed", ErrHistoryRewritten, i)
		}
	}
	if len(new.Messages) == oldLen {
		return nil, nil
	}
	return new.Messages[oldLen:], nil
}

// diffHistory assumes standard append-only behavior for History.
func diffHistory(old, new *State) []string {
	if len(new.History) == 0 {
		return nil
	}
	if old == nil {
		return new.History
	}
	if len(new.History) > len(old.History) {
		return new.History[len(old.History):]
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.Status == nil &&
		len(d.Appended) == 0 &&
		len(d.Visited) == 0
}
