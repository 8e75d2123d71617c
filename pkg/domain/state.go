package domain

import "time"

// ExecutionStatus defines the current mode of a thread.
type ExecutionStatus string

const (
	StatusActive  ExecutionStatus = "active"  // Idle, waiting for the next input
	StatusRunning ExecutionStatus = "running" // A graph invocation is in progress
	StatusDone    ExecutionStatus = "done"    // The last invocation reached the end node
)

// State is the checkpoint of a conversation thread.
type State struct {
	// ThreadID identifies the conversation.
	ThreadID string `json:"thread_id"`

	// Messages is the ordered, append-only conversation.
	Messages []Message `json:"messages"`

	// CurrentNodeID is the last node executed by the graph.
	CurrentNodeID string `json:"current_node_id"`

	// Status indicates if the graph is running or idle.
	Status ExecutionStatus `json:"status"`

	// History tracks the path of nodes taken across invocations.
	History []string `json:"history,omitempty"`

	// Step counts node executions for the current invocation.
	Step int `json:"step"`

	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the encrypted checkpoint when the store encrypts at rest.
	// It is empty on every state handed to the graph.
	Sealed string `json:"sealed,omitempty"`
}

// NewState creates a clean state for a thread.
func NewState(threadID string) *State {
	return &State{
		ThreadID:  threadID,
		Status:    StatusActive,
		Messages:  []Message{},
		UpdatedAt: time.Now().UTC(),
	}
}

// LastMessage returns the most recent message, if any.
func (s *State) LastMessage() (Message, bool) {
	if s == nil || len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Append adds messages to the end of the conversation.
func (s *State) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}

// Clone returns a copy whose slices can be appended to without affecting the source.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.Messages = make([]Message, len(s.Messages))
	copy(next.Messages, s.Messages)
	next.History = make([]string, len(s.History))
	copy(next.History, s.History)
	return &next
}
