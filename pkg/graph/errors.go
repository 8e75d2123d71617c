package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGraph is returned by Compile when the graph is malformed.
	ErrInvalidGraph = errors.New("invalid graph")

	// ErrRecursionLimit is returned when an invocation runs more node steps
	// than the configured limit without reaching End.
	ErrRecursionLimit = errors.New("recursion limit reached")

	// ErrUnknownRoute is returned when a conditional edge yields a label that
	// has no target.
	ErrUnknownRoute = errors.New("unknown route")
)

// UnhandledToolError is returned by a tool node when a tool fails and the
// graph is not configured to report tool errors back to the model.
type UnhandledToolError struct {
	ToolName string
	CallID   string
	Err      error
}

func (e *UnhandledToolError) Error() string {
	return fmt.Sprintf("tool %q (call %s) failed: %v", e.ToolName, e.CallID, e.Err)
}

func (e *UnhandledToolError) Unwrap() error {
	return e.Err
}

// NodeError wraps a failure raised inside a node body.
type NodeError struct {
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q: %v", e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
