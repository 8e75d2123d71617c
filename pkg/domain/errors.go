package domain

import "errors"

// ErrThreadNotFound is returned when a thread ID cannot be found in the store.
var ErrThreadNotFound = errors.New("thread not found")

// ErrHistoryRewritten is returned when a checkpoint would modify or drop messages
// that were already persisted. Conversations only grow by appension.
var ErrHistoryRewritten = errors.New("conversation history rewritten")

// ErrToolNotFound is returned when the model requests a tool that is not registered.
var ErrToolNotFound = errors.New("tool not found")

// ErrEmptyInput is returned when a blank message is submitted to the graph.
var ErrEmptyInput = errors.New("empty input")
