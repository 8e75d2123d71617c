// Package agent wires a chat model and a tool registry into the two-node
// tool-calling graph:
//
//	__start__ --> agent --(tool calls)--> tools --> agent
//	                   \--(no tool calls)--> __end__
//
// The agent node asks the model for the next message. The tools node runs
// every tool call of the last assistant message and appends one tool message
// per call, in call order, before the model is asked again.
package agent
