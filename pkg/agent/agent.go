package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/lookout/internal/logging"
	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/graph"
	"github.com/aretw0/lookout/pkg/ports"
	"github.com/aretw0/lookout/pkg/registry"
)

// Node ids of the compiled graph.
const (
	NodeAgent = "agent"
	NodeTools = "tools"
)

// ErrNoReply is returned when an invocation ends without an assistant message.
var ErrNoReply = errors.New("graph finished without an assistant reply")

// namer is implemented by models that can report which model they call.
type namer interface {
	ModelName() string
}

// Agent is the compiled tool-calling graph plus the collaborators its nodes use.
type Agent struct {
	model ports.ChatModel
	tools *registry.Registry

	toolsDisabled    bool
	handleToolErrors bool
	interceptor      ports.ToolInterceptor
	systemPrompt     string

	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	graphOpts []graph.Option

	graph *graph.Graph
}

// New compiles the agent graph. tools may be nil when no tool is available.
func New(model ports.ChatModel, tools *registry.Registry, opts ...Option) (*Agent, error) {
	if model == nil {
		return nil, errors.New("agent: model is required")
	}
	if tools == nil {
		tools = registry.NewRegistry()
	}

	a := &Agent{
		model:  model,
		tools:  tools,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	graphOpts := append([]graph.Option{
		graph.WithLogger(a.logger),
		graph.WithHooks(a.hooks),
	}, a.graphOpts...)

	g, err := graph.NewBuilder().
		AddNode(NodeAgent, a.callModel, graph.WithNodeType(domain.NodeTypeModel)).
		AddNode(NodeTools, a.runTools, graph.WithNodeType(domain.NodeTypeTool)).
		AddEdge(graph.Start, NodeAgent).
		AddConditionalEdges(NodeAgent, a.shouldContinue, map[string]string{
			NodeTools: NodeTools,
			graph.End: graph.End,
		}).
		AddEdge(NodeTools, NodeAgent).
		Compile(graphOpts...)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	a.graph = g
	return a, nil
}

// Graph returns the compiled graph.
func (a *Agent) Graph() *graph.Graph {
	return a.graph
}

// Respond appends input as one user message to the thread, runs the graph
// and returns the final assistant message.
func (a *Agent) Respond(ctx context.Context, threadID, input string) (domain.Message, error) {
	if strings.TrimSpace(input) == "" {
		return domain.Message{}, domain.ErrEmptyInput
	}

	msgs := []domain.Message{domain.NewUserMessage(input)}
	if a.systemPrompt != "" {
		if _, err := a.graph.GetState(ctx, threadID); errors.Is(err, domain.ErrThreadNotFound) {
			msgs = append([]domain.Message{domain.NewSystemMessage(a.systemPrompt)}, msgs...)
		} else if err != nil {
			return domain.Message{}, err
		}
	}

	state, err := a.graph.Invoke(ctx, threadID, msgs...)
	if err != nil {
		return domain.Message{}, err
	}

	last, ok := state.LastMessage()
	if !ok || last.Role != domain.RoleAssistant {
		return domain.Message{}, ErrNoReply
	}
	return last, nil
}

// ShouldContinue routes to the tools node when the last message requests
// tool calls, and to the end otherwise.
func ShouldContinue(state *domain.State) string {
	last, ok := state.LastMessage()
	if ok && last.HasToolCalls() {
		return NodeTools
	}
	return graph.End
}

func (a *Agent) shouldContinue(ctx context.Context, state *domain.State) (string, error) {
	if a.toolsDisabled {
		return graph.End, nil
	}
	return ShouldContinue(state), nil
}

func (a *Agent) callModel(ctx context.Context, state *domain.State) ([]domain.Message, error) {
	var defs []domain.Tool
	if !a.toolsDisabled {
		defs = a.tools.Definitions()
	}

	var name string
	if n, ok := a.model.(namer); ok {
		name = n.ModelName()
	}

	start := time.Now()
	if a.hooks.OnModelCall != nil {
		a.hooks.OnModelCall(ctx, &domain.ModelEvent{
			EventBase: domain.EventBase{Timestamp: start, Type: domain.EventModelCall, ThreadID: state.ThreadID},
			Model:     name,
			Messages:  len(state.Messages),
		})
	}

	reply, err := a.model.Generate(ctx, state.Messages, defs)

	if a.hooks.OnModelReturn != nil {
		a.hooks.OnModelReturn(ctx, &domain.ModelEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventModelReturn, ThreadID: state.ThreadID},
			Model:     name,
			Messages:  len(state.Messages),
			ToolCalls: len(reply.ToolCalls),
			Err:       err,
			Duration:  time.Since(start),
		})
	}

	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	if reply.ID == "" {
		reply = domain.NewAssistantMessage(reply.Content, reply.ToolCalls...)
	}
	reply.Role = domain.RoleAssistant

	a.logger.Debug("Model replied",
		"thread_id", state.ThreadID,
		"tool_calls", len(reply.ToolCalls),
		"duration", time.Since(start),
	)
	return []domain.Message{reply}, nil
}
