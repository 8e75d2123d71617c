package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/lookout/pkg/adapters/memory"
	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoNode(ctx context.Context, s *domain.State) ([]domain.Message, error) {
	last, _ := s.LastMessage()
	return []domain.Message{domain.NewAssistantMessage("echo: " + last.Content)}, nil
}

func buildEcho(t *testing.T, opts ...graph.Option) *graph.Graph {
	t.Helper()
	g, err := graph.NewBuilder().
		AddNode("echo", echoNode).
		AddEdge(graph.Start, "echo").
		AddEdge("echo", graph.End).
		Compile(opts...)
	require.NoError(t, err)
	return g
}

func TestGraph_Invoke_Linear(t *testing.T) {
	g := buildEcho(t)
	ctx := context.Background()

	state, err := g.Invoke(ctx, "1", domain.NewUserMessage("hello"))
	require.NoError(t, err)

	require.Len(t, state.Messages, 2)
	assert.Equal(t, domain.RoleUser, state.Messages[0].Role)
	assert.Equal(t, "echo: hello", state.Messages[1].Content)
	assert.Equal(t, domain.StatusDone, state.Status)
	assert.Equal(t, []string{"echo"}, state.History)
	assert.Equal(t, "echo", state.CurrentNodeID)

	stored, err := g.GetState(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, state.Messages, stored.Messages)
}

func TestGraph_Invoke_HistoryIsMonotonic(t *testing.T) {
	g := buildEcho(t)
	ctx := context.Background()

	prev := []domain.Message{}
	for i, input := range []string{"a", "b", "c"} {
		state, err := g.Invoke(ctx, "1", domain.NewUserMessage(input))
		require.NoError(t, err)

		require.Len(t, state.Messages, 2*(i+1))
		assert.Equal(t, prev, state.Messages[:len(prev)], "earlier messages must be preserved")
		prev = state.Messages
	}
}

func TestGraph_Invoke_ThreadsAreIsolated(t *testing.T) {
	g := buildEcho(t)
	ctx := context.Background()

	_, err := g.Invoke(ctx, "a", domain.NewUserMessage("one"))
	require.NoError(t, err)
	b, err := g.Invoke(ctx, "b", domain.NewUserMessage("two"))
	require.NoError(t, err)

	assert.Len(t, b.Messages, 2)
}

func TestGraph_ConditionalLoop(t *testing.T) {
	// counter appends until three assistant messages exist
	count := func(s *domain.State) int {
		n := 0
		for _, m := range s.Messages {
			if m.Role == domain.RoleAssistant {
				n++
			}
		}
		return n
	}

	g, err := graph.NewBuilder().
		AddNode("count", func(ctx context.Context, s *domain.State) ([]domain.Message, error) {
			return []domain.Message{domain.NewAssistantMessage("tick")}, nil
		}).
		AddEdge(graph.Start, "count").
		AddConditionalEdges("count", func(ctx context.Context, s *domain.State) (string, error) {
			if count(s) < 3 {
				return "again", nil
			}
			return "stop", nil
		}, map[string]string{"again": "count", "stop": graph.End}).
		Compile()
	require.NoError(t, err)

	state, err := g.Invoke(context.Background(), "1", domain.NewUserMessage("go"))
	require.NoError(t, err)
	assert.Equal(t, 3, count(state))
	assert.Equal(t, 3, state.Step)
}

func TestGraph_RecursionLimit(t *testing.T) {
	g, err := graph.NewBuilder().
		AddNode("loop", func(ctx context.Context, s *domain.State) ([]domain.Message, error) {
			return nil, nil
		}).
		AddEdge(graph.Start, "loop").
		AddEdge("loop", "loop").
		Compile(graph.WithRecursionLimit(4))
	require.NoError(t, err)

	_, err = g.Invoke(context.Background(), "1", domain.NewUserMessage("go"))
	assert.ErrorIs(t, err, graph.ErrRecursionLimit)
}

func TestGraph_NodeErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	store := memory.NewStore()

	g, err := graph.NewBuilder().
		AddNode("fail", func(ctx context.Context, s *domain.State) ([]domain.Message, error) {
			return nil, boom
		}).
		AddEdge(graph.Start, "fail").
		AddEdge("fail", graph.End).
		Compile(graph.WithStore(store))
	require.NoError(t, err)

	_, err = g.Invoke(context.Background(), "1", domain.NewUserMessage("go"))
	require.ErrorIs(t, err, boom)

	var nodeErr *graph.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "fail", nodeErr.NodeID)

	// The input was checkpointed before the failure.
	stored, err := store.Load(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, "go", stored.Messages[0].Content)
}

func TestGraph_Hooks(t *testing.T) {
	var entered, left []string
	hooks := domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) { entered = append(entered, e.NodeID) },
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) { left = append(left, e.NodeID) },
	}
	g := buildEcho(t, graph.WithHooks(hooks))

	_, err := g.Invoke(context.Background(), "1", domain.NewUserMessage("hi"))
	require.NoError(t, err)
	assert.Equal(t, []string{"echo"}, entered)
	assert.Equal(t, []string{"echo"}, left)
}

func TestGraph_NodeCannotMutateCheckpoint(t *testing.T) {
	g, err := graph.NewBuilder().
		AddNode("mutate", func(ctx context.Context, s *domain.State) ([]domain.Message, error) {
			s.Messages[0].Content = "tampered"
			return []domain.Message{domain.NewAssistantMessage("ok")}, nil
		}).
		AddEdge(graph.Start, "mutate").
		AddEdge("mutate", graph.End).
		Compile()
	require.NoError(t, err)

	state, err := g.Invoke(context.Background(), "1", domain.NewUserMessage("original"))
	require.NoError(t, err)
	assert.Equal(t, "original", state.Messages[0].Content)
}

func TestGraph_Cancelled(t *testing.T) {
	g := buildEcho(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Invoke(ctx, "1", domain.NewUserMessage("hi"))
	require.Error(t, err)
	assert.True(t, graph.IsCancellation(err))
}

func TestGraph_GetState_NotFound(t *testing.T) {
	g := buildEcho(t)
	_, err := g.GetState(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrThreadNotFound)
}
