package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/lookout/pkg/agent"
	"github.com/aretw0/lookout/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoModel struct {
	err error
}

func (m *echoModel) Generate(ctx context.Context, msgs []domain.Message, tools []domain.Tool) (domain.Message, error) {
	if m.err != nil {
		return domain.Message{}, m.err
	}
	return domain.NewAssistantMessage("echo: " + msgs[len(msgs)-1].Content), nil
}

func newServer(t *testing.T, model *echoModel) (*Server, *agent.Agent) {
	t.Helper()
	a, err := agent.New(model, nil)
	require.NoError(t, err)
	return NewServer(a), a
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestChat_DefaultThread(t *testing.T) {
	s, a := newServer(t, &echoModel{})
	ctx := context.Background()

	res, err := s.handleChat(ctx, call(ToolChat, map[string]any{"message": "hello"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "echo: hello", text(t, res))

	state, err := a.Graph().GetState(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, state.Messages, 2)
}

func TestChat_Errors(t *testing.T) {
	ctx := context.Background()

	s, _ := newServer(t, &echoModel{})
	res, err := s.handleChat(ctx, call(ToolChat, map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	s, _ = newServer(t, &echoModel{err: errors.New("upstream down")})
	res, err = s.handleChat(ctx, call(ToolChat, map[string]any{"message": "hi", "thread_id": "x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "upstream down")
}

func TestGetThread(t *testing.T) {
	s, _ := newServer(t, &echoModel{})
	ctx := context.Background()

	res, err := s.handleGetThread(ctx, call(ToolGetThread, map[string]any{"thread_id": "ops"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	_, err = s.handleChat(ctx, call(ToolChat, map[string]any{"message": "hi", "thread_id": "ops"}))
	require.NoError(t, err)

	res, err = s.handleGetThread(ctx, call(ToolGetThread, map[string]any{"thread_id": "ops"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var state domain.State
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &state))
	assert.Equal(t, "ops", state.ThreadID)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "echo: hi", state.Messages[1].Content)
}
