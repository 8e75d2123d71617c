package runner_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/lookout/pkg/agent"
	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingResponder echoes the input and records every call.
type recordingResponder struct {
	threads []string
	inputs  []string
	err     error
}

func (r *recordingResponder) Respond(ctx context.Context, threadID, input string) (domain.Message, error) {
	r.threads = append(r.threads, threadID)
	r.inputs = append(r.inputs, input)
	if r.err != nil {
		return domain.Message{}, r.err
	}
	return domain.NewAssistantMessage("re: " + input), nil
}

func newRunner(in string, resp runner.Responder, opts ...runner.Option) (*runner.Runner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	h := runner.NewTextHandler(strings.NewReader(in), out)
	opts = append([]runner.Option{runner.WithInputHandler(h)}, opts...)
	return runner.New(resp, opts...), out
}

func TestRunner_ByeExitsWithoutResponding(t *testing.T) {
	resp := &recordingResponder{}
	r, out := newRunner("/bye\nnever sent\n", resp)

	require.NoError(t, r.Run(context.Background()))
	assert.Empty(t, resp.inputs)
	assert.Equal(t, "you: ", out.String())
}

func TestRunner_RespondsToEachLine(t *testing.T) {
	resp := &recordingResponder{}
	r, out := newRunner("hello\nwhat is 2+2\n/bye\n", resp)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"hello", "what is 2+2"}, resp.inputs)
	assert.Equal(t, []string{"1", "1"}, resp.threads, "every turn uses the fixed thread")

	assert.Equal(t, "you: Agent: re: hello\nyou: Agent: re: what is 2+2\nyou: ", out.String())
}

func TestRunner_EOFIsNormalExit(t *testing.T) {
	resp := &recordingResponder{}
	r, _ := newRunner("last line without newline", resp)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"last line without newline"}, resp.inputs)
}

func TestRunner_ExitCommandMatchesExactly(t *testing.T) {
	resp := &recordingResponder{}
	r, _ := newRunner("  hello  \n /bye \n/bye\nafter\n", resp)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"  hello  ", " /bye "}, resp.inputs)
}

func TestRunner_SkipsBlankLines(t *testing.T) {
	resp := &recordingResponder{}
	r, _ := newRunner("\n   \nhi\n", resp)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"hi"}, resp.inputs)
}

func TestRunner_ResponseErrorStopsLoop(t *testing.T) {
	boom := errors.New("api down")
	resp := &recordingResponder{err: boom}
	r, out := newRunner("one\ntwo\n", resp)

	err := r.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"one"}, resp.inputs)
	assert.NotContains(t, out.String(), "Agent:")
}

func TestRunner_CustomThreadAndPrompt(t *testing.T) {
	resp := &recordingResponder{}
	r, out := newRunner("hi\n", resp, runner.WithThreadID("ops"), runner.WithPrompt("> "))

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"ops"}, resp.threads)
	assert.True(t, strings.HasPrefix(out.String(), "> "))
	assert.Equal(t, "ops", r.ThreadID())
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, _ := newRunner("hi\n", &recordingResponder{})
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
}

// scriptedModel returns canned replies in order.
type scriptedModel struct {
	replies []domain.Message
	calls   int
}

func (m *scriptedModel) Generate(ctx context.Context, msgs []domain.Message, tools []domain.Tool) (domain.Message, error) {
	m.calls++
	if len(m.replies) == 0 {
		return domain.NewAssistantMessage("ok"), nil
	}
	next := m.replies[0]
	m.replies = m.replies[1:]
	return next, nil
}

func TestRunner_WithAgent_HistoryIsMonotonic(t *testing.T) {
	model := &scriptedModel{}
	a, err := agent.New(model, nil)
	require.NoError(t, err)

	r, out := newRunner("one\ntwo\nthree\n/bye\n", a)
	require.NoError(t, r.Run(context.Background()))

	state, err := a.Graph().GetState(context.Background(), runner.DefaultThreadID)
	require.NoError(t, err)

	require.Len(t, state.Messages, 6)
	for i, want := range []string{"one", "two", "three"} {
		assert.Equal(t, domain.RoleUser, state.Messages[2*i].Role)
		assert.Equal(t, want, state.Messages[2*i].Content)
		assert.Equal(t, domain.RoleAssistant, state.Messages[2*i+1].Role)
	}
	assert.Equal(t, 3, model.calls)
	assert.Equal(t, 3, strings.Count(out.String(), "Agent: ok"))
}

func TestRunner_WithAgent_ByeMakesNoModelCalls(t *testing.T) {
	model := &scriptedModel{}
	a, err := agent.New(model, nil)
	require.NoError(t, err)

	r, _ := newRunner("/bye\n", a)
	require.NoError(t, r.Run(context.Background()))
	assert.Zero(t, model.calls)

	_, err = a.Graph().GetState(context.Background(), runner.DefaultThreadID)
	assert.ErrorIs(t, err, domain.ErrThreadNotFound)
}
