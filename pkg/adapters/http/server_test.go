package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lookout/pkg/agent"
	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel asks for one search on the first call, then answers.
type fakeModel struct {
	calls int
	err   error
}

func (m *fakeModel) Generate(ctx context.Context, msgs []domain.Message, tools []domain.Tool) (domain.Message, error) {
	m.calls++
	if m.err != nil {
		return domain.Message{}, m.err
	}
	last := msgs[len(msgs)-1]
	if last.Role == domain.RoleUser && len(tools) > 0 {
		return domain.NewAssistantMessage("", domain.ToolCall{
			ID:   "call_1",
			Name: "search",
			Args: map[string]any{"query": last.Content},
		}), nil
	}
	return domain.NewAssistantMessage("answer: " + last.Content), nil
}

func newTestServer(t *testing.T, model *fakeModel) (*httptest.Server, *agent.Agent) {
	t.Helper()
	reg := registry.NewRegistry()
	reg.Register(domain.Tool{Name: "search"}, func(ctx context.Context, args map[string]any) (any, error) {
		return "results for " + args["query"].(string), nil
	})
	a, err := agent.New(model, reg)
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(a, WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	}))))
	t.Cleanup(srv.Close)
	return srv, a
}

func postMessage(t *testing.T, base, thread, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(base+"/threads/"+thread+"/messages", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPostMessage(t *testing.T) {
	srv, a := newTestServer(t, &fakeModel{})

	resp := postMessage(t, srv.URL, "1", `{"input":"weather"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out MessageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "1", out.ThreadID)
	assert.Equal(t, "answer: results for weather", out.Reply)
	require.Len(t, out.Messages, 4)
	assert.Equal(t, domain.RoleUser, out.Messages[0].Role)
	assert.Equal(t, domain.RoleTool, out.Messages[2].Role)

	state, err := a.Graph().GetState(context.Background(), "1")
	require.NoError(t, err)
	assert.Len(t, state.Messages, 4)

	// Second turn only reports what it appended.
	resp = postMessage(t, srv.URL, "1", `{"input":"again"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out.Messages, 4)
}

func TestPostMessage_Errors(t *testing.T) {
	tests := []struct {
		name   string
		model  *fakeModel
		body   string
		status int
	}{
		{"invalid json", &fakeModel{}, `{`, http.StatusBadRequest},
		{"empty input", &fakeModel{}, `{"input":"   "}`, http.StatusBadRequest},
		{"model failure", &fakeModel{err: errors.New("rate limited")}, `{"input":"hi"}`, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.model)
			resp := postMessage(t, srv.URL, "1", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestThreads(t *testing.T) {
	srv, _ := newTestServer(t, &fakeModel{})

	resp, err := http.Get(srv.URL + "/threads/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	postMessage(t, srv.URL, "b", `{"input":"x"}`)
	postMessage(t, srv.URL, "a", `{"input":"y"}`)

	resp, err = http.Get(srv.URL + "/threads")
	require.NoError(t, err)
	var list map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Equal(t, []string{"a", "b"}, list["threads"])

	resp, err = http.Get(srv.URL + "/threads/a")
	require.NoError(t, err)
	var state domain.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	resp.Body.Close()
	assert.Equal(t, "a", state.ThreadID)
	assert.Equal(t, domain.StatusDone, state.Status)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/threads/a", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetGraph(t *testing.T) {
	srv, _ := newTestServer(t, &fakeModel{})

	resp, err := http.Get(srv.URL + "/graph")
	require.NoError(t, err)
	var nodes []domain.Node
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&nodes))
	resp.Body.Close()
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{"__start__", "agent", "tools", "__end__"}, ids)

	postMessage(t, srv.URL, "1", `{"input":"x"}`)
	resp, err = http.Get(srv.URL + "/graph?format=mermaid&thread=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	body := new(strings.Builder)
	_, err = bufio.NewReader(resp.Body).WriteTo(body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(body.String(), "graph TD"))
	assert.Contains(t, body.String(), "tools")
}

func TestHealthInfoMetrics(t *testing.T) {
	srv, _ := newTestServer(t, &fakeModel{})
	for _, path := range []string{"/healthz", "/info", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestSubscribeEvents(t *testing.T) {
	srv, _ := newTestServer(t, &fakeModel{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/threads/1/events", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	require.True(t, scanner.Scan())
	assert.Equal(t, "event: ping", scanner.Text())

	// The subscription exists once the ping has been flushed.
	postMessage(t, srv.URL, "1", `{"input":"news"}`)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: {") {
			continue
		}
		var diff domain.StateDiff
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &diff))
		assert.Equal(t, "1", diff.ThreadID)
		assert.Len(t, diff.Appended, 4)
		return
	}
	t.Fatal("no diff event received")
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("t")
	for i := 0; i < 20; i++ {
		sm.Broadcast("t", "msg")
	}
	assert.Len(t, ch, 10)
	cancel()

	_, open := <-ch
	for open {
		_, open = <-ch
	}
	sm.Broadcast("t", "after cancel")
}
