package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/lookout"
	"github.com/aretw0/lookout/internal/logging"
	"github.com/aretw0/lookout/internal/presentation/mermaid"
	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/graph"
	"github.com/aretw0/lookout/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Agent is the conversation backend served over HTTP.
type Agent interface {
	Respond(ctx context.Context, threadID, input string) (domain.Message, error)
	Graph() *graph.Graph
}

// MessageRequest is the body of POST /threads/{id}/messages.
type MessageRequest struct {
	Input string `json:"input"`
}

// MessageResponse carries the reply and the messages appended by the turn.
type MessageResponse struct {
	ThreadID string           `json:"thread_id"`
	Reply    string           `json:"reply"`
	Messages []domain.Message `json:"messages"`
}

// Server exposes an Agent as a JSON API.
type Server struct {
	Agent   Agent
	Streams *StreamManager

	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h under /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a Server for agent.
func NewServer(agent Agent, opts ...Option) *Server {
	s := &Server{
		Agent:   agent,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates a new HTTP handler for the agent.
func NewHandler(agent Agent, opts ...Option) http.Handler {
	return NewServer(agent, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/threads", func(r chi.Router) {
		r.Get("/", s.ListThreads)
		r.Route("/{threadID}", func(r chi.Router) {
			r.Get("/", s.GetThread)
			r.Delete("/", s.DeleteThread)
			r.Post("/messages", s.PostMessage)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PostMessage handles POST /threads/{threadID}/messages.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	var body MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("PostMessage: invalid request body", "err", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := runner.SanitizeInput(body.Input)
	if err != nil {
		s.logger.Warn("PostMessage: input rejected", "err", err, "size", len(body.Input))
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid input: %v", err))
		return
	}

	ctx := r.Context()
	before, err := s.Agent.Graph().GetState(ctx, threadID)
	if err != nil && !errors.Is(err, domain.ErrThreadNotFound) {
		s.logger.Error("PostMessage: load failed", "thread_id", threadID, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	reply, err := s.Agent.Respond(ctx, threadID, input)
	if err != nil {
		status := statusFor(err)
		s.logger.Error("PostMessage: respond failed", "thread_id", threadID, "err", err, "status", status)
		writeError(w, status, err.Error())
		return
	}

	after, err := s.Agent.Graph().GetState(ctx, threadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	diff, err := domain.Diff(before, after)
	if err != nil {
		s.logger.Warn("PostMessage: diff failed", "thread_id", threadID, "err", err)
	}
	var appended []domain.Message
	if diff != nil {
		appended = diff.Appended
		if payload, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(threadID, string(payload))
		}
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		ThreadID: threadID,
		Reply:    reply.Content,
		Messages: appended,
	})
}

// ListThreads handles GET /threads.
func (s *Server) ListThreads(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Agent.Graph().Sessions().List(r.Context())
	if err != nil {
		s.logger.Error("ListThreads failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ids == nil {
		ids = []string{}
	}
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, map[string][]string{"threads": ids})
}

// GetThread handles GET /threads/{threadID}.
func (s *Server) GetThread(w http.ResponseWriter, r *http.Request) {
	state, err := s.Agent.Graph().GetState(r.Context(), chi.URLParam(r, "threadID"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// DeleteThread handles DELETE /threads/{threadID}.
func (s *Server) DeleteThread(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	sessions := s.Agent.Graph().Sessions()
	if _, err := sessions.Load(r.Context(), threadID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if err := sessions.Delete(r.Context(), threadID); err != nil {
		s.logger.Error("DeleteThread failed", "thread_id", threadID, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph handles GET /graph. With ?format=mermaid it returns a flowchart,
// highlighted with the path of ?thread= when given.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	g := s.Agent.Graph()
	nodes := g.Nodes()

	if r.URL.Query().Get("format") != "mermaid" {
		writeJSON(w, http.StatusOK, nodes)
		return
	}

	var overlay *mermaid.Overlay
	if threadID := r.URL.Query().Get("thread"); threadID != "" {
		state, err := g.GetState(r.Context(), threadID)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		overlay = &mermaid.Overlay{VisitedNodes: state.History, CurrentNode: state.CurrentNodeID}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(mermaid.Generate(nodes, overlay)))
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "lookout-http",
		"version": strings.TrimSpace(lookout.Version),
	})
}

// StreamManager fans out state diffs to the SSE subscribers of a thread.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // ThreadID -> Set of Channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

func (sm *StreamManager) Subscribe(threadID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[threadID]; !ok {
		sm.subscribers[threadID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[threadID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[threadID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, threadID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(threadID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[threadID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			slog.Warn("SSE: client buffer full, dropping message", "thread_id", threadID)
		}
	}
}

// SubscribeEvents handles GET /threads/{threadID}/events (SSE).
// Each event carries the JSON StateDiff of one completed turn.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	threadID := chi.URLParam(r, "threadID")
	ch, cancel := s.Streams.Subscribe(threadID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "thread_id", threadID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// statusFor maps agent errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrThreadNotFound):
		return http.StatusNotFound
	case graph.IsCancellation(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, graph.ErrRecursionLimit):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
