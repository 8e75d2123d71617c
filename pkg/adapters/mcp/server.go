package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lookout"
	"github.com/aretw0/lookout/internal/logging"
	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/graph"
	"github.com/aretw0/lookout/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ToolChat      = "chat"
	ToolGetThread = "get_thread"
	GraphURI      = "lookout://graph"
)

// Agent defines what the MCP server needs from the conversation backend.
type Agent interface {
	Respond(ctx context.Context, threadID, input string) (domain.Message, error)
	Graph() *graph.Graph
}

// Server wraps an Agent and exposes it as an MCP Server.
type Server struct {
	agent         Agent
	defaultThread string
	logger        *slog.Logger
	mcpServer     *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithDefaultThread sets the thread used when the caller omits thread_id.
func WithDefaultThread(id string) Option {
	return func(s *Server) {
		s.defaultThread = id
	}
}

// WithLogger sets the logger. It must not write to stdout when serving stdio.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(agent Agent, opts ...Option) *Server {
	s := &Server{
		agent:         agent,
		defaultThread: runner.DefaultThreadID,
		logger:        logging.NewNop(),
		mcpServer:     server.NewMCPServer("lookout-mcp", strings.TrimSpace(lookout.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Handle("/sse", sseServer.SSEHandler())
	r.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	chatTool := mcp.NewTool(ToolChat,
		mcp.WithDescription("Send a message to the lookout agent. The agent may search the web before answering."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user message")),
		mcp.WithString("thread_id", mcp.Description("Conversation thread (optional, defaults to \""+s.defaultThread+"\")")),
	)
	s.mcpServer.AddTool(chatTool, s.handleChat)

	threadTool := mcp.NewTool(ToolGetThread,
		mcp.WithDescription("Return the checkpointed state of a conversation thread as JSON."),
		mcp.WithString("thread_id", mcp.Description("Conversation thread (optional)")),
	)
	s.mcpServer.AddTool(threadTool, s.handleGetThread)
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	threadID := request.GetString("thread_id", s.defaultThread)

	clean, err := runner.SanitizeInput(message)
	if err != nil {
		s.logger.Warn("MCP chat: input rejected", "err", err, "size", len(message))
		return mcp.NewToolResultError(fmt.Sprintf("input rejected: %v", err)), nil
	}

	reply, err := s.agent.Respond(ctx, threadID, clean)
	if err != nil {
		s.logger.Error("MCP chat failed", "thread_id", threadID, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("chat failed: %v", err)), nil
	}
	return mcp.NewToolResultText(reply.Content), nil
}

func (s *Server) handleGetThread(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threadID := request.GetString("thread_id", s.defaultThread)

	state, err := s.agent.Graph().GetState(ctx, threadID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get thread %q: %v", threadID, err)), nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Agent Graph Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.agent.Graph().Nodes())
		if err != nil {
			return nil, fmt.Errorf("failed to encode graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
