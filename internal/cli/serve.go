package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/lookout/internal/config"
	httpAdapter "github.com/aretw0/lookout/pkg/adapters/http"
	"github.com/aretw0/lookout/pkg/adapters/mcp"
	"github.com/aretw0/lookout/pkg/agent"
	"github.com/aretw0/lookout/pkg/observability"
)

// host bundles an agent built from the configuration with what it owns.
type host struct {
	agent   *agent.Agent
	backend *Backend
	metrics *observability.Metrics
}

func newHost(cfg config.Config, withMetrics bool) (*host, error) {
	logger := NewLogger(cfg.Debug)
	backend, err := OpenBackend(cfg, logger)
	if err != nil {
		return nil, err
	}
	model, err := NewModel(cfg, logger)
	if err != nil {
		backend.Close()
		return nil, err
	}

	var metrics *observability.Metrics
	if withMetrics {
		metrics = observability.NewMetrics()
	}
	a, err := NewAgent(cfg, AgentDeps{
		Model:   model,
		Tools:   NewTools(cfg, logger),
		Backend: backend,
		Metrics: metrics,
		Logger:  logger,
		Debug:   cfg.Debug,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}
	return &host{agent: a, backend: backend, metrics: metrics}, nil
}

// Serve runs the HTTP API on addr until ctx is cancelled.
func Serve(ctx context.Context, cfg config.Config, addr string) error {
	logger := NewLogger(cfg.Debug)
	h, err := newHost(cfg, true)
	if err != nil {
		return err
	}
	defer h.backend.Close()

	srv := &http.Server{
		Addr: addr,
		Handler: httpAdapter.NewHandler(h.agent,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetricsHandler(h.metrics.Handler()),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Lookout API listening", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sigCtx.Done():
		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		logger.Info("Lookout API stopped", "signal", sigCtx.Signal())
		return nil
	}
}

// ServeMCP exposes the agent as an MCP server over stdio or SSE.
func ServeMCP(ctx context.Context, cfg config.Config, transport, addr, baseURL string) error {
	logger := NewLogger(cfg.Debug)
	h, err := newHost(cfg, false)
	if err != nil {
		return err
	}
	defer h.backend.Close()

	srv := mcp.NewServer(h.agent,
		mcp.WithDefaultThread(cfg.Chat.ThreadID),
		mcp.WithLogger(logger),
	)

	switch transport {
	case "stdio":
		logger.Info("Starting lookout MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		sigCtx := NewSignalContext(ctx)
		defer sigCtx.Cancel()
		return srv.ServeSSE(sigCtx, addr, baseURL)
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
	}
}
