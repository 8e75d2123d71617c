package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/lookout"
	"github.com/aretw0/lookout/internal/config"
	"github.com/aretw0/lookout/internal/presentation/tui"
	"github.com/aretw0/lookout/pkg/agent"
	"github.com/aretw0/lookout/pkg/observability"
	"github.com/aretw0/lookout/pkg/ports"
	"github.com/aretw0/lookout/pkg/runner"
)

// ChatOptions controls a chat session beyond the resolved configuration.
type ChatOptions struct {
	In     io.Reader
	Out    io.Writer
	JSON   bool
	Banner bool

	// Model replaces the configured OpenAI-compatible client when set.
	Model ports.ChatModel
}

// RunChat runs the interactive loop until /bye, end of input or a signal.
// Interruptions exit cleanly; any other error is returned.
func RunChat(ctx context.Context, cfg config.Config, opts ChatOptions) error {
	logger := NewLogger(cfg.Debug)

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	backend, err := OpenBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	model := opts.Model
	if model == nil {
		if model, err = NewModel(cfg, logger); err != nil {
			return err
		}
	}

	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		metrics = observability.NewMetrics()
		stop := ServeMetrics(cfg.MetricsAddr, metrics, logger)
		defer stop()
	}

	handler := newChatHandler(cfg, opts, logger)
	if c, ok := handler.(io.Closer); ok {
		defer c.Close()
	}

	var extra []agent.Option
	if cfg.Chat.Confirm {
		extra = append(extra, agent.WithInterceptor(runner.ConfirmationMiddleware(handler)))
	}

	a, err := NewAgent(cfg, AgentDeps{
		Model:   model,
		Tools:   NewTools(cfg, logger),
		Backend: backend,
		Metrics: metrics,
		Logger:  logger,
		Debug:   cfg.Debug,
	}, extra...)
	if err != nil {
		return err
	}

	if opts.Banner && !opts.JSON {
		tui.PrintBanner(opts.Out, lookout.Version)
	}

	r := runner.New(a,
		runner.WithLogger(logger),
		runner.WithInputHandler(handler),
		runner.WithThreadID(cfg.Chat.ThreadID),
		runner.WithPrompt(cfg.Chat.Prompt),
	)

	runErr := r.Run(sigCtx)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}
	if !opts.JSON {
		logCompletion(opts.Out, r.ThreadID(), runErr, sigCtx.Signal())
	}
	return HandleExecutionError(runErr)
}

func newChatHandler(cfg config.Config, opts ChatOptions, logger *slog.Logger) runner.IOHandler {
	if opts.JSON {
		return runner.NewJSONHandler(opts.In, opts.Out)
	}

	var hopts []runner.TextHandlerOption
	if cfg.Chat.Render {
		render, err := tui.NewRenderer()
		if err != nil {
			logger.Warn("Markdown rendering disabled", "err", err)
		} else {
			hopts = append(hopts, runner.WithTextHandlerRenderer(render))
		}
	}
	return runner.NewTextHandler(opts.In, opts.Out, hopts...)
}

// ServeMetrics exposes /metrics and /healthz on addr in the background.
// The returned function shuts the listener down.
func ServeMetrics(addr string, metrics *observability.Metrics, logger *slog.Logger) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "err", err)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics shutdown failed", "err", err)
		}
	}
}
