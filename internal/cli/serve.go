package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/automata"
	"github.com/aretw0/automata/internal/adapters/file"
	httpAdapter "github.com/aretw0/automata/pkg/adapters/http"
	"github.com/aretw0/automata/pkg/adapters/mcp"
	"github.com/aretw0/automata/pkg/observability"
	"github.com/aretw0/automata/pkg/session"
)

// Stack is everything a server needs: the catalog of machines, the session
// manager and the metrics registry.
type Stack struct {
	Loader   *file.Loader
	Catalog  *Catalog
	Sessions *session.Manager
	Metrics  *prometheus.Registry
	backend  *Backend
}

// Close releases the session backend.
func (s *Stack) Close() error {
	return s.backend.Close()
}

// NewStack loads the catalog from cfg.Dir with metrics and logging hooks, and
// opens the session backend.
func NewStack(ctx context.Context, cfg Config, logger *slog.Logger) (*Stack, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	loader := file.NewLoader(cfg.Dir)
	cat, err := LoadCatalog(loader, logger,
		automata.WithLogger(logger),
		automata.WithLifecycleHooks(metrics.Hooks()),
		automata.WithLifecycleHooks(debugHooks(logger, cfg.Debug)),
	)
	if err != nil {
		// Serve what compiled; broken files are reloaded once fixed.
		logger.Warn("some definitions were skipped", "err", err)
	}

	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Stack{
		Loader:   loader,
		Catalog:  cat,
		Sessions: NewSessionManager(backend, cat, cfg, logger),
		Metrics:  reg,
		backend:  backend,
	}, nil
}

// Serve runs the HTTP API until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, cfg Config, logger *slog.Logger) error {
	stack, err := NewStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	if err := stack.Catalog.Watch(ctx); err != nil {
		logger.Warn("hot reload disabled", "err", err)
	}

	handler, err := httpAdapter.NewHandler(stack.Catalog,
		httpAdapter.WithSessions(stack.Sessions),
		httpAdapter.WithWatcher(stack.Loader),
		httpAdapter.WithMetrics(promhttp.HandlerFor(stack.Metrics, promhttp.HandlerOpts{})),
		httpAdapter.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting Automata Server", "addr", srv.Addr, "dir", cfg.Dir, "machines", stack.Catalog.Len())
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Start shutdown...")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
			return srv.Close()
		}
		logger.Info("Automata Server stopped gracefully")
		return nil
	}
}

// ServeMCP runs the MCP server over stdio or SSE.
func ServeMCP(ctx context.Context, cfg Config, transport string, logger *slog.Logger) error {
	stack, err := NewStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	if err := stack.Catalog.Watch(ctx); err != nil {
		logger.Warn("hot reload disabled", "err", err)
	}

	srv := mcp.NewServer(stack.Catalog, mcp.WithSessions(stack.Sessions), mcp.WithLogger(logger))

	switch transport {
	case "stdio":
		logger.Info("Starting Automata MCP Server (Stdio)...")
		return srv.ServeStdio()
	case "sse":
		err := srv.ServeSSE(ctx, cfg.Port)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
	return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
}
