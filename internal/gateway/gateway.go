// ABOUTME: Gateway orchestrator that wires the HTTP server to the agent engine
// ABOUTME: Manages routes, session store, metrics, and graceful shutdown

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/troupehq/troupe-gateway/internal/config"
	"github.com/troupehq/troupe-gateway/internal/engine"
	"github.com/troupehq/troupe-gateway/internal/registry"
	"github.com/troupehq/troupe-gateway/internal/session"
)

// Gateway coordinates the troupe-gateway server components: the HTTP API,
// the session store, the agent registry, and the engine runner behind them.
type Gateway struct {
	config     *config.Config
	registry   *registry.Registry
	sessions   *session.Store
	runner     engine.Runner
	httpServer *http.Server
	metrics    *metrics
	logger     *slog.Logger
}

// New creates a Gateway over the given registry, session store, and runner.
func New(cfg *config.Config, reg *registry.Registry, sessions *session.Store, runner engine.Runner, logger *slog.Logger) (*Gateway, error) {
	if reg == nil || reg.Len() == 0 {
		return nil, fmt.Errorf("agent registry is empty")
	}
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}

	g := &Gateway{
		config:   cfg,
		registry: reg,
		sessions: sessions,
		runner:   runner,
		logger:   logger.With("component", "gateway"),
	}
	g.metrics = newMetrics(sessions)

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/health/ready", g.handleReady)

	// API endpoints
	mux.HandleFunc("/api/agents", g.handleListAgents)
	mux.HandleFunc("/api/chat", g.handleChat)
	mux.HandleFunc("/api/chat/stream", g.handleChatStream)
	mux.HandleFunc("/api/sessions/", g.handleSessionRoutes)

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, g.metrics.handler())
		logger.Info("metrics endpoint enabled", "path", cfg.Metrics.Path)
	}

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// Handler exposes the gateway's HTTP handler. Used by tests.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown (context canceled), or an error if the
// server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := g.startServer(ln)
	serverErr := g.waitForShutdownSignal(ctx, errCh)

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// startServer starts the HTTP server in a goroutine, returning an error channel.
func (g *Gateway) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or a server error.
func (g *Gateway) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		g.logger.Error("server error", "error", err)
		return err
	}
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	timeout := g.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")
	if err := g.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the agent registry has agents to serve.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	n := g.registry.Len()
	if n == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no agents registered"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d agents)", n)
}

// corsMiddleware applies permissive CORS headers to every route and answers
// preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
