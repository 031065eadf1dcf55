// Package app wires configuration, logging, the board and the HTTP
// server into a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"datalens/internal/board"
	"datalens/internal/config"
	"datalens/internal/dataset"
	"datalens/internal/infrastructure"
	customMiddleware "datalens/internal/middleware"
	handlers "datalens/internal/transport/http"
	ws "datalens/internal/websocket"
)

// Version is set at build time
var Version = "dev"

// Application represents the main application container
type Application struct {
	Config *config.Config
	Router *chi.Mux
	Server *http.Server
	Board  *board.Board
	Hub    *ws.Hub
	Logger *slog.Logger

	upgrader websocket.Upgrader
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", Version),
		slog.Int("dataset_rows", cfg.Dataset.Rows),
		slog.Int64("dataset_seed", cfg.Dataset.Seed))

	table, err := dataset.Generate(cfg.Dataset.Rows, cfg.Dataset.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dataset: %w", err)
	}

	hub := ws.NewHub(logger)
	hub.Start()

	app := &Application{
		Config: cfg,
		Logger: logger,
		Hub:    hub,
		Board:  board.New(table, hub, logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			CheckOrigin:     originChecker(cfg.Security.AllowedOrigins),
		},
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that won't interfere with WebSocket upgrades
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// WebSocket route stays outside the full middleware group
	r.HandleFunc("/ws", a.handleWebSocket)

	// Prometheus metrics endpoint, also outside the group
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			healthHandler := handlers.NewHealthHandler(Version, a.Logger)
			r.Get("/health", healthHandler.HealthCheck)

			boardHandler := handlers.NewBoardHandler(a.Board, a.Logger)
			r.Mount("/board", boardHandler.Routes())
		})
	})

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// handleWebSocket upgrades the connection and hands it to the hub
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}
	ws.ServeWS(a.Hub, conn)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		a.Logger.Info("shutting down",
			slog.Duration("timeout", a.Config.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()

		a.Hub.Stop()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		infrastructure.CloseLogFile()
		return nil
	})

	return g.Wait()
}

// originChecker builds the WebSocket origin check from the allowed list.
// Requests without an Origin header (same-host tools) are accepted.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// WaitForReady polls the health endpoint until the server responds or
// the timeout elapses. Used by tests and local tooling.
func (a *Application) WaitForReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("http://localhost:%d/api/health", a.Config.Server.Port)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %s", timeout)
}
