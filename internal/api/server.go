package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/botdeck/internal/api/command"
	"github.com/newthinker/botdeck/internal/api/handler"
	"github.com/newthinker/botdeck/internal/api/middleware"
	"github.com/newthinker/botdeck/internal/api/response"
	"github.com/newthinker/botdeck/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// View is what the server needs from the live view.
type View interface {
	handler.ViewController
	handler.BotController
}

// Dependencies holds the components the routes are served from.
type Dependencies struct {
	View     View
	Commands *command.Store
	Stream   http.Handler        // websocket render stream, optional
	Frames   handler.FrameSource // latest drawn frames, optional
	Metrics  *metrics.Registry   // optional
}

// Server represents the HTTP server for the console
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
	deps       Dependencies
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.View == nil {
		return nil, fmt.Errorf("view is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Commands == nil {
		deps.Commands = command.NewStore(0)
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
		deps:   deps,
	}
	s.setupRoutes(cfg)

	mws := []func(http.Handler) http.Handler{metrics.LoggingMiddleware(logger)}
	if deps.Metrics != nil {
		mws = append(mws, metrics.HTTPMiddleware(deps.Metrics))
	}
	mws = append(mws, middleware.APIKeyAuth(cfg.APIKey, "/api/health", cfg.MetricsPath))
	s.handler = middleware.Chain(mux, mws...)

	// No WriteTimeout: the websocket stream outlives any fixed deadline
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config) {
	views := handler.NewViewHandler(s.deps.View)
	bots := handler.NewBotHandler(s.deps.View, s.deps.Commands, s.logger)

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("GET /api/view", views.Get)
	s.mux.HandleFunc("GET /api/view/bars", views.Bars)
	s.mux.HandleFunc("POST /api/view/hide", views.Hide)
	s.mux.HandleFunc("POST /api/view/show", views.Show)
	s.mux.HandleFunc("POST /api/view/timeframe", views.Timeframe)
	s.mux.HandleFunc("POST /api/view/refresh", views.Refresh)

	s.mux.HandleFunc("POST /api/bot/toggle", bots.Toggle)
	s.mux.HandleFunc("POST /api/bot/close", bots.Close)
	s.mux.HandleFunc("POST /api/bot/deposit", bots.Deposit)
	s.mux.HandleFunc("GET /api/bot/commands", bots.Commands)
	s.mux.HandleFunc("GET /api/bot/commands/{id}", bots.Command)

	if s.deps.Frames != nil {
		s.mux.HandleFunc("GET /api/view/frames", handler.NewFramesHandler(s.deps.Frames).Get)
	}
	if s.deps.Stream != nil {
		s.mux.Handle("GET /ws", s.deps.Stream)
	}
	if s.deps.Metrics != nil {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(s.deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the root handler with middlewares applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.View.Snapshot()
	response.JSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"view_state": snap.State,
		"alert":      snap.Alert != nil,
	})
}
