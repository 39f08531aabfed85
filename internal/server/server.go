// Package server exposes the channel webhooks and the read API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/edgard/triplog/internal/database"
	"github.com/edgard/triplog/internal/ingest"
)

// Config holds the transport settings injected into the server. The
// Telegram webhook secret lives here rather than being read from the
// environment so handlers stay independently testable.
type Config struct {
	ListenAddr     string
	TelegramSecret string
}

// handler bundles the dependencies shared by all routes.
type handler struct {
	cfg    Config
	ingest *ingest.Service
	store  database.Store
	logger *slog.Logger
}

// NewRouter builds the gin engine with all routes and middleware attached.
// It is exported separately from Server so tests can drive it with httptest.
func NewRouter(cfg Config, svc *ingest.Service, store database.Store, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h := &handler{
		cfg:    cfg,
		ingest: svc,
		store:  store,
		logger: logger.With("component", "server"),
	}

	r := gin.New()
	r.Use(requestID(), requestLogger(h.logger), gin.Recovery())

	r.POST("/webhook/whatsapp", h.whatsappWebhook)
	r.POST("/webhook/telegram", h.telegramWebhook)

	api := r.Group("/api")
	api.Use(cors.Default())
	api.GET("/users/:id/trips", h.userTrips)
	api.GET("/users/:id/stats", h.userStats)

	r.GET("/healthz", h.health)

	return r
}

// Server wraps the router in an http.Server with graceful shutdown.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// New creates the HTTP server listening on cfg.ListenAddr.
func New(cfg Config, svc *ingest.Service, store database.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		srv: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           NewRouter(cfg, svc, store, logger),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       20 * time.Second,
			WriteTimeout:      20 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger.With("component", "server"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func (h *handler) health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
