package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Options configures a Server
type Options struct {
	Repo      SnapshotRepo
	Suggester Suggester // nil disables /api/suggestions

	// SuggestRate limits suggestion requests per client IP, per second.
	// Zero disables the limit.
	SuggestRate  float64
	SuggestBurst int
}

// Server is the task sync and suggestion server
type Server struct {
	repo      SnapshotRepo
	suggester Suggester
	echo      *echo.Echo
	registry  *prometheus.Registry
	metrics   *metrics
}

// New creates a new server
func New(opts Options) *Server {
	if opts.Repo == nil {
		opts.Repo = NewMemoryRepo()
	}

	s := &Server{
		repo:      opts.Repo,
		suggester: opts.Suggester,
		registry:  prometheus.NewRegistry(),
	}
	s.metrics = newMetrics(s.registry)
	s.setupEcho(opts)
	return s
}

func (s *Server) setupEcho(opts Options) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// requestLogger writes errors, so metrics must wrap it to see final statuses
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(s.metrics.middleware)
	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Health check
	e.GET("/health", s.handleHealth)
	e.GET("/metrics", s.metrics.handler(s.registry))

	api := e.Group("/api")
	api.GET("/tasks", s.handleTasksPull)
	api.POST("/tasks/sync", s.handleTasksPush)

	var limits []echo.MiddlewareFunc
	if opts.SuggestRate > 0 {
		burst := opts.SuggestBurst
		if burst < 1 {
			burst = 1
		}
		limits = append(limits, middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(opts.SuggestRate), Burst: burst},
			),
		}))
	}
	api.POST("/suggestions", s.handleSuggestions, limits...)

	s.echo = e
}

// Close releases the snapshot repo
func (s *Server) Close() error {
	return s.repo.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
