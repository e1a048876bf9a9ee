// Package httpapi provides the HTTP API for the chat backend.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Answerer produces a user-facing reply for a chat message. It never fails;
// pipeline errors surface as fixed reply strings.
type Answerer interface {
	Answer(ctx context.Context, message, category string) string
}

// Server provides the chat HTTP endpoints.
type Server struct {
	echo    *echo.Echo
	rag     Answerer
	logger  *zap.Logger
	config  Config
	metrics prometheus.Gatherer
}

// Config holds HTTP server configuration.
type Config struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

// NewServer creates the chat HTTP server.
func NewServer(cfg Config, rag Answerer, logger *zap.Logger, metrics prometheus.Gatherer) (*Server, error) {
	if rag == nil {
		return nil, fmt.Errorf("answerer cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	cfg.ApplyDefaults()
	if metrics == nil {
		metrics = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		rag:     rag,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{})))

	api := s.echo.Group("/api")
	api.POST("/chat", s.handleChat)
}

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Message  string `json:"message"`
	Category string `json:"category"`
}

// ChatResponse is the response body for POST /api/chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ErrorResponse is the body for every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response body for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleRoot is the liveness text endpoint.
func (s *Server) handleRoot(c echo.Context) error {
	return c.String(http.StatusOK, "Mezan backend is running")
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleChat validates the request and runs the query pipeline. Validation
// failures never reach the pipeline.
func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid chat request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "message and category must be strings")
	}

	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message field is required")
	}
	if req.Category == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "category field is required")
	}

	reply := s.rag.Answer(c.Request().Context(), req.Message, req.Category)

	return c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}

// errorHandler renders every error as an {"error": ...} payload.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed", zap.Int("status", status), zap.Error(err))
		}

		if writeErr := c.JSON(status, ErrorResponse{Error: message}); writeErr != nil {
			logger.Error("failed to write error response", zap.Error(writeErr))
		}
	}
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
