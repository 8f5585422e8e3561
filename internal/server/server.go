package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/weedwatch/weedwatch/internal/config"
	"github.com/weedwatch/weedwatch/internal/handler"
	"github.com/weedwatch/weedwatch/internal/observability"
	"github.com/weedwatch/weedwatch/internal/response"
)

// Server holds the Echo app and dependencies.
type Server struct {
	Echo   *echo.Echo
	Config *config.Config
	logger zerolog.Logger
}

// New builds the Echo server and registers routes. nrApp may be nil.
func New(cfg *config.Config, svc handler.Submitter, logger zerolog.Logger, nrApp *newrelic.Application) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = response.HTTPErrorHandler
	e.Use(
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}),
		observability.Middleware(nrApp),
		requestLogger(logger),
		middleware.Recover(),
	)

	locations := &handler.LocationHandler{
		Service:      svc,
		Logger:       logger,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}

	e.POST("/save_json", locations.SaveJSON)
	e.GET("/health", locations.Health)

	return &Server{Echo: e, Config: cfg, logger: logger}
}

func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := logger.Info()
			if v.Error != nil {
				event = logger.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

// Start serves on all interfaces. It blocks until the server fails or ctx is
// cancelled; on cancel the server is shut down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.Echo.Server.ReadTimeout = s.Config.Server.ReadTimeout
	s.Echo.Server.WriteTimeout = s.Config.Server.WriteTimeout
	s.Echo.Server.IdleTimeout = s.Config.Server.IdleTimeout

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	addr := ":" + s.Config.Server.Port
	s.logger.Info().Str("addr", addr).Msg("listening")
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
