package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avdeyev/tokensmith/internal/logging"
)

// Server wraps the echo instance serving the auth API.
type Server struct {
	address string
	core    AuthCore
	logger  logging.Logger
	echo    *echo.Echo
}

func NewServer(address string, l logging.Logger, core AuthCore) *Server {
	s := &Server{
		address: address,
		core:    core,
		logger:  l.With("module", "http_server"),
		echo:    echo.New(),
	}
	s.echo.HideBanner = true
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	h := NewAuthHandler(s.core, s.logger)

	s.echo.GET("/healthz", Health)

	g := s.echo.Group("/v1/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/validate", h.Validate)
	g.POST("/password-reset/request", h.RequestPasswordReset)
	g.POST("/password-reset/complete", h.ResetPassword)

	protected := s.echo.Group("/v1", BearerAuth(s.core))
	protected.GET("/me", h.Me)
}

// Run starts accepting connections and blocks until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "err", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
