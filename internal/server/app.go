// Package server initializes and runs the auth server: it wires the database,
// repositories, the auth core and the HTTP endpoint, and handles graceful
// shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/avdeyev/tokensmith/internal/logging"
	"github.com/avdeyev/tokensmith/internal/server/config"
	srvhttp "github.com/avdeyev/tokensmith/internal/server/http"
	"github.com/avdeyev/tokensmith/internal/server/mail"
	"github.com/avdeyev/tokensmith/internal/server/repositories/repomanager"
	"github.com/avdeyev/tokensmith/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	authService *services.AuthService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	sender := mail.NewLogSender(logger)
	authService := services.NewAuthService(db, rm, sender, cfg)

	return &App{config: cfg, logger: logger, authService: authService}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := srvhttp.NewServer(app.config.EndpointAddr, app.logger, app.authService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
}
