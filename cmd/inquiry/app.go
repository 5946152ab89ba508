package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/inquiry-intake/internal/config"
	"github.com/deppfellow/inquiry-intake/internal/logger"
	"github.com/deppfellow/inquiry-intake/internal/metrics"
	"github.com/deppfellow/inquiry-intake/internal/repository"
	"github.com/deppfellow/inquiry-intake/internal/server"
	"github.com/deppfellow/inquiry-intake/internal/service"
	"github.com/rs/zerolog"
)

// DefaultContextTimeout bounds graceful shutdown.
const DefaultContextTimeout = 30 * time.Second

// app is what every long-running command shares.
type app struct {
	cfg           *config.Config
	log           zerolog.Logger
	loggerService *logger.LoggerService
}

func loadApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	return &app{cfg: cfg, log: log, loggerService: loggerService}, nil
}

// buildServices connects the dependencies and wires repositories and
// services on top of them.
func (a *app) buildServices(opts ...server.Option) (*server.Server, *service.Services, error) {
	metrics.Init()

	srv, err := server.New(a.cfg, &a.log, a.loggerService, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	repos := repository.NewRepositories(srv)
	services := service.NewServices(srv, repos)

	return srv, services, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
