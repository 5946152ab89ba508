// Package server defines the Server container that composes the app's
// main dependencies and owns their lifecycle:
//   - configuration
//   - logger and the optional New Relic application
//   - database pool (omitted for queue-only processes)
//   - redis client backing the notification queue
//   - notification queue client and worker (asynq)
//   - http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/inquiry-intake/internal/config"
	"github.com/deppfellow/inquiry-intake/internal/database"
	"github.com/deppfellow/inquiry-intake/internal/lib/job"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/inquiry-intake/internal/logger"
)

// redisPingTimeout bounds the start-up connectivity check.
const redisPingTimeout = 5 * time.Second

// Server holds shared resources. It is not the HTTP server itself.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService
	DB            *database.Database

	// Redis talks to the server named by the processing queue URL.
	Redis *redis.Client

	// Job publishes notifications and, in worker processes, consumes them.
	Job *job.JobService

	httpServer *http.Server
}

type options struct {
	skipDatabase bool
}

// Option customizes New.
type Option func(*options)

// WithoutDatabase leaves Server.DB nil. The notification worker only needs
// the queue, so it keeps running while Postgres is unavailable.
func WithoutDatabase() Option {
	return func(o *options) { o.skipDatabase = true }
}

// New connects to the database and the queue's Redis server and builds the
// job service. The job worker is not started; worker processes call
// Job.Start themselves.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService, opts ...Option) (*Server, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	target, err := job.ParseQueueURL(cfg.Inquiry.ProcessingQueueURL)
	if err != nil {
		return nil, err
	}

	var db *database.Database
	if !o.skipDatabase {
		db, err = database.New(cfg, logger, loggerService)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	redisClient := redis.NewClient(target.Redis)
	if loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	// Without the queue no inquiry can be announced, so this is fatal.
	if err := redisClient.Ping(ctx).Err(); err != nil {
		if db != nil {
			_ = db.Close()
		}
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to queue redis at %s: %w", target.Redis.Addr, err)
	}

	jobService := job.NewJobService(logger, cfg, target, loggerService.GetApplication())

	logger.Info().
		Str("queue", target.Name).
		Str("table", cfg.Inquiry.TableName).
		Msg("server dependencies initialized")

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Redis:         redisClient,
		Job:           jobService,
	}, nil
}

// SetupHTTPServer configures the HTTP server around handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start serves HTTP until the server is shut down. SetupHTTPServer must be
// called first.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server (if any), waits for in-flight requests
// until ctx expires and then releases the queue, Redis and the database.
func (s *Server) Shutdown(ctx context.Context, stopWorker bool) error {
	var errs []error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}

	if s.Job != nil {
		if stopWorker {
			s.Job.Stop()
		} else {
			s.Job.Close()
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		}
	}

	return errors.Join(errs...)
}
