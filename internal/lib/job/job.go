// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed task queue:
//   - The intake API enqueues notification tasks through asynq.Client.
//   - The worker runs an asynq.Server that folds queued notifications into
//     batches (task groups) and hands each batch to a BatchProcessor.
package job

import (
	"context"

	"github.com/deppfellow/inquiry-intake/internal/config"
	"github.com/hibiken/asynq"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// Enqueuer is the part of asynq.Client used to publish tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	// Client is used to enqueue tasks into Redis.
	Client *asynq.Client

	enqueuer  Enqueuer
	server    *asynq.Server
	queue     string
	cfg       config.QueueConfig
	processor BatchProcessor
	nrApp     *newrelic.Application
	logger    *zerolog.Logger
}

// NewJobService creates a JobService for the queue named by target.
//
// The server only consumes the notification queue. Grouped notifications
// are aggregated into batches of at most cfg.Queue.BatchSize.
func NewJobService(logger *zerolog.Logger, cfg *config.Config, target *QueueTarget, nrApp *newrelic.Application) *JobService {
	client := asynq.NewClient(target.AsynqOpt())

	j := &JobService{
		Client:   client,
		enqueuer: client,
		queue:    target.Name,
		cfg:      cfg.Queue,
		nrApp:    nrApp,
		logger:   logger,
	}

	j.server = asynq.NewServer(
		target.AsynqOpt(),
		asynq.Config{
			Concurrency:      cfg.Queue.Concurrency,
			Queues:           map[string]int{target.Name: 1},
			GroupAggregator:  asynq.GroupAggregatorFunc(j.aggregateNotifications),
			GroupMaxSize:     cfg.Queue.BatchSize,
			GroupGracePeriod: cfg.Queue.BatchGracePeriod,
			GroupMaxDelay:    cfg.Queue.BatchMaxDelay,
			ErrorHandler:     asynq.ErrorHandlerFunc(j.reportTaskError),
			Logger:           newAsynqLogger(logger),
		},
	)

	return j
}

// QueueName returns the queue notifications are published to.
func (j *JobService) QueueName() string {
	return j.queue
}

// Start registers the task handlers and starts the worker server.
// It does not block; call Stop to shut down.
func (j *JobService) Start() error {
	mux := asynq.NewServeMux()
	mux.Use(j.observe)

	mux.HandleFunc(TaskInquiryNotify, j.handleNotificationTask)
	mux.HandleFunc(TaskInquiryNotifyBatch, j.handleNotificationBatchTask)

	j.logger.Info().
		Str("queue", j.queue).
		Int("batch_size", j.cfg.BatchSize).
		Int("concurrency", j.cfg.Concurrency).
		Msg("starting background job server")

	if err := j.server.Start(mux); err != nil {
		return err
	}

	return nil
}

// Stop gracefully stops the job server, waiting for in-flight tasks, and
// closes the client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.server.Shutdown()
	j.Close()
}

// Close releases the enqueue client. API processes that never start the
// server only need this.
func (j *JobService) Close() {
	if err := j.Client.Close(); err != nil {
		j.logger.Error().Err(err).Msg("failed to close asynq client")
	}
}

func (j *JobService) reportTaskError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	j.logger.Error().
		Err(err).
		Str("type", task.Type()).
		Int("retried", retried).
		Int("max_retry", maxRetry).
		Msg("task failed")
}
