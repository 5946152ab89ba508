package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/inquiry-intake/internal/metrics"
	"github.com/hibiken/asynq"
)

// Record is one queued notification as delivered to the processor.
type Record struct {
	Body []byte
}

// Result is the outcome of processing one Record.
//
// Err is nil on success. Errors marked with Permanent are dropped instead
// of redelivered.
type Result struct {
	Record    Record
	InquiryID string
	Err       error
}

// BatchProcessor sends the notifications of one batch. It must return one
// Result per Record, in order.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, records []Record) []Result
}

// requeueTimeout bounds re-enqueueing the failed records of a batch.
const requeueTimeout = 5 * time.Second

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	return errors.Is(err, asynq.SkipRetry)
}

// InitHandlers sets the processor the task handlers delegate to.
// It must be called before Start.
func (j *JobService) InitHandlers(processor BatchProcessor) {
	j.processor = processor
}

// handleNotificationTask processes a single notification. The send error is
// returned as-is so asynq retries this task alone.
func (j *JobService) handleNotificationTask(ctx context.Context, t *asynq.Task) error {
	results := j.processor.ProcessBatch(ctx, []Record{{Body: t.Payload()}})
	metrics.NotificationBatchSize.Observe(1)

	res := results[0]
	switch {
	case res.Err == nil:
		metrics.NotificationsSent.WithLabelValues(metrics.StatusSent).Inc()
	case IsPermanent(res.Err):
		metrics.NotificationsSent.WithLabelValues(metrics.StatusDropped).Inc()
	default:
		metrics.NotificationsSent.WithLabelValues(metrics.StatusFailed).Inc()
	}
	return res.Err
}

// handleNotificationBatchTask processes a batch. Each record is an
// independent result: the batch is acknowledged once every record was
// attempted, and only the failed records are re-enqueued as single tasks.
// If re-enqueueing fails the whole batch is redelivered.
//
// Re-enqueueing outlives the task context: sends that failed because the
// task ran out of time must still be handed back to the queue.
func (j *JobService) handleNotificationBatchTask(ctx context.Context, t *asynq.Task) error {
	var bodies []string
	if err := json.Unmarshal(t.Payload(), &bodies); err != nil {
		return Permanent(fmt.Errorf("failed to unmarshal notification batch: %w", err))
	}

	records := make([]Record, len(bodies))
	for i, body := range bodies {
		records[i] = Record{Body: []byte(body)}
	}

	results := j.processor.ProcessBatch(ctx, records)
	metrics.NotificationBatchSize.Observe(float64(len(records)))

	requeueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requeueTimeout)
	defer cancel()

	var requeueErr error
	var failed, dropped int
	for _, res := range results {
		if res.Err == nil {
			metrics.NotificationsSent.WithLabelValues(metrics.StatusSent).Inc()
			continue
		}

		failed++
		logEvent := j.logger.Warn().Err(res.Err).Str("inquiry_id", res.InquiryID)

		if IsPermanent(res.Err) {
			metrics.NotificationsSent.WithLabelValues(metrics.StatusDropped).Inc()
			dropped++
			logEvent.Msg("dropping undeliverable notification")
			continue
		}

		task := asynq.NewTask(TaskInquiryNotify, res.Record.Body)
		info, err := j.enqueuer.EnqueueContext(requeueCtx, task, j.singleTaskOptions()...)
		if err != nil {
			metrics.NotificationsSent.WithLabelValues(metrics.StatusFailed).Inc()
			requeueErr = errors.Join(requeueErr, err)
			logEvent.AnErr("enqueue_error", err).Msg("failed to re-enqueue notification")
			continue
		}
		metrics.NotificationsSent.WithLabelValues(metrics.StatusRequeued).Inc()
		logEvent.Str("message_id", info.ID).Msg("notification re-enqueued after failed send")
	}

	j.logger.Info().
		Int("size", len(records)).
		Int("failed", failed).
		Int("dropped", dropped).
		Msg("processed notification batch")

	if requeueErr != nil {
		return fmt.Errorf("failed to re-enqueue failed notifications: %w", requeueErr)
	}
	return nil
}
