package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/inquiry-intake/internal/model"
	"github.com/hibiken/asynq"
)

const (
	// TaskInquiryNotify carries one NotificationMessage.
	TaskInquiryNotify = "inquiry:notify"

	// TaskInquiryNotifyBatch carries a JSON array of TaskInquiryNotify
	// payloads folded together by the group aggregator.
	TaskInquiryNotifyBatch = "inquiry:notify:batch"

	// NotificationGroup is the asynq group notifications are batched in.
	NotificationGroup = "inquiry-notifications"
)

// NewNotificationTask serializes msg into a TaskInquiryNotify task.
func NewNotificationTask(msg model.NotificationMessage) (*asynq.Task, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification message: %w", err)
	}
	return asynq.NewTask(TaskInquiryNotify, payload), nil
}

// PublishNotification enqueues msg on the notification queue and returns
// the queue's message id.
//
// With batching enabled the task joins NotificationGroup and is delivered
// inside a batch; otherwise it is delivered on its own with retries.
func (j *JobService) PublishNotification(ctx context.Context, msg model.NotificationMessage) (string, error) {
	task, err := NewNotificationTask(msg)
	if err != nil {
		return "", err
	}

	opts := j.singleTaskOptions()
	if j.cfg.BatchSize > 1 {
		opts = []asynq.Option{asynq.Queue(j.queue), asynq.Group(NotificationGroup)}
	}

	info, err := j.enqueuer.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue notification for inquiry %s: %w", msg.Inquiry.ID, err)
	}

	j.logger.Info().
		Str("message_id", info.ID).
		Str("inquiry_id", msg.Inquiry.ID).
		Str("queue", info.Queue).
		Msg("notification queued")

	return info.ID, nil
}

// singleTaskOptions apply to notifications delivered outside a batch.
func (j *JobService) singleTaskOptions() []asynq.Option {
	return []asynq.Option{
		asynq.Queue(j.queue),
		asynq.MaxRetry(j.cfg.MaxRetry),
		asynq.Timeout(j.cfg.VisibilityTimeout),
	}
}

// aggregateNotifications folds grouped notification tasks into one batch
// task. Payloads are kept as opaque strings so one malformed message cannot
// spoil the decoding of its neighbours.
func (j *JobService) aggregateNotifications(group string, tasks []*asynq.Task) *asynq.Task {
	bodies := make([]string, 0, len(tasks))
	for _, t := range tasks {
		bodies = append(bodies, string(t.Payload()))
	}

	// Marshalling a []string cannot fail.
	payload, _ := json.Marshal(bodies)

	j.logger.Debug().
		Str("group", group).
		Int("size", len(tasks)).
		Msg("aggregated notification batch")

	return asynq.NewTask(
		TaskInquiryNotifyBatch,
		payload,
		asynq.MaxRetry(j.cfg.MaxRetry),
		asynq.Timeout(j.cfg.VisibilityTimeout),
	)
}
