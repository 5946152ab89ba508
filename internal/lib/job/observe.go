package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// observe wraps every task in a New Relic background transaction and logs
// its duration.
func (j *JobService) observe(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()

		var txn *newrelic.Transaction
		if j.nrApp != nil {
			txn = j.nrApp.StartTransaction("job/" + t.Type())
			defer txn.End()
			ctx = newrelic.NewContext(ctx, txn)
		}

		taskID, _ := asynq.GetTaskID(ctx)
		logger := j.logger.With().
			Str("task_id", taskID).
			Str("type", t.Type()).
			Logger()

		err := next.ProcessTask(logger.WithContext(ctx), t)
		duration := time.Since(start)

		if err != nil {
			if txn != nil {
				txn.NoticeError(nrpkgerrors.Wrap(err))
			}
			logger.Error().Err(err).Dur("duration", duration).Msg("task failed")
			return err
		}

		logger.Debug().Dur("duration", duration).Msg("task completed")
		return nil
	})
}

// asynqLogger routes asynq's internal logging through zerolog.
type asynqLogger struct {
	logger zerolog.Logger
}

func newAsynqLogger(logger *zerolog.Logger) *asynqLogger {
	return &asynqLogger{logger: logger.With().Str("component", "asynq").Logger()}
}

func (l *asynqLogger) Debug(args ...interface{}) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }
