package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/inquiry-intake/internal/lib/job"
	"github.com/deppfellow/inquiry-intake/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)


// Mailer delivers the inquiry e-mail and returns the provider's message id.
type Mailer interface {
	SendInquiryReceived(ctx context.Context, admin string, inquiry model.Inquiry) (string, error)
}

// NotificationService turns queued notification messages into e-mails.
// It implements job.BatchProcessor.
type NotificationService struct {
	mailer Mailer
	logger *zerolog.Logger
}

func NewNotificationService(mailer Mailer, logger *zerolog.Logger) *NotificationService {
	return &NotificationService{
		mailer: mailer,
		logger: logger,
	}
}

// ProcessBatch sends one e-mail per record. Records are independent: a
// failed send only fails its own Result. Messages that cannot be decoded
// are marked permanent since redelivery would fail the same way.
func (s *NotificationService) ProcessBatch(ctx context.Context, records []job.Record) []job.Result {
	results := make([]job.Result, len(records))

	// Every send of the batch is in flight at once; the queue's batch size
	// bounds the fan-out.
	g, gctx := errgroup.WithContext(ctx)

	for i, record := range records {
		results[i].Record = record

		var msg model.NotificationMessage
		if err := json.Unmarshal(record.Body, &msg); err != nil {
			results[i].Err = job.Permanent(fmt.Errorf("decode notification message: %w", err))
			continue
		}
		results[i].InquiryID = msg.Inquiry.ID

		if msg.Admin == "" {
			results[i].Err = job.Permanent(fmt.Errorf("notification for inquiry %s has no recipient", msg.Inquiry.ID))
			continue
		}

		g.Go(func() error {
			// Per-record errors never cancel the group.
			results[i].Err = s.send(gctx, msg)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

func (s *NotificationService) send(ctx context.Context, msg model.NotificationMessage) error {
	emailID, err := s.mailer.SendInquiryReceived(ctx, msg.Admin, msg.Inquiry)
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("inquiry_id", msg.Inquiry.ID).
		Str("email_id", emailID).
		Msg("inquiry notification sent")
	return nil
}
