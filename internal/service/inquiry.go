package service

import (
	"context"
	"fmt"

	"github.com/deppfellow/inquiry-intake/internal/metrics"
	"github.com/deppfellow/inquiry-intake/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InquiryStore persists inquiries.
type InquiryStore interface {
	Create(ctx context.Context, inquiry *model.Inquiry) error
	GetByID(ctx context.Context, id string) (*model.Inquiry, error)
}

// NotificationPublisher enqueues a notification and returns its message id.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, msg model.NotificationMessage) (string, error)
}

// InquiryService accepts new inquiries: it stores each one and queues a
// notification for the administrator.
type InquiryService struct {
	store     InquiryStore
	publisher NotificationPublisher
	admin     string
	logger    *zerolog.Logger
}

func NewInquiryService(store InquiryStore, publisher NotificationPublisher, admin string, logger *zerolog.Logger) *InquiryService {
	return &InquiryService{
		store:     store,
		publisher: publisher,
		admin:     admin,
		logger:    logger,
	}
}

// CreateInquiry assigns a fresh id, stores the inquiry and then publishes
// the notification. Nothing is published when the store fails. A publish
// failure after a successful store leaves the stored record in place.
func (s *InquiryService) CreateInquiry(ctx context.Context, req *model.CreateInquiryRequest) (*model.CreateInquiryResponse, error) {
	items := req.Inquiries
	if items == nil {
		items = []string{}
	}

	inquiry := model.Inquiry{
		ID:           uuid.NewString(),
		InquiryType:  req.InquiryType,
		InquiryItems: items,
	}

	if err := s.store.Create(ctx, &inquiry); err != nil {
		return nil, err
	}
	metrics.InquiriesCreated.Inc()

	messageID, err := s.publisher.PublishNotification(ctx, model.NotificationMessage{
		Inquiry: inquiry,
		Admin:   s.admin,
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("inquiry_id", inquiry.ID).
			Msg("inquiry stored but notification was not queued")
		return nil, fmt.Errorf("publish notification: %w", err)
	}
	metrics.NotificationsPublished.Inc()

	s.logger.Info().
		Str("inquiry_id", inquiry.ID).
		Str("inquiry_type", inquiry.InquiryType).
		Int("items", len(inquiry.InquiryItems)).
		Str("message_id", messageID).
		Msg("inquiry accepted")

	return &model.CreateInquiryResponse{
		Inquiry:   inquiry,
		MessageID: messageID,
	}, nil
}

func (s *InquiryService) GetInquiry(ctx context.Context, id string) (*model.Inquiry, error) {
	return s.store.GetByID(ctx, id)
}
