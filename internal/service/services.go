package service

import (
	"github.com/deppfellow/inquiry-intake/internal/lib/email"
	"github.com/deppfellow/inquiry-intake/internal/repository"
	"github.com/deppfellow/inquiry-intake/internal/server"
)

type Services struct {
	Inquiry      *InquiryService
	Notification *NotificationService
}

// NewServices wires the services. Inquiry is nil when the server was built
// without a database.
func NewServices(s *server.Server, repos *repository.Repositories) *Services {
	services := &Services{
		Notification: NewNotificationService(
			email.NewClient(s.Config, s.Logger),
			s.Logger,
		),
	}

	if repos.Inquiry != nil {
		services.Inquiry = NewInquiryService(
			repos.Inquiry,
			s.Job,
			s.Config.Inquiry.AdminEmail,
			s.Logger,
		)
	}

	return services
}
