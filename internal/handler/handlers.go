package handler

import (
	"github.com/deppfellow/inquiry-intake/internal/server"
	"github.com/deppfellow/inquiry-intake/internal/service"
)

// Handlers groups all HTTP handlers so the router receives a single value.
type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Inquiry *InquiryHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Inquiry: NewInquiryHandler(s, services.Inquiry),
	}
}
