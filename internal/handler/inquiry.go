package handler

import (
	"github.com/deppfellow/inquiry-intake/internal/model"
	"github.com/deppfellow/inquiry-intake/internal/server"
	"github.com/deppfellow/inquiry-intake/internal/service"
	"github.com/labstack/echo/v4"
)

type InquiryHandler struct {
	Handler
	inquiryService *service.InquiryService
}

func NewInquiryHandler(s *server.Server, inquiryService *service.InquiryService) *InquiryHandler {
	return &InquiryHandler{
		Handler:        NewHandler(s),
		inquiryService: inquiryService,
	}
}

// CreateInquiry stores the inquiry and queues the administrator
// notification. The response carries the stored inquiry and the queue
// message id.
func (h *InquiryHandler) CreateInquiry(c echo.Context, req *model.CreateInquiryRequest) (*model.CreateInquiryResponse, error) {
	return h.inquiryService.CreateInquiry(c.Request().Context(), req)
}

func (h *InquiryHandler) GetInquiry(c echo.Context, req *model.GetInquiryRequest) (*model.Inquiry, error) {
	return h.inquiryService.GetInquiry(c.Request().Context(), req.ID)
}
