package router

import (
	"net/http"

	"github.com/deppfellow/inquiry-intake/internal/handler"
	"github.com/labstack/echo/v4"
)

func registerInquiryRoutes(r *echo.Echo, h *handler.Handlers) {
	inquiries := r.Group("/inquiries")

	inquiries.POST("/new", handler.Handle(h.Inquiry.Handler, h.Inquiry.CreateInquiry, http.StatusOK))
	inquiries.GET("/:id", handler.Handle(h.Inquiry.Handler, h.Inquiry.GetInquiry, http.StatusOK))
}
