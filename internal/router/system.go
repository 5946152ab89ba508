package router

import (
	"github.com/deppfellow/inquiry-intake/internal/handler"
	"github.com/deppfellow/inquiry-intake/internal/metrics"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers endpoints that are not part of the
// inquiry API: health, metrics and documentation.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)
	r.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	r.Static("/static", "static")
	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
