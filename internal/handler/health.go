package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/deppfellow/inquiry-intake/internal/middleware"
	"github.com/deppfellow/inquiry-intake/internal/server"
	"github.com/labstack/echo/v4"
)

// HealthHandler reports whether the service and the dependencies it needs
// to accept inquiries are reachable.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

type checkResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

type healthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]checkResult `json:"checks"`
}

// CheckHealth probes the configured dependencies. It returns 200 when all
// of them answer and 503 otherwise. Both the store and the queue are
// required: an inquiry can be neither stored nor announced without them.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	response := healthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Environment: h.server.Config.Primary.Env,
		Checks:      map[string]checkResult{},
	}

	cfg := h.server.Config.Observability.HealthChecks
	if cfg.Enabled {
		probes := map[string]func(context.Context) error{}
		if h.server.DB != nil {
			probes["database"] = h.server.DB.Pool.Ping
		}
		if h.server.Redis != nil {
			probes["redis"] = func(ctx context.Context) error {
				return h.server.Redis.Ping(ctx).Err()
			}
		}

		for name, probe := range probes {
			if !slices.Contains(cfg.Checks, name) {
				continue
			}

			result := h.check(c.Request().Context(), cfg.Timeout, probe)
			response.Checks[name] = result

			if result.Error != "" {
				response.Status = "unhealthy"
				logger.Error().
					Str("check", name).
					Str("error", result.Error).
					Str("response_time", result.ResponseTime).
					Msg("health check failed")
				h.recordFailure(name, result)
			}
		}
	}

	if response.Status != "healthy" {
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("service unhealthy")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().Dur("total_duration", time.Since(start)).Msg("health check passed")
	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) check(ctx context.Context, timeout time.Duration, probe func(context.Context) error) checkResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := probe(ctx)
	result := checkResult{
		Status:       "healthy",
		ResponseTime: time.Since(start).String(),
	}
	if err != nil {
		result.Status = "unhealthy"
		result.Error = err.Error()
	}
	return result
}

func (h *HealthHandler) recordFailure(name string, result checkResult) {
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", map[string]any{
			"check_type":    name,
			"operation":     "health_check",
			"error_type":    name + "_unhealthy",
			"response_time": result.ResponseTime,
			"error_message": result.Error,
		})
	}
}
