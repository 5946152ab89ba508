package middleware

import (
	"github.com/deppfellow/inquiry-intake/internal/server"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Middlewares groups the middleware components so the router receives them
// as a single value.
type Middlewares struct {
	// Global holds CORS, request logging, recovery, secure headers and the
	// global error handler.
	Global *GlobalMiddlewares

	// ContextEnhancer stores a request-scoped logger on every request.
	ContextEnhancer *ContextEnhancer

	Tracing   *TracingMiddleware
	RateLimit *RateLimitMiddleware
}

// NewMiddlewares builds every middleware component once. Tracing degrades to
// a no-op when New Relic is not configured.
func NewMiddlewares(s *server.Server) *Middlewares {
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
		RateLimit:       NewRateLimitMiddleware(s),
	}
}
