// Package logger configures the application's logging,
// monitoring, and observability.
//
// It uses zerolog for logging and integrates with New Relic to
// instrument the codebase, forwarding logs, metrics, and traces.
package logger
