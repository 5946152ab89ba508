// Package errs defines the error types returned to API clients.
//
// Every error leaving the HTTP layer is rendered as an HTTPError so clients
// always receive the same JSON envelope.
package errs
