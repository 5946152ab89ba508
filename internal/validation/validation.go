// Package validation binds and validates request payloads.
//
// It uses go-playground/validator to enforce rules defined in struct tags
// and turns violations into field errors the client can understand.
package validation
