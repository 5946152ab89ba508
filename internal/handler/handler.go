// Package handler is the HTTP entry point for business logic after the
// router.
//
// It binds and validates requests with the validation package, calls the
// service layer and writes the response.
package handler
