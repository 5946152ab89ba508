// Package lib groups integrations that do not fit strictly into the
// handler/service/repository layers.
//
// It contains background job processing (Redis/Asynq) and the e-mail
// client (Resend).
package lib
