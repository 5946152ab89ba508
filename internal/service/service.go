// Package service contains the business logic.
//
// InquiryService accepts inquiries from the handler layer, stores them
// through the repository and publishes the administrator notification.
// NotificationService runs in the worker and turns queued notifications
// into e-mails.
package service
