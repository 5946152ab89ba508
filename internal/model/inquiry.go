// Package model holds the domain types shared by the HTTP, storage and
// queue layers.
package model

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate reports fields by their wire names (json, then param tag).
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = fld.Tag.Get("param")
		}
		return name
	})
	return v
}()

// Inquiry is the persisted customer request record.
//
// ID is assigned once by the intake stage and is the store's primary key.
// Records are write-once.
type Inquiry struct {
	ID           string   `json:"id"`
	InquiryType  string   `json:"inquiryType"`
	InquiryItems []string `json:"inquiryItems"`
}

// NotificationMessage is the queue payload that tells the notification
// stage which administrator to e-mail about which inquiry.
type NotificationMessage struct {
	Inquiry Inquiry `json:"inquiry"`
	Admin   string  `json:"admin"`
}

// CreateInquiryRequest is the body of POST /inquiries/new.
//
// Inquiries must be present but may be empty.
type CreateInquiryRequest struct {
	InquiryType string   `json:"inquiryType" validate:"required"`
	Inquiries   []string `json:"inquiries" validate:"required"`
}

func (r *CreateInquiryRequest) Validate() error {
	return validate.Struct(r)
}

// CreateInquiryResponse is returned once the inquiry is stored and its
// notification is queued.
type CreateInquiryResponse struct {
	Inquiry   Inquiry `json:"inquiry"`
	MessageID string  `json:"messageId"`
}

// GetInquiryRequest binds the path parameter of GET /inquiries/:id.
type GetInquiryRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (r *GetInquiryRequest) Validate() error {
	return validate.Struct(r)
}
