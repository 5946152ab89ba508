package validation

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/deppfellow/inquiry-intake/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by request payload types that know how to
// validate themselves, typically by running validator.Struct on their tags.
type Validatable interface {
	Validate() error
}

// CustomValidationError is a single rule violation that struct tags cannot express.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// BindAndValidate binds the request into payload and validates it.
//
// Bodies are JSON whatever the Content-Type header says; echo only decodes
// JSON for application/json, so other media types fall back to the JSON
// serializer. Malformed bodies and failed rules both come back as a 400
// *errs.HTTPError; rule failures carry one FieldError per violated field.
func BindAndValidate(c echo.Context, payload Validatable) error {
	err := c.Bind(payload)
	if errors.Is(err, echo.ErrUnsupportedMediaType) {
		err = c.Echo().JSONSerializer.Deserialize(c, payload)
	}
	if err != nil {
		return errs.NewBadRequestError(bindErrorMessage(err), false, nil, nil)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewBadRequestError(msg, true, nil, fieldErrors)
	}

	return nil
}

// bindErrorMessage extracts the client-facing part of an echo bind error.
func bindErrorMessage(err error) string {
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if msg, ok := echoErr.Message.(string); ok && msg != "" {
			return msg
		}
	}
	return "Invalid request body"
}

func validateStruct(v Validatable) (string, []errs.FieldError) {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return "", nil
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	var customErrors CustomValidationErrors
	if errors.As(err, &customErrors) {
		for _, e := range customErrors {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: e.Field, Error: e.Message})
		}
		return "Validation failed", fieldErrors
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Validation failed", []errs.FieldError{{Field: "body", Error: err.Error()}}
	}

	for _, e := range validationErrors {
		field := e.Field()
		var msg string

		switch e.Tag() {
		case "required":
			msg = "is required"
		case "min":
			if e.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", e.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", e.Param())
			}
		case "max":
			if e.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", e.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", e.Param())
			}
		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", e.Param())
		case "email":
			msg = "must be a valid email address"
		case "uuid":
			msg = "must be a valid UUID"
		case "dive":
			msg = "some items are invalid"
		default:
			if e.Param() != "" {
				msg = fmt.Sprintf("%s: %s:%s", field, e.Tag(), e.Param())
			} else {
				msg = fmt.Sprintf("%s: %s", field, e.Tag())
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{Field: field, Error: msg})
	}

	return "Validation failed", fieldErrors
}
