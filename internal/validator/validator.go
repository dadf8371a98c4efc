// Package validator checks request DTOs against their struct tags.
package validator

import (
	"github.com/go-playground/validator/v10"
	ierr "github.com/localedeals/localedeals/internal/errors"
)

var validate = validator.New()

// ValidateRequest runs the `validate` struct tags and reports the failed
// fields as a validation error.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	details := map[string]interface{}{}
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return ierr.WithError(err).
		WithHint("Request validation failed").
		WithReportableDetails(details).
		Mark(ierr.ErrValidation)
}
