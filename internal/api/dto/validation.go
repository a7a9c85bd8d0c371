package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
	})
	return validate
}

// Validate checks struct tags and returns a VALIDATION_FAILED error
// listing each offending field.
func Validate(req any) error {
	err := Validator().Struct(req)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(validationErrors))
	for _, e := range validationErrors {
		details[e.Field()] = prettyError(e)
	}
	return apperrors.NewValidationError("request validation failed", details)
}

func prettyError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	default:
		return e.Error()
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}
