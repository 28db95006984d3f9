// Package request binds and validates inbound HTTP payloads.
package request

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/creditdesk/pkg/errorbank"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a validator reporting JSON/query field names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return &Validator{v: v}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i any) error {
	return cv.v.Struct(i)
}

// Bind decodes the request into dst and validates it. Failures come back
// as validation errors with one detail per offending field.
func Bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return errorbank.Validation("invalid request payload", errorbank.WithCause(err))
	}
	if c.Echo().Validator == nil {
		return nil
	}
	err := c.Validate(dst)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errorbank.Validation("invalid request payload", errorbank.WithCause(err))
	}
	opts := []errorbank.Option{errorbank.WithCause(err)}
	for _, fe := range fieldErrs {
		opts = append(opts, errorbank.WithDetail(fe.Field(), describe(fe)))
	}
	return errorbank.Validation("request validation failed", opts...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must match " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "query", "param"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}
