// Package validation checks request input and reports field-level errors.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"cinelog/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("rating", func(fl validator.FieldLevel) bool {
		return ValidRating(fl.Field().Float())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidRating reports whether r lies in 0.5..5.0 on a half-point step.
func ValidRating(r float64) bool {
	if r < models.MinRating || r > models.MaxRating {
		return false
	}
	steps := r / models.RatingStep
	return math.Abs(steps-math.Round(steps)) < 1e-9
}

// Struct validates s against its `validate` tags. Failures come back as a
// models.AppError carrying one FieldError per invalid field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewValidationError(err.Error())
	}
	var fields FieldErrors
	for _, fe := range verrs {
		fields.Add(fe.Field(), message(fe))
	}
	return fields.Err()
}

func message(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return "Please enter a valid email address"
	case "rating":
		return "Rating must be between 0.5 and 5.0 in steps of 0.5"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", name, bound(fe))
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", name, bound(fe))
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

func bound(fe validator.FieldError) string {
	kind := fe.Kind()
	if kind == reflect.Ptr {
		kind = fe.Type().Elem().Kind()
	}
	switch kind {
	case reflect.String:
		return fe.Param() + " characters"
	case reflect.Slice, reflect.Array:
		return fe.Param() + " item(s)"
	default:
		return fe.Param()
	}
}

// FieldErrors accumulates field failures found by hand-written checks.
type FieldErrors []models.FieldError

// Add records a failure for field.
func (f *FieldErrors) Add(field, message string) {
	*f = append(*f, models.FieldError{Field: field, Message: message})
}

// Err returns nil when nothing was recorded.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return models.NewFieldValidationError(f)
}
