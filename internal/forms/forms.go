// Package forms validates submitted forms before anything reaches the network.
//
// Failures come back as a KindValidation error whose field map is keyed by the
// form field name (the `form` tag), ready to render next to each input.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/mrlokans/docsafe/internal/errors"
)

// Validator wraps a configured go-playground validator.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that reports fields by their form name.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("academic_year", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Field().String())
		return err == nil && n >= 1 && n <= 10
	})
	return &Validator{v: v}
}

var defaultValidator = New()

// Validate checks form with the shared Validator.
func Validate(form any) error {
	return defaultValidator.Validate(form)
}

// Validate returns nil or a KindValidation error with per-field messages.
// Only the first failure per field is kept.
func (v *Validator) Validate(form any) error {
	err := v.v.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating form: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = message(fe)
	}
	return apperrors.Validation(fields)
}

// messages overrides the generic wording for specific field/rule pairs.
var messages = map[string]string{
	"email.email":              "Please enter a valid email address",
	"email.required":           "Please enter a valid email address",
	"password.min":             "Password must be at least 6 characters",
	"password.required":        "Password must be at least 6 characters",
	"newPassword.min":          "Password must be at least 6 characters",
	"newPassword.required":     "Password must be at least 6 characters",
	"name.min":                 "Name must be at least 2 characters",
	"name.required":            "Name must be at least 2 characters",
	"confirmPassword.eqfield":  "Passwords don't match",
	"year.academic_year":       "Year must be a number between 1 and 10",
	"currentPassword.required": "Current password is required",
	"description.min":          "Description must be at least 10 characters",
	"reason.required":          "Please provide a reason for rejection",
}

func message(fe validator.FieldError) string {
	if m, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return m
	}

	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return "Please enter a valid email address"
	case "eqfield":
		return label + " does not match"
	default:
		return label + " is invalid"
	}
}

// humanize turns "enrollmentNumber" into "Enrollment number".
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteString(strings.ToUpper(string(r)))
		case r >= 'A' && r <= 'Z':
			b.WriteByte(' ')
			b.WriteString(strings.ToLower(string(r)))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
