// Package form validates auth forms before anything is sent to the backend.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength matches the backend's password policy.
const MinPasswordLength = 6

// Login is the sign-in form.
type Login struct {
	Email    string `validate:"required,email" label:"Email"`
	Password string `validate:"required" label:"Password"`
}

// Signup is the registration form.
type Signup struct {
	Email           string `validate:"required,email" label:"Email"`
	Password        string `validate:"required,min=6" label:"Password"`
	ConfirmPassword string `validate:"required,eqfield=Password" label:"Password confirmation"`
}

// PasswordReset requests a reset email.
type PasswordReset struct {
	Email string `validate:"required,email" label:"Email"`
}

// UpdatePassword sets a new password.
type UpdatePassword struct {
	Password        string `validate:"required,min=6" label:"Password"`
	ConfirmPassword string `validate:"required,eqfield=Password" label:"Password confirmation"`
}

// ValidationError is a form fault caught before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("label")
	})
	return v
}

// Validate checks form and returns the first fault as *ValidationError.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate form: %w", err)
	}

	fe := fieldErrs[0]
	return &ValidationError{Field: fe.StructField(), Message: message(fe)}
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "eqfield":
		return "Passwords do not match"
	default:
		return strings.TrimSpace(label + " is invalid")
	}
}
