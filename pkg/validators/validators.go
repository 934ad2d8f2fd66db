// Package validators checks request bodies before they reach the
// services
package validators

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"fashionai/avatar-api/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// messages maps field.tag to what the client sees
var messages = map[string]string{
	"email.required": "Please provide a valid email",
	"email.email":    "Please provide a valid email",

	"password.required":       "Password must be at least 6 characters long",
	"password.min":            "Password must be at least 6 characters long",
	"password.strongpassword": "Password must contain at least one lowercase letter, one uppercase letter, and one number",

	"name.required": "Name is required",
	"name.min":      "Name must be between 2 and 50 characters",
	"name.max":      "Name must be between 2 and 50 characters",

	"pin.required": "PIN must be exactly 6 digits",
	"pin.len":      "PIN must be exactly 6 digits",
	"pin.digits":   "PIN must contain only numbers",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})

	v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return false
		}

		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}

		return true
	})

	return v
}

// StrongPassword reports whether p has a lowercase letter, an uppercase
// letter and a digit
func StrongPassword(p string) bool {
	var lower, upper, digit bool

	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	return lower && upper && digit
}

// Struct validates v and returns an *apperr.Error listing every invalid
// field, or nil
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.Validation, "Validation Error", err)
	}

	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}

		fields = append(fields, apperr.FieldError{Field: fe.Field(), Message: msg})
	}

	return apperr.WithFields("Validation Error", fields)
}
