// Package validator wraps go-playground struct validation and registers
// the custom tags used by transport DTOs.
package validator

import (
	"github.com/go-playground/validator/v10"

	"leadmarket_backend/platform/phone"
)

// Validator validates transport structs by their validation tags.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the custom tags registered.
func New() *Validator {
	v := validator.New()

	// phone_number accepts anything that parses as a dialable number.
	_ = v.RegisterValidation("phone_number", func(fl validator.FieldLevel) bool {
		return phone.Valid(fl.Field().String())
	})

	return &Validator{v: v}
}

// Struct validates a struct based on its validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers an additional custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
