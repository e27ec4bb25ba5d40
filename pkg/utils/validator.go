package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	// Custom validations
	_ = v.RegisterValidation("not_blank", validateNotBlank)
	_ = v.RegisterValidation("role", validateRole)

	return &Validator{
		validate: v,
	}
}

func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

// Whitespace-only identifiers count as missing.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "user", "premium", "admin":
		return true
	}
	return false
}
