// Package types provides type definitions for the records exchanged with the egresados API.
package types

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// LoginRequest represents the admin login request sent to POST /admin/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,adminpassword"`
}

// LoginResponse is the data payload of a successful login envelope.
type LoginResponse struct {
	Token string `json:"token"`
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	return NewValidator().Struct(r)
}

// NewValidator returns a validator with the console's custom rules registered.
func NewValidator() *validator.Validate {
	validate := validator.New()
	// Registration only fails for an empty tag or nil func.
	_ = validate.RegisterValidation("adminpassword", func(fl validator.FieldLevel) bool {
		return IsAdminPassword(fl.Field().String())
	})
	return validate
}

// IsAdminPassword reports whether pw has at least 8 characters including a digit,
// a lowercase and an uppercase letter.
func IsAdminPassword(pw string) bool {
	if len([]rune(pw)) < 8 {
		return false
	}
	var digit, lower, upper bool
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		}
	}
	return digit && lower && upper
}
