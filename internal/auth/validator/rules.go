// Package validator registers account-specific validation rules.
package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	platformvalidator "furbabies_backend/platform/validator"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	hasLetter       = regexp.MustCompile(`[A-Za-z]`)
	hasDigit        = regexp.MustCompile(`\d`)
)

// Register installs the custom rules used by auth request DTOs:
// alphanumunderscore for usernames, passwordstrength requiring at least one
// letter and one digit.
func Register(val *platformvalidator.Validator) error {
	if err := val.RegisterValidation("alphanumunderscore", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	return val.RegisterValidation("passwordstrength", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return hasLetter.MatchString(value) && hasDigit.MatchString(value)
	})
}
