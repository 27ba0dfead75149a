// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	apperrors "github.com/turgayozgur/eshop-ordering/internal/errors"
)

var (
	// currencyRegex matches lowercase ISO 4217 style currency codes
	currencyRegex = regexp.MustCompile(`^[a-z]{3}$`)

	// cardExpirationRegex matches MM/YY card expirations
	cardExpirationRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)

	// cardNumberRegex matches card numbers (digits only, 12-19 characters)
	cardNumberRegex = regexp.MustCompile(`^\d{12,19}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "cannot be blank"),
)

// CurrencyCode validates a three-letter lowercase currency code (e.g., "usd")
var CurrencyCode = validation.NewStringRuleWithError(
	func(s string) bool {
		return currencyRegex.MatchString(s)
	},
	validation.NewError("validation_currency_code", "must be a three-letter lowercase currency code"),
)

// CardExpiration validates a card expiration in MM/YY format
var CardExpiration = validation.NewStringRuleWithError(
	func(s string) bool {
		return cardExpirationRegex.MatchString(s)
	},
	validation.NewError("validation_card_expiration", "must be in MM/YY format"),
)

// CardNumber validates a card number (digits only, no separators)
var CardNumber = validation.NewStringRuleWithError(
	func(s string) bool {
		return cardNumberRegex.MatchString(s)
	},
	validation.NewError("validation_card_number", "must be 12 to 19 digits"),
)

// PositiveAmount validates that a decimal amount is strictly positive
type PositiveAmount struct{}

// Validate checks the value is a positive decimal
func (p PositiveAmount) Validate(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return validation.NewError("validation_positive_amount", "amount must be a decimal")
	}
	if !d.IsPositive() {
		return validation.NewError("validation_positive_amount", "amount must be greater than zero")
	}
	return nil
}
