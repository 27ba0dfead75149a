// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/turgayozgur/eshop-ordering/internal/validation"
)

// SubmitPaymentRequest contains the card details for a payment attempt.
// The order id is extracted from the URL parameter, not the request body.
type SubmitPaymentRequest struct {
	CardNumber         string `json:"card_number" binding:"required"`
	CardHolderName     string `json:"card_holder_name" binding:"required"`
	CardExpiration     string `json:"card_expiration" binding:"required"`
	CardSecurityNumber string `json:"card_security_number" binding:"required"`
}

// Validate checks if the submit payment request is valid.
func (r *SubmitPaymentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CardNumber, validation.Required, customValidation.CardNumber),
		validation.Field(&r.CardHolderName, validation.Required, customValidation.NotBlank),
		validation.Field(&r.CardExpiration, validation.Required, customValidation.CardExpiration),
		validation.Field(&r.CardSecurityNumber, validation.Required, validation.Length(3, 4)),
	)
}

// ConfirmPaymentRequest carries the integration event id of a
// payment.succeeded event being confirmed out of band.
type ConfirmPaymentRequest struct {
	EventID string `json:"event_id" binding:"required"`
}

// Validate checks if the confirm payment request is valid.
func (r *ConfirmPaymentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.EventID, validation.Required, customValidation.NotBlank),
	)
}
