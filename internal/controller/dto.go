package controller

import (
	"math"
	"time"

	"github.com/YuriTheCoder/apipagamento/internal/domain/payment"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (float64 for money, validation tags).
// Field names are camelCase on the wire, matching the public contract.

// CreatePaymentRequest holds the input for creating a payment.
type CreatePaymentRequest struct {
	ExternalID  string  `json:"externalId" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"required,len=3"`
	Description string  `json:"description" validate:"max=255"`
}

// UpdateStatusRequest holds the input for updating a payment status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// RefundRequest holds the input for refunding a payment.
type RefundRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Reason string  `json:"reason" validate:"max=255"`
}

// --- Response DTOs ---

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID          string    `json:"id"`
	ExternalID  string    `json:"externalId"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// FromPayment converts a domain payment to API response.
func FromPayment(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:          p.ID.String(),
		ExternalID:  p.ExternalID,
		Amount:      centsToFloat(p.Amount.ValueCents),
		Currency:    p.Amount.Currency,
		Status:      string(p.Status),
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// floatToCents converts a float currency amount to cents.
func floatToCents(f float64) int64 {
	return int64(math.Round(f * 100))
}

// centsToFloat converts cents to a float currency amount.
func centsToFloat(cents int64) float64 {
	return float64(cents) / 100.0
}
