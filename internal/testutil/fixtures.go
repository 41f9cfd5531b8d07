package testutil

import (
	"testing"
	"time"

	"github.com/YuriTheCoder/apipagamento/internal/domain/payment"
	"github.com/google/uuid"
)

// NewStoredPayment builds a payment as it would look after the store
// assigned id and timestamps.
func NewStoredPayment(t *testing.T, externalID string, amountCents int64, currency string, status payment.Status) *payment.Payment {
	t.Helper()
	now := time.Now().UTC()
	return &payment.Payment{
		ID:         uuid.New(),
		ExternalID: externalID,
		Amount:     payment.Amount{ValueCents: amountCents, Currency: currency},
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
