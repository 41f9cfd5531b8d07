package payment

import "context"

// Repository defines the interface for payment persistence
type Repository interface {
	// Create inserts a new payment, assigning id and timestamps.
	// Fails with ErrDuplicateExternalID if the external id is taken.
	Create(ctx context.Context, payment *Payment) error

	// GetByExternalID retrieves a payment by its external identifier.
	GetByExternalID(ctx context.Context, externalID string) (*Payment, error)

	// List returns all payments in insertion order.
	List(ctx context.Context) ([]*Payment, error)

	// Update persists the payment's status and refreshes updated_at.
	// It never changes id, external id, amount, currency or created_at.
	Update(ctx context.Context, payment *Payment) error

	// UpdateStatusIf atomically sets the status to next only while the
	// current status is one of expected, returning the updated record.
	// Fails with ErrStatusPrecondition when the record exists outside
	// expected, ErrPaymentNotFound when it does not exist at all.
	UpdateStatusIf(ctx context.Context, externalID string, expected []Status, next Status) (*Payment, error)
}
