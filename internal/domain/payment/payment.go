package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/YuriTheCoder/apipagamento/internal/domain/errors"
	"github.com/google/uuid"
)

// Status represents the payment status.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusAuthorized Status = "AUTHORIZED"
	StatusCaptured   Status = "CAPTURED"
	StatusFailed     Status = "FAILED"
	StatusCanceled   Status = "CANCELED"
	StatusRefunded   Status = "REFUNDED"
)

// Statuses lists every valid payment status.
var Statuses = []Status{
	StatusPending,
	StatusAuthorized,
	StatusCaptured,
	StatusFailed,
	StatusCanceled,
	StatusRefunded,
}

// RefundableStatuses are the only statuses a refund may start from.
var RefundableStatuses = []Status{StatusAuthorized, StatusCaptured}

// ParseStatus parses a case-insensitive status value.
func ParseStatus(s string) (Status, error) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range Statuses {
		if st == candidate {
			return st, nil
		}
	}
	return "", errors.NewDomainError(
		"invalid_status",
		fmt.Sprintf("unknown payment status %q", s),
		errors.ErrInvalidStatus,
	)
}

// Amount represents a monetary amount in the smallest currency unit (e.g. cents).
type Amount struct {
	ValueCents int64
	Currency   string
}

// String returns a human-readable representation of the amount.
func (a Amount) String() string {
	whole := a.ValueCents / 100
	frac := a.ValueCents % 100
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%02d %s", whole, frac, a.Currency)
}

// Validate checks that the amount is valid.
func (a Amount) Validate() error {
	return validateAmount(a)
}

// Payment is the stored payment record. ID and the timestamps are owned by
// the store and assigned on insert; ExternalID, Amount and Description are
// immutable after creation.
type Payment struct {
	ID          uuid.UUID
	ExternalID  string
	Amount      Amount
	Description string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPayment creates a new pending payment. The currency is normalized to
// uppercase; id and timestamps are left zero for the repository to assign.
func NewPayment(externalID string, amount Amount, description string) (*Payment, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, errors.NewValidationError("externalId", "cannot be empty")
	}
	amount.Currency = strings.ToUpper(amount.Currency)
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if len(description) > 255 {
		return nil, errors.NewValidationError("description", "must be at most 255 characters")
	}

	return &Payment{
		ExternalID:  externalID,
		Amount:      amount,
		Description: description,
		Status:      StatusPending,
	}, nil
}

// transitionAllowed is the single choke point for status transitions. The
// generic update path deliberately enforces no state machine today: any
// status is reachable from any other. A transition table can be dropped in
// here without touching callers.
func transitionAllowed(from, to Status) bool {
	_ = from
	_ = to
	return true
}

// ChangeStatus sets the payment status through the transition check.
func (p *Payment) ChangeStatus(next Status) error {
	if !transitionAllowed(p.Status, next) {
		return errors.NewDomainError(
			"invalid_transition",
			fmt.Sprintf("cannot transition from %s to %s", p.Status, next),
			errors.ErrInvalidStatus,
		)
	}
	p.Status = next
	return nil
}

// RefundEligible reports whether a refund may be initiated from the current status.
func (p *Payment) RefundEligible() bool {
	return p.Status == StatusAuthorized || p.Status == StatusCaptured
}

// ValidateRefund checks the refund guards without mutating the payment:
// the current status must be refund-eligible and the amount must be
// strictly positive and at most the original amount.
func (p *Payment) ValidateRefund(amountCents int64) error {
	if !p.RefundEligible() {
		return errors.NewDomainError(
			"invalid_refund_state",
			fmt.Sprintf("cannot refund payment in status %s", p.Status),
			errors.ErrRefundNotAllowed,
		)
	}
	if amountCents <= 0 || amountCents > p.Amount.ValueCents {
		return errors.NewDomainError(
			"invalid_refund_amount",
			fmt.Sprintf("refund amount must be between 0.01 and %s", p.Amount),
			errors.ErrInvalidRefundAmount,
		)
	}
	return nil
}

// Refund validates the guards and closes out the payment. A partial amount
// is accepted but still moves the payment to REFUNDED; no refundable
// balance is tracked. That close-out lives here so a balance model can
// replace it later without an API change.
func (p *Payment) Refund(amountCents int64) error {
	if err := p.ValidateRefund(amountCents); err != nil {
		return err
	}
	p.markRefunded()
	return nil
}

func (p *Payment) markRefunded() {
	p.Status = StatusRefunded
}

func validateAmount(amount Amount) error {
	if amount.ValueCents <= 0 {
		return errors.NewValidationError("amount", "must be greater than 0")
	}
	if amount.Currency == "" {
		return errors.NewValidationError("currency", "cannot be empty")
	}
	// Simple currency validation (3-letter code)
	if len(amount.Currency) != 3 {
		return errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}
	return nil
}
