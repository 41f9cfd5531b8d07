package service

import (
	"context"
	"errors"

	domainErrors "github.com/YuriTheCoder/apipagamento/internal/domain/errors"
	"github.com/YuriTheCoder/apipagamento/internal/domain/payment"
	"github.com/YuriTheCoder/apipagamento/internal/infrastructure/observability"
	"github.com/rs/zerolog"
)

// PaymentCache is the lookup cache used by the service. Implementations are
// best-effort: misses and failures fall through to the repository.
type PaymentCache interface {
	Get(ctx context.Context, externalID string) (*payment.Payment, bool)
	Set(ctx context.Context, p *payment.Payment)
	Invalidate(ctx context.Context, externalID string)
}

// PaymentService handles payment-related business logic. It is the only
// place decision logic lives; the repository enforces persistence and
// external-id uniqueness.
type PaymentService struct {
	repo      payment.Repository
	txManager TransactionManager
	cache     PaymentCache
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// NewPaymentService creates a new PaymentService. cache may be nil.
func NewPaymentService(
	repo payment.Repository,
	txManager TransactionManager,
	cache PaymentCache,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		repo:      repo,
		txManager: txManager,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// CreatePaymentRequest holds the input for creating a payment.
type CreatePaymentRequest struct {
	ExternalID  string
	AmountCents int64
	Currency    string
	Description string
}

// Create creates a new pending payment. Fails with ErrDuplicateExternalID
// when the external id is already taken.
func (s *PaymentService) Create(ctx context.Context, req CreatePaymentRequest) (*payment.Payment, error) {
	p, err := payment.NewPayment(
		req.ExternalID,
		payment.Amount{ValueCents: req.AmountCents, Currency: req.Currency},
		req.Description,
	)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// Explicit duplicate check for a clean error; the unique
		// constraint on external_id is the backstop under races.
		_, getErr := s.repo.GetByExternalID(txCtx, p.ExternalID)
		if getErr == nil {
			return domainErrors.ErrDuplicateExternalID
		}
		if !errors.Is(getErr, domainErrors.ErrPaymentNotFound) {
			return getErr
		}
		return s.repo.Create(txCtx, p)
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, p)
	}
	if s.metrics != nil {
		s.metrics.PaymentsCreated.WithLabelValues(p.Amount.Currency).Inc()
	}
	s.logger.Info().
		Str("external_id", p.ExternalID).
		Str("amount", p.Amount.String()).
		Msg("payment created")

	return p, nil
}

// List returns every stored payment, unfiltered and unpaginated.
func (s *PaymentService) List(ctx context.Context) ([]*payment.Payment, error) {
	return s.repo.List(ctx)
}

// GetByExternalID returns the payment for the external id, consulting the
// cache first.
func (s *PaymentService) GetByExternalID(ctx context.Context, externalID string) (*payment.Payment, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(ctx, externalID); ok {
			return p, nil
		}
	}

	p, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, p)
	}
	return p, nil
}

// UpdateStatus overwrites the payment status with the given value. Any
// enumerated status is accepted from any current status; the transition
// check lives in payment.ChangeStatus.
func (s *PaymentService) UpdateStatus(ctx context.Context, externalID string, next payment.Status) (*payment.Payment, error) {
	var p *payment.Payment
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		p, txErr = s.repo.GetByExternalID(txCtx, externalID)
		if txErr != nil {
			return txErr
		}
		if txErr := p.ChangeStatus(next); txErr != nil {
			return txErr
		}
		return s.repo.Update(txCtx, p)
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, externalID)
	}
	if s.metrics != nil {
		s.metrics.StatusUpdates.WithLabelValues(string(next)).Inc()
	}
	s.logger.Info().
		Str("external_id", externalID).
		Str("status", string(next)).
		Msg("payment status updated")

	return p, nil
}

// RefundRequest holds the input for refunding a payment.
type RefundRequest struct {
	ExternalID  string
	AmountCents int64
	Reason      string
}

// Refund validates the refund guards and moves the payment to REFUNDED. The
// status write is a conditional update keyed on the refund-eligible statuses,
// so concurrent refunds on the same record cannot both succeed. The reason is
// accepted but not persisted; the model has no field for it.
func (s *PaymentService) Refund(ctx context.Context, req RefundRequest) (*payment.Payment, error) {
	var updated *payment.Payment
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		p, txErr := s.repo.GetByExternalID(txCtx, req.ExternalID)
		if txErr != nil {
			return txErr
		}
		if txErr := p.ValidateRefund(req.AmountCents); txErr != nil {
			return txErr
		}

		updated, txErr = s.repo.UpdateStatusIf(txCtx, req.ExternalID, payment.RefundableStatuses, payment.StatusRefunded)
		if errors.Is(txErr, domainErrors.ErrStatusPrecondition) {
			// Lost the race to a concurrent writer.
			return domainErrors.NewDomainError(
				"invalid_refund_state",
				"payment is no longer refundable",
				domainErrors.ErrRefundNotAllowed,
			)
		}
		return txErr
	})
	if err != nil {
		s.countRefund(err)
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, req.ExternalID)
	}
	s.countRefund(nil)
	if req.Reason != "" {
		s.logger.Debug().
			Str("external_id", req.ExternalID).
			Str("reason", req.Reason).
			Msg("refund reason received (not persisted)")
	}
	s.logger.Info().
		Str("external_id", req.ExternalID).
		Int64("amount_cents", req.AmountCents).
		Msg("payment refunded")

	return updated, nil
}

func (s *PaymentService) countRefund(err error) {
	if s.metrics == nil {
		return
	}
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, domainErrors.ErrRefundNotAllowed):
		result = "invalid_state"
	case errors.Is(err, domainErrors.ErrInvalidRefundAmount):
		result = "invalid_amount"
	case errors.Is(err, domainErrors.ErrPaymentNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	s.metrics.Refunds.WithLabelValues(result).Inc()
}
