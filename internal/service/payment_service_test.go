package service

import (
	"context"
	"testing"

	domainErrors "github.com/YuriTheCoder/apipagamento/internal/domain/errors"
	"github.com/YuriTheCoder/apipagamento/internal/domain/payment"
	"github.com/YuriTheCoder/apipagamento/internal/infrastructure/observability"
	"github.com/YuriTheCoder/apipagamento/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test Helpers ---

func setupPaymentService() (*PaymentService, *testutil.MockPaymentRepository, *testutil.MockPaymentCache) {
	repo := testutil.NewMockPaymentRepository()
	txManager := testutil.NewMockTransactionManager()
	paymentCache := testutil.NewMockPaymentCache()
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())

	svc := NewPaymentService(repo, txManager, paymentCache, metrics, zerolog.Nop())
	return svc, repo, paymentCache
}

// --- Create Tests ---

func TestCreate_Success(t *testing.T) {
	svc, repo, _ := setupPaymentService()
	ctx := context.Background()

	p, err := svc.Create(ctx, CreatePaymentRequest{
		ExternalID:  "ext-1",
		AmountCents: 10000,
		Currency:    "USD",
		Description: "order",
	})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, p.Status)
	assert.NotZero(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	stored, err := repo.GetByExternalID(ctx, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, "ext-1", stored.ExternalID)
	assert.Equal(t, payment.StatusPending, stored.Status)
}

func TestCreate_CurrencyUppercased(t *testing.T) {
	svc, _, _ := setupPaymentService()

	p, err := svc.Create(context.Background(), CreatePaymentRequest{
		ExternalID:  "ext-1",
		AmountCents: 10000,
		Currency:    "brl",
	})
	require.NoError(t, err)
	assert.Equal(t, "BRL", p.Amount.Currency)
}

func TestCreate_DuplicateExternalID(t *testing.T) {
	svc, _, _ := setupPaymentService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePaymentRequest{ExternalID: "ext-1", AmountCents: 10000, Currency: "USD"})
	require.NoError(t, err)

	// Same external id, different field values: still a conflict.
	_, err = svc.Create(ctx, CreatePaymentRequest{ExternalID: "ext-1", AmountCents: 500, Currency: "EUR"})
	assert.ErrorIs(t, err, domainErrors.ErrDuplicateExternalID)
}

func TestCreate_DuplicateRace_UniqueConstraintBackstop(t *testing.T) {
	svc, repo, _ := setupPaymentService()

	// The pre-insert lookup misses but the insert hits the unique
	// constraint, as happens when two creates race.
	repo.GetByExternalIDFunc = func(ctx context.Context, externalID string) (*payment.Payment, error) {
		return nil, domainErrors.ErrPaymentNotFound
	}
	repo.CreateFunc = func(ctx context.Context, p *payment.Payment) error {
		return domainErrors.ErrDuplicateExternalID
	}

	_, err := svc.Create(context.Background(), CreatePaymentRequest{ExternalID: "ext-1", AmountCents: 10000, Currency: "USD"})
	assert.ErrorIs(t, err, domainErrors.ErrDuplicateExternalID)
}

func TestCreate_InvalidInput(t *testing.T) {
	svc, _, _ := setupPaymentService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePaymentRequest{ExternalID: "", AmountCents: 10000, Currency: "USD"})
	assert.Error(t, err)

	_, err = svc.Create(ctx, CreatePaymentRequest{ExternalID: "ext-1", AmountCents: 0, Currency: "USD"})
	assert.Error(t, err)

	_, err = svc.Create(ctx, CreatePaymentRequest{ExternalID: "ext-1", AmountCents: 10000, Currency: "DOLLAR"})
	assert.Error(t, err)
}

func TestCreate_PopulatesCache(t *testing.T) {
	svc, _, paymentCache := setupPaymentService()

	_, err := svc.Create(context.Background(), CreatePaymentRequest{ExternalID: "ext-1", AmountCents: 10000, Currency: "USD"})
	require.NoError(t, err)

	cached, ok := paymentCache.Get(context.Background(), "ext-1")
	require.True(t, ok)
	assert.Equal(t, "ext-1", cached.ExternalID)
}

// --- Get / List Tests ---

func TestGetByExternalID_AfterCreate(t *testing.T) {
	svc, _, _ := setupPaymentService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePaymentRequest{ExternalID: "ext-1", AmountCents: 10000, Currency: "USD"})
	require.NoError(t, err)

	p, err := svc.GetByExternalID(ctx, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, "ext-1", p.ExternalID)
}

func TestGetByExternalID_NotFound(t *testing.T) {
	svc, _, _ := setupPaymentService()

	_, err := svc.GetByExternalID(context.Background(), "missing")
	assert.ErrorIs(t, err, domainErrors.ErrPaymentNotFound)
}

func TestGetByExternalID_CacheHitSkipsRepository(t *testing.T) {
	svc, repo, paymentCache := setupPaymentService()
	ctx := context.Background()

	paymentCache.Set(ctx, testutil.NewStoredPayment(t, "ext-1", 10000, "USD", payment.StatusAuthorized))
	repo.GetByExternalIDFunc = func(ctx context.Context, externalID string) (*payment.Payment, error) {
		t.Fatal("repository must not be consulted on a cache hit")
		return nil, nil
	}

	p, err := svc.GetByExternalID(ctx, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusAuthorized, p.Status)
}

func TestGetByExternalID_MissPopulatesCache(t *testing.T) {
	svc, repo, paymentCache := setupPaymentService()
	ctx := context.Background()

	repo.AddPayment(testutil.NewStoredPayment(t, "ext-1", 10000, "USD", payment.StatusPending))

	_, err := svc.GetByExternalID(ctx, "ext-1")
	require.NoError(t, err)

	_, ok := paymentCache.Get(ctx, "ext-1")
	assert.True(t, ok)
}

func TestList_InsertionOrder(t *testing.T) {
	svc, _, _ := setupPaymentService()
	ctx := context.Background()

	for _, id := range []string{"ext-1", "ext-2", "ext-3"} {
		_, err := svc.Create(ctx, CreatePaymentRequest{ExternalID: id, AmountCents: 1000, Currency: "USD"})
		require.NoError(t, err)
	}

	payments, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, payments, 3)
	assert.Equal(t, "ext-1", payments[0].ExternalID)
	assert.Equal(t, "ext-2", payments[1].ExternalID)
	assert.Equal(t, "ext-3", payments[2].ExternalID)
}

func TestList_Empty(t *testing.T) {
	svc, _, _ := setupPaymentService()

	payments, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, payments)
}

// --- UpdateStatus Tests ---

func TestUpdateStatus_AnyValueAccepted(t *testing.T) {
	svc, _, _ := setupPaymentService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePaymentRequest{ExternalID: "ext-1", AmountCents: 10000, Currency: "USD"})
	require.NoError(t, err)

	// PENDING -> FAILED -> AUTHORIZED is all permitted.
	for _, next := range []payment.Status{payment.StatusFailed, payment.StatusAuthorized} {
		p, err := svc.UpdateStatus(ctx, "ext-1", next)
		require.NoError(t, err)
		assert.Equal(t, next, p.Status)

		got, err := svc.GetByExternalID(ctx, "ext-1")
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
	}
}

func TestUpdateStatus_SameValueNoOp(t *testing.T) {
	svc, _, _ := setupPaymentService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePaymentRequest{ExternalID: "ext-1", AmountCents: 10000, Currency: "USD"})
	require.NoError(t, err)

	p, err := svc.UpdateStatus(ctx, "ext-1", payment.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, p.Status)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc, _, _ := setupPaymentService()

	_, err := svc.UpdateStatus(context.Background(), "missing", payment.StatusCaptured)
	assert.ErrorIs(t, err, domainErrors.ErrPaymentNotFound)
}

func TestUpdateStatus_InvalidatesCache(t *testing.T) {
	svc, _, paymentCache := setupPaymentService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePaymentRequest{ExternalID: "ext-1", AmountCents: 10000, Currency: "USD"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, "ext-1", payment.StatusCaptured)
	require.NoError(t, err)
	assert.Contains(t, paymentCache.Invalidations, "ext-1")
}

// --- Refund Tests ---

func createWithStatus(t *testing.T, svc *PaymentService, externalID string, amountCents int64, status payment.Status) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Create(ctx, CreatePaymentRequest{ExternalID: externalID, AmountCents: amountCents, Currency: "USD"})
	require.NoError(t, err)
	if status != payment.StatusPending {
		_, err = svc.UpdateStatus(ctx, externalID, status)
		require.NoError(t, err)
	}
}

func TestRefund_Success(t *testing.T) {
	for _, status := range payment.RefundableStatuses {
		t.Run(string(status), func(t *testing.T) {
			svc, _, _ := setupPaymentService()
			ctx := context.Background()
			createWithStatus(t, svc, "ext-1", 10000, status)

			p, err := svc.Refund(ctx, RefundRequest{ExternalID: "ext-1", AmountCents: 5000, Reason: "customer request"})
			require.NoError(t, err)
			assert.Equal(t, payment.StatusRefunded, p.Status)

			got, err := svc.GetByExternalID(ctx, "ext-1")
			require.NoError(t, err)
			assert.Equal(t, payment.StatusRefunded, got.Status)
		})
	}
}

func TestRefund_IneligibleStatus(t *testing.T) {
	for _, status := range []payment.Status{
		payment.StatusPending,
		payment.StatusFailed,
		payment.StatusCanceled,
		payment.StatusRefunded,
	} {
		t.Run(string(status), func(t *testing.T) {
			svc, _, _ := setupPaymentService()
			ctx := context.Background()
			createWithStatus(t, svc, "ext-1", 10000, status)

			_, err := svc.Refund(ctx, RefundRequest{ExternalID: "ext-1", AmountCents: 5000})
			assert.ErrorIs(t, err, domainErrors.ErrRefundNotAllowed)

			got, err := svc.GetByExternalID(ctx, "ext-1")
			require.NoError(t, err)
			assert.Equal(t, status, got.Status, "status must be unchanged")
		})
	}
}

func TestRefund_InvalidAmount(t *testing.T) {
	tests := []struct {
		name        string
		amountCents int64
	}{
		{"zero", 0},
		{"negative", -500},
		{"exceeds original", 15000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := setupPaymentService()
			ctx := context.Background()
			createWithStatus(t, svc, "ext-1", 10000, payment.StatusAuthorized)

			_, err := svc.Refund(ctx, RefundRequest{ExternalID: "ext-1", AmountCents: tt.amountCents})
			assert.ErrorIs(t, err, domainErrors.ErrInvalidRefundAmount)

			got, err := svc.GetByExternalID(ctx, "ext-1")
			require.NoError(t, err)
			assert.Equal(t, payment.StatusAuthorized, got.Status, "status must be unchanged")
		})
	}
}

func TestRefund_NotFound(t *testing.T) {
	svc, _, _ := setupPaymentService()

	_, err := svc.Refund(context.Background(), RefundRequest{ExternalID: "missing", AmountCents: 100})
	assert.ErrorIs(t, err, domainErrors.ErrPaymentNotFound)
}

func TestRefund_LostRace(t *testing.T) {
	svc, repo, _ := setupPaymentService()
	ctx := context.Background()
	createWithStatus(t, svc, "ext-1", 10000, payment.StatusCaptured)

	// A concurrent writer changed the status between the eligibility
	// read and the conditional write.
	repo.UpdateStatusIfFunc = func(ctx context.Context, externalID string, expected []payment.Status, next payment.Status) (*payment.Payment, error) {
		return nil, domainErrors.ErrStatusPrecondition
	}

	_, err := svc.Refund(ctx, RefundRequest{ExternalID: "ext-1", AmountCents: 5000})
	assert.ErrorIs(t, err, domainErrors.ErrRefundNotAllowed)
}

func TestRefund_InvalidatesCache(t *testing.T) {
	svc, _, paymentCache := setupPaymentService()
	ctx := context.Background()
	createWithStatus(t, svc, "ext-1", 10000, payment.StatusCaptured)

	_, err := svc.Refund(ctx, RefundRequest{ExternalID: "ext-1", AmountCents: 10000})
	require.NoError(t, err)
	assert.Contains(t, paymentCache.Invalidations, "ext-1")
}
