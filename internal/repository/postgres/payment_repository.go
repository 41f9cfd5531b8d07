package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/YuriTheCoder/apipagamento/internal/domain/errors"
	"github.com/YuriTheCoder/apipagamento/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `id, external_id, amount, currency, status, description, created_at, updated_at`

// PaymentRepository implements payment.Repository using PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Create inserts a new payment, assigning id and timestamps. The unique
// constraint on external_id is the source of truth for duplicates.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	now := time.Now().UTC()
	id := uuid.New()

	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO payments (id, external_id, amount, currency, status, description, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, p.ExternalID, centsToNumericString(p.Amount.ValueCents), p.Amount.Currency,
		string(p.Status), p.Description, now, now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrDuplicateExternalID
		}
		return fmt.Errorf("insert payment: %w", err)
	}

	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetByExternalID retrieves a payment by its external identifier.
func (r *PaymentRepository) GetByExternalID(ctx context.Context, externalID string) (*payment.Payment, error) {
	return r.scanPayment(r.db(ctx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE external_id = $1`, externalID))
}

// List returns every payment in insertion order.
func (r *PaymentRepository) List(ctx context.Context) ([]*payment.Payment, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+paymentColumns+` FROM payments ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Update persists the payment's status and refreshes updated_at. The
// immutable columns are deliberately absent from the SET list.
func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	now := time.Now().UTC()

	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE payments SET status = $1, updated_at = $2 WHERE id = $3`,
		string(p.Status), now, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrPaymentNotFound
	}

	p.UpdatedAt = now
	return nil
}

// UpdateStatusIf performs a conditional status update in a single statement,
// so two concurrent refunds cannot both pass the eligibility check: only the
// statement that observes an expected status writes, the other sees the
// precondition failure.
func (r *PaymentRepository) UpdateStatusIf(ctx context.Context, externalID string, expected []payment.Status, next payment.Status) (*payment.Payment, error) {
	expectedStrs := make([]string, len(expected))
	for i, s := range expected {
		expectedStrs[i] = string(s)
	}

	p, err := r.scanPayment(r.db(ctx).QueryRow(ctx,
		`UPDATE payments SET status = $1, updated_at = $2
		 WHERE external_id = $3 AND status = ANY($4)
		 RETURNING `+paymentColumns,
		string(next), time.Now().UTC(), externalID, expectedStrs,
	))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domainErrors.ErrPaymentNotFound) {
		return nil, err
	}

	// No row updated: distinguish a missing record from a failed precondition.
	if _, getErr := r.GetByExternalID(ctx, externalID); getErr != nil {
		return nil, getErr
	}
	return nil, domainErrors.ErrStatusPrecondition
}

// scanPayment scans a payment from any source implementing the scanner interface.
func (r *PaymentRepository) scanPayment(s scanner) (*payment.Payment, error) {
	p := &payment.Payment{}
	var (
		amountStr string
		status    string
	)
	err := s.Scan(
		&p.ID, &p.ExternalID, &amountStr, &p.Amount.Currency,
		&status, &p.Description, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	cents, err := numericStringToCents(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	p.Amount.ValueCents = cents
	p.Status = payment.Status(status)

	return p, nil
}
