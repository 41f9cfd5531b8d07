package testutil

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/YuriTheCoder/apipagamento/internal/domain/errors"
	"github.com/YuriTheCoder/apipagamento/internal/domain/payment"
	"github.com/google/uuid"
)

// --- Payment Repository Mock ---

// MockPaymentRepository is a mock implementation of payment.Repository.
// It stores payments keyed by external id, preserving insertion order.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[string]*payment.Payment
	order    []string

	CreateFunc          func(ctx context.Context, p *payment.Payment) error
	GetByExternalIDFunc func(ctx context.Context, externalID string) (*payment.Payment, error)
	ListFunc            func(ctx context.Context) ([]*payment.Payment, error)
	UpdateFunc          func(ctx context.Context, p *payment.Payment) error
	UpdateStatusIfFunc  func(ctx context.Context, externalID string, expected []payment.Status, next payment.Status) (*payment.Payment, error)
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*payment.Payment),
	}
}

// AddPayment pre-populates the mock with a payment.
func (m *MockPaymentRepository) AddPayment(p *payment.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ExternalID] = p
	m.order = append(m.order, p.ExternalID)
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.payments[p.ExternalID]; exists {
		return domainErrors.ErrDuplicateExternalID
	}
	now := time.Now().UTC()
	p.ID = uuid.New()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.payments[p.ExternalID] = p
	m.order = append(m.order, p.ExternalID)
	return nil
}

func (m *MockPaymentRepository) GetByExternalID(ctx context.Context, externalID string) (*payment.Payment, error) {
	if m.GetByExternalIDFunc != nil {
		return m.GetByExternalIDFunc(ctx, externalID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[externalID]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	return p, nil
}

func (m *MockPaymentRepository) List(ctx context.Context) ([]*payment.Payment, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*payment.Payment, 0, len(m.order))
	for _, externalID := range m.order {
		result = append(result, m.payments[externalID])
	}
	return result, nil
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.ExternalID]; !ok {
		return domainErrors.ErrPaymentNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	m.payments[p.ExternalID] = p
	return nil
}

func (m *MockPaymentRepository) UpdateStatusIf(ctx context.Context, externalID string, expected []payment.Status, next payment.Status) (*payment.Payment, error) {
	if m.UpdateStatusIfFunc != nil {
		return m.UpdateStatusIfFunc(ctx, externalID, expected, next)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[externalID]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	for _, s := range expected {
		if p.Status == s {
			p.Status = next
			p.UpdatedAt = time.Now().UTC()
			return p, nil
		}
	}
	return nil, domainErrors.ErrStatusPrecondition
}

// --- Transaction Manager Mock ---

// MockTransactionManager is a mock transaction manager that simply invokes
// the given function.
type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Payment Cache Mock ---

// MockPaymentCache is an in-memory cache recording invalidations.
type MockPaymentCache struct {
	mu            sync.Mutex
	entries       map[string]*payment.Payment
	Invalidations []string

	GetFunc func(ctx context.Context, externalID string) (*payment.Payment, bool)
}

func NewMockPaymentCache() *MockPaymentCache {
	return &MockPaymentCache{entries: make(map[string]*payment.Payment)}
}

func (m *MockPaymentCache) Get(ctx context.Context, externalID string) (*payment.Payment, bool) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, externalID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.entries[externalID]
	return p, ok
}

func (m *MockPaymentCache) Set(ctx context.Context, p *payment.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[p.ExternalID] = p
}

func (m *MockPaymentCache) Invalidate(ctx context.Context, externalID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, externalID)
	m.Invalidations = append(m.Invalidations, externalID)
}
