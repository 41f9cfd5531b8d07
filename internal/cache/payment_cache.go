package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/YuriTheCoder/apipagamento/internal/domain/payment"
	"github.com/YuriTheCoder/apipagamento/internal/infrastructure/observability"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const keyPrefix = "payment:"

// PaymentCache is a read-through Redis cache for payment lookups. Every
// Redis call goes through a circuit breaker; an open breaker or a Redis
// error degrades to a cache miss, keeping the store authoritative.
type PaymentCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewPaymentCache creates a new PaymentCache.
func NewPaymentCache(client *redis.Client, ttl time.Duration, metrics *observability.Metrics, logger zerolog.Logger) *PaymentCache {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "payment-cache",
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
	})

	return &PaymentCache{
		client:  client,
		ttl:     ttl,
		breaker: breaker,
		metrics: metrics,
		logger:  logger,
	}
}

// cachedPayment is the Redis serialization of a payment.
type cachedPayment struct {
	ID          uuid.UUID      `json:"id"`
	ExternalID  string         `json:"external_id"`
	AmountCents int64          `json:"amount_cents"`
	Currency    string         `json:"currency"`
	Status      payment.Status `json:"status"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Get returns the cached payment for the external id, or ok=false on a miss.
func (c *PaymentCache) Get(ctx context.Context, externalID string) (*payment.Payment, bool) {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		b, err := c.client.Get(ctx, keyPrefix+externalID).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		c.countResult(err)
		return nil, false
	}
	if len(data) == 0 {
		c.count("miss")
		return nil, false
	}

	var cached cachedPayment
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn().Err(err).Str("external_id", externalID).Msg("discarding undecodable cache entry")
		c.Invalidate(ctx, externalID)
		return nil, false
	}

	c.count("hit")
	return &payment.Payment{
		ID:          cached.ID,
		ExternalID:  cached.ExternalID,
		Amount:      payment.Amount{ValueCents: cached.AmountCents, Currency: cached.Currency},
		Description: cached.Description,
		Status:      cached.Status,
		CreatedAt:   cached.CreatedAt,
		UpdatedAt:   cached.UpdatedAt,
	}, true
}

// Set stores the payment under its external id. Failures are logged, not returned:
// the cache is best-effort.
func (c *PaymentCache) Set(ctx context.Context, p *payment.Payment) {
	data, err := json.Marshal(cachedPayment{
		ID:          p.ID,
		ExternalID:  p.ExternalID,
		AmountCents: p.Amount.ValueCents,
		Currency:    p.Amount.Currency,
		Status:      p.Status,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("marshal payment for cache")
		return
	}

	if _, err := c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, keyPrefix+p.ExternalID, data, c.ttl).Err()
	}); err != nil {
		c.logger.Debug().Err(err).Str("external_id", p.ExternalID).Msg("cache set skipped")
	}
}

// Invalidate drops the cache entry for the external id.
func (c *PaymentCache) Invalidate(ctx context.Context, externalID string) {
	if _, err := c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Del(ctx, keyPrefix+externalID).Err()
	}); err != nil {
		c.logger.Debug().Err(err).Str("external_id", externalID).Msg("cache invalidate skipped")
	}
}

func (c *PaymentCache) countResult(err error) {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.count("open")
		return
	}
	c.count("error")
}

func (c *PaymentCache) count(result string) {
	if c.metrics != nil {
		c.metrics.CacheRequests.WithLabelValues(result).Inc()
	}
}
