package controller

import (
	"time"

	"github.com/YuriTheCoder/apipagamento/internal/infrastructure/config"
	"github.com/YuriTheCoder/apipagamento/internal/infrastructure/observability"
	customMW "github.com/YuriTheCoder/apipagamento/internal/middleware"
	"github.com/YuriTheCoder/apipagamento/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	Pool           *pgxpool.Pool
	RedisClient    *redis.Client
	PaymentService *service.PaymentService
	Metrics        *observability.Metrics
	APIKey         string
	RateLimitRPM   int
	CORSConfig     config.CORSConfig
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", customMW.APIKeyHeader},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.SecurityHeaders())
	r.Use(customMW.RateLimit(deps.RateLimitRPM))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	paymentH := NewPaymentController(deps.PaymentService)

	// Health and metrics live outside the API prefix and are the
	// allowlist for the shared-secret check.
	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(customMW.APIKey(deps.APIKey))

		r.Post("/payments", paymentH.CreatePayment)
		r.Get("/payments", paymentH.ListPayments)
		r.Get("/payments/{externalId}", paymentH.GetPayment)
		r.Patch("/payments/{externalId}/status", paymentH.UpdateStatus)
		r.Post("/payments/{externalId}/refund", paymentH.RefundPayment)
	})

	return r
}
