package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuriTheCoder/apipagamento/internal/bootstrap"
	"github.com/YuriTheCoder/apipagamento/internal/cache"
	"github.com/YuriTheCoder/apipagamento/internal/controller"
	"github.com/YuriTheCoder/apipagamento/internal/repository/postgres"
	"github.com/YuriTheCoder/apipagamento/internal/service"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "apipagamento-api", "apipagamento")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	paymentRepo := postgres.NewPaymentRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Services ---
	var paymentCache service.PaymentCache
	if app.Redis != nil {
		paymentCache = cache.NewPaymentCache(app.Redis, app.Config.Cache.TTL, app.Metrics, app.Logger)
	}
	paymentService := service.NewPaymentService(paymentRepo, txManager, paymentCache, app.Metrics, app.Logger)

	// --- Router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:           app.Pool,
		RedisClient:    app.Redis,
		PaymentService: paymentService,
		Metrics:        app.Metrics,
		APIKey:         app.Config.Auth.APIKey,
		RateLimitRPM:   app.Config.RateLimit.RequestsPerMinute,
		CORSConfig:     app.Config.Server.CORS,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-gctx.Done():
		}

		app.Logger.Info().Msg("Shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		app.Logger.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
	app.Logger.Info().Msg("Server exited")
}
