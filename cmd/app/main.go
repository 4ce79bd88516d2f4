// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coupon-lifecycle-engine/internal/config"
	"coupon-lifecycle-engine/internal/infra/api"
	apiv1 "coupon-lifecycle-engine/internal/infra/api/apiv1"
	pg "coupon-lifecycle-engine/internal/infra/db/postgres"
	"coupon-lifecycle-engine/internal/infra/logging"
	"coupon-lifecycle-engine/internal/infra/metrics"
	red "coupon-lifecycle-engine/internal/infra/redis"
	"coupon-lifecycle-engine/internal/infra/sched"
	"coupon-lifecycle-engine/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.MaxConns))
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	txm := pg.NewTxManager(pool)
	bookRepo := pg.NewBookRepoCacheDecorator(pg.NewCouponBookRepo(pool), redisClient, cfg.Redis.TTL)
	codeRepo := pg.NewCouponCodeRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	assignmentRepo := pg.NewAssignmentRepo(pool)
	redemptionRepo := pg.NewRedemptionRepo(pool)

	// ---- Use cases ----
	bookUC := usecase.NewBookUseCase(bookRepo, codeRepo, txm)
	assignUC := usecase.NewAssignmentUseCase(userRepo, bookRepo, codeRepo, assignmentRepo, txm)
	lockUC := usecase.NewLockUseCase(codeRepo, txm, usecase.NewLockPolicy(cfg.Lock.DefaultTTL))
	redeemUC := usecase.NewRedemptionUseCase(bookRepo, codeRepo, redemptionRepo, txm)

	// ---- HTTP server ----
	r := chi.NewRouter()
	r.Use(
		api.TraceID(logger),
		api.Identity(),
		api.RequestLog(logger),
		api.Recover(logger),
		api.Timeout(cfg.API.RequestTimeout),
		api.RateLimit(rateLimiter, cfg.API.RateLimit, cfg.API.RateLimitWindow, logger),
	)
	srv := apiv1.NewServer(bookUC, assignUC, lockUC, redeemUC, logger)
	apiv1.RegisterAPIV1(r, srv)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.API.Port), Handler: r}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Lock reaper ----
	reaper := sched.NewLockReaper(cfg.Reaper.Interval, lockUC, logger)
	go func() { _ = reaper.Run(ctx) }()

	// ---- Pool stats for /metrics ----
	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
