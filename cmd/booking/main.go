package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking/internal/clock"
	"github.com/voyago/travel-booking/internal/config"
	"github.com/voyago/travel-booking/internal/database"
	"github.com/voyago/travel-booking/internal/handlers"
	"github.com/voyago/travel-booking/internal/services"
	"github.com/voyago/travel-booking/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Domain == "" {
		log.Fatal("BOOKING_DOMAIN must be one of car, hotel, flight")
	}

	logr, err := logger.New(cfg.Env, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logr.Sync()
	logr = logr.With(zap.String("service", cfg.Domain.Slug()+"-booking"))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	domainDB, err := database.Open(cfg.DB, cfg.DB.Name, logr)
	if err != nil {
		logr.Fatal("Failed to connect to booking store", zap.Error(err))
	}
	defer database.Close(domainDB)

	ledgerDB, err := database.Open(cfg.DB, cfg.LedgerDBName, logr)
	if err != nil {
		logr.Fatal("Failed to connect to ledger store", zap.Error(err))
	}
	defer database.Close(ledgerDB)

	if err := database.MigrateBookingStore(domainDB, cfg.Domain); err != nil {
		logr.Fatal("Failed to migrate booking store", zap.Error(err))
	}
	if err := database.MigrateLedger(ledgerDB); err != nil {
		logr.Fatal("Failed to migrate ledger store", zap.Error(err))
	}

	redisClient, err := services.InitRedis(ctx, cfg.RedisURL)
	if err != nil {
		logr.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	reports, err := services.NewReportStore(cfg, logr)
	if err != nil {
		logr.Fatal("Failed to initialize report storage", zap.Error(err))
	}

	clk := clock.NewSystem()
	store := services.NewBookingStore(domainDB, ledgerDB, cfg.Domain, clk, logr)
	limiter := services.NewRateLimiter(redisClient, cfg.Domain.Slug()+"-booking", cfg.RateLimit, cfg.RateLimitWindow, clk)

	reconciler := services.NewLedgerReconciler(domainDB, ledgerDB, cfg.Domain, cfg.ReconcileGrace, clk, reports, logr)
	go reconciler.Run(ctx, cfg.ReconcileInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewBookingRouter(store, limiter, cfg.JWTSecret, logr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("Graceful shutdown failed", zap.Error(err))
	}
}
