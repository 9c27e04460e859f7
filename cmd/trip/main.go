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
	"github.com/voyago/travel-booking/internal/models"
	"github.com/voyago/travel-booking/internal/services"
	"github.com/voyago/travel-booking/pkg/logger"
	"github.com/voyago/travel-booking/pkg/utils"
)

// serviceTokenTTL bounds the tokens recovery mints to cancel orphaned bookings.
const serviceTokenTTL = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logr.Sync()
	logr = logr.With(zap.String("service", "trip"))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB, cfg.DB.Name, logr)
	if err != nil {
		logr.Fatal("Failed to connect to trip store", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.MigrateTripStore(db); err != nil {
		logr.Fatal("Failed to migrate trip store", zap.Error(err))
	}

	redisClient, err := services.InitRedis(ctx, cfg.RedisURL)
	if err != nil {
		logr.Warn("Redis unavailable, using in-process trip locks", zap.Error(err))
	}

	clk := clock.NewSystem()
	var locker services.TripLocker = services.NewLocalTripLocker()
	if redisClient != nil {
		defer redisClient.Close()
		// Held for the longest a booking can take: bookings, then compensations.
		locker = services.NewRedisTripLocker(redisClient, 2*cfg.Remote.Timeout+30*time.Second, logr)
	}
	limiter := services.NewRateLimiter(redisClient, "trip", cfg.RateLimit, cfg.RateLimitWindow, clk)

	reports, err := services.NewReportStore(cfg, logr)
	if err != nil {
		logr.Fatal("Failed to initialize report storage", zap.Error(err))
	}

	push, err := services.InitFirebase(ctx, cfg.FirebaseServiceAccountPath, logr)
	if err != nil {
		logr.Warn("Firebase initialization failed, push notifications disabled", zap.Error(err))
	}

	hub := services.NewHub(logr)
	go hub.Run(ctx)

	events := services.Publishers{hub}
	if push != nil {
		events = append(events, push)
	}

	client := services.NewHTTPBookingClient(map[models.ItemType]string{
		models.ItemCar:    cfg.Remote.CarURL,
		models.ItemHotel:  cfg.Remote.HotelURL,
		models.ItemFlight: cfg.Remote.FlightURL,
	}, cfg.Remote.Timeout, "trip-service", logr)

	trips := services.NewTripStore(db, logr)
	sagas := services.NewSagaStore(db)
	booker := services.NewTripBooker(trips, sagas, client, locker, events, reports, logr)

	mintToken := func(userID string) (string, error) {
		return utils.GenerateToken(&models.User{UserID: userID}, cfg.JWTSecret, serviceTokenTTL)
	}
	recovery := services.NewSagaRecovery(trips, sagas, client, locker, mintToken, events, reports, cfg.SagaStaleAfter, clk, logr)
	go recovery.Run(ctx, cfg.SagaRecoveryInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewTripRouter(trips, sagas, booker, hub, limiter, cfg.JWTSecret, logr),
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.Remote.Timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("Graceful shutdown failed", zap.Error(err))
	}
}
