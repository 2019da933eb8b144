// Package main is the entry point for the Cipelem village complaint portal
// server. Residents file complaints and follow them by ticket id; village
// staff triage, answer and resolve them through a JWT-protected REST API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cipelem/pengaduan-server/internal/config"
	"github.com/cipelem/pengaduan-server/internal/database"
	"github.com/cipelem/pengaduan-server/internal/handlers"
	"github.com/cipelem/pengaduan-server/internal/middleware"
	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/cipelem/pengaduan-server/internal/notify"
	"github.com/cipelem/pengaduan-server/internal/services"
	"github.com/cipelem/pengaduan-server/internal/store"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting Cipelem complaint portal",
		"port", cfg.Port,
		"env", cfg.Environment,
		"database", cfg.DatabaseURL != "",
		"redis", cfg.RedisURL != "",
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Storage: PostgreSQL when configured, in-memory otherwise
	var st store.Store
	if cfg.DatabaseURL != "" {
		db, err := database.NewPool(ctx, cfg.DatabaseURL, database.DefaultPoolOptions)
		if err != nil {
			sugar.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			sugar.Fatalf("Failed to migrate database: %v", err)
		}
		st = database.NewPostgresStore(db)
	} else {
		sugar.Warn("DATABASE_URL not set, using the in-memory store; data is lost on restart")
		st = store.NewMemory()
	}

	// Redis: live notification fan-out and shared rate limiting
	var (
		rdb        *redis.Client
		publisher  notify.Publisher = notify.Discard{}
		subscriber handlers.Subscriber
		redisPing  handlers.Pinger
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			sugar.Fatalf("Invalid REDIS_URL: %v", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			sugar.Warnw("Redis unreachable at startup, notifications will not be pushed live", "error", err)
		}
		publisher = notify.NewRedisPublisher(rdb)
		subscriber = func(ctx context.Context, email string) (<-chan models.Notification, error) {
			return notify.Subscribe(ctx, rdb, email)
		}
		redisPing = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	// Services
	activitySvc := services.NewActivityLogService(st, sugar)
	complaintSvc := services.NewComplaintService(st, publisher, activitySvc, sugar)
	categorySvc := services.NewCategoryService(st, sugar)
	authSvc := services.NewAuthService(st, cfg.JWTSecret, cfg.JWTTTL, cfg.StaffSecretCode, sugar)
	userSvc := services.NewUserService(st, authSvc, sugar)
	notificationSvc := services.NewNotificationService(st, st, sugar)
	integritySvc := services.NewIntegrityService(sugar)
	integrityWorker := services.NewIntegrityWorker(integritySvc, st, sugar)

	go integrityWorker.Start(ctx, cfg.IntegrityRebuildInterval)

	api := handlers.API{
		Health:       handlers.NewHealthHandler(st, redisPing, sugar),
		Complaint:    handlers.NewComplaintHandler(complaintSvc, sugar),
		Category:     handlers.NewCategoryHandler(categorySvc, sugar),
		Auth:         handlers.NewAuthHandler(authSvc, sugar),
		User:         handlers.NewUserHandler(userSvc, sugar),
		Notification: handlers.NewNotificationHandler(notificationSvc, subscriber, allowOrigin(cfg.AllowedOrigins), sugar),
		Activity:     handlers.NewActivityHandler(activitySvc, sugar),
		Integrity:    handlers.NewIntegrityHandler(integritySvc, sugar),
		Authenticate: authSvc.Authenticate,
		Timeout:      30 * time.Second,
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if rdb != nil {
		r.Use(middleware.RedisRateLimit(rdb, cfg.RateLimitRPM, sugar))
	} else {
		r.Use(middleware.RateLimit(cfg.RateLimitRPM))
	}

	r.Mount("/api/v1", api.Routes())

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	// hijacked websocket streams are not drained by Shutdown
	srv.RegisterOnShutdown(api.Notification.Shutdown)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Forced shutdown", "error", err)
	}
	// background work stops only after in-flight requests have drained
	stop()

	sugar.Info("Server stopped")
}

// allowOrigin checks websocket handshakes against the CORS allow list
func allowOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}
