package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/medimeet/platform/cmd/mainconfig"
	"github.com/medimeet/platform/internal/api/router"
	"github.com/medimeet/platform/internal/appointments"
	"github.com/medimeet/platform/internal/availability"
	appconfig "github.com/medimeet/platform/internal/config"
	"github.com/medimeet/platform/internal/credits"
	"github.com/medimeet/platform/internal/notify"
	"github.com/medimeet/platform/internal/observability/metrics"
	"github.com/medimeet/platform/internal/reports"
	"github.com/medimeet/platform/internal/schedule"
	"github.com/medimeet/platform/internal/users"
	"github.com/medimeet/platform/internal/video"
	"github.com/medimeet/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting medimeet API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.AuthJWTSecret == "" {
		logger.Error("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Separate database/sql handle for the reporting queries.
	reportsDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open reports db", "error", err)
		os.Exit(1)
	}
	defer func() { _ = reportsDB.Close() }()

	var slotCache *schedule.Cache
	if cfg.SlotCacheEnabled {
		redisOpts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, slot caching disabled", "error", err)
		} else {
			slotCache = schedule.NewCache(redisClient, cfg.SlotCacheTTL, logger)
		}
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)
	creditMetrics := metrics.NewCreditMetrics(nil)
	scheduleMetrics := metrics.NewScheduleMetrics(nil)

	usersRepo := users.NewRepository(pool)
	creditsRepo := credits.NewRepository(pool)
	availabilityRepo := availability.NewRepository(pool)
	appointmentsRepo := appointments.NewRepository(pool)

	ledger := credits.NewLedger(creditsRepo, creditMetrics, logger)

	scheduleService := schedule.NewService(
		availabilityRepo, appointmentsRepo, slotCache, scheduleMetrics,
		cfg.HorizonDays, cfg.SlotMinutes, logger,
	)

	var sessions appointments.SessionCreator
	if cfg.VideoAPIKey != "" && cfg.VideoAPISecret != "" {
		videoClient, err := video.New(video.Config{
			BaseURL:   cfg.VideoAPIBaseURL,
			APIKey:    cfg.VideoAPIKey,
			APISecret: cfg.VideoAPISecret,
			Logger:    logger,
		})
		if err != nil {
			logger.Error("failed to create video client", "error", err)
			os.Exit(1)
		}
		sessions = videoClient
	} else {
		logger.Warn("video provider not configured, using stub sessions")
		sessions = video.Stub{}
	}

	emailSender := buildEmailSender(ctx, cfg, logger)
	notifier := notify.NewService(emailSender, usersRepo, logger)

	appointmentsService := appointments.NewService(
		appointmentsRepo, usersRepo, sessions, notifier, slotCache,
		bookingMetrics, logger,
	)

	usersHandler := users.NewHandler(usersRepo, ledger, logger)
	availabilityHandler := availability.NewHandler(availabilityRepo, usersRepo, slotCache, logger)
	scheduleHandler := schedule.NewHandler(scheduleService, logger)
	appointmentsHandler := appointments.NewHandler(appointmentsService, usersRepo, logger)
	dashboard := reports.NewDashboardHandler(reportsDB, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		UsersHandler:        usersHandler,
		AvailabilityHandler: availabilityHandler,
		ScheduleHandler:     scheduleHandler,
		AppointmentsHandler: appointmentsHandler,
		Dashboard:           dashboard,
		MetricsHandler:      promhttp.Handler(),
		AuthJWTSecret:       cfg.AuthJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			return sender
		}
		logger.Warn("sendgrid selected but not configured, falling back to stub sender")
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config for SES", "error", err)
			break
		}
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
		}, logger)
		if sender != nil {
			return sender
		}
	}
	return notify.NewStubEmailSender(logger)
}
