package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/carelink/escort-platform/cmd/mainconfig"
	"github.com/carelink/escort-platform/internal/api/router"
	appconfig "github.com/carelink/escort-platform/internal/config"
	"github.com/carelink/escort-platform/internal/escort"
	"github.com/carelink/escort-platform/internal/events"
	"github.com/carelink/escort-platform/internal/http/handlers"
	"github.com/carelink/escort-platform/internal/matching"
	"github.com/carelink/escort-platform/internal/notify"
	obsmetrics "github.com/carelink/escort-platform/internal/observability/metrics"
	"github.com/carelink/escort-platform/internal/users"
	"github.com/carelink/escort-platform/pkg/logging"
)

func main() {
	// Load .env in local development; ignored when absent.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting escort-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// Stores
	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	requestStore := escort.NewRequestStore(dynamoClient, cfg.RequestsTable, logger)
	availabilityStore := escort.NewAvailabilityStore(dynamoClient, cfg.AvailabilityTable, logger)
	userStore := users.NewStore(dynamoClient, cfg.UsersTable, logger)

	// Match event feed (optional)
	var publisher matching.EventPublisher
	if p := events.NewPublisher(sqs.NewFromConfig(awsCfg), cfg.MatchEventsQueueURL, logger); p != nil {
		publisher = p
	}

	// Announcement guard (optional)
	var guard *matching.Guard
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		guard = matching.NewGuard(redis.NewClient(opts), cfg.MatchGuardTTL, logger)
	}

	// Notification fan-out
	var email notify.EmailSender
	switch cfg.EmailProvider {
	case "ses":
		if s := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); s != nil {
			email = s
		}
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			email = s
		}
	}
	if email == nil {
		email = notify.NewStubEmailSender(logger)
	}
	push := notify.NewExpoSender(cfg.ExpoPushURL, cfg.PushSendTimeout, logger)
	local := notify.NewLogLocalNotifier(logger)
	notifier := notify.NewService(push, email, local, userStore, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	matchMetrics := matching.NewMetrics(registry)
	httpMetrics := obsmetrics.NewHTTPMetrics(registry)

	// Matching engine
	engine := matching.NewEngine(matching.Params{
		Requests:       requestStore,
		Availability:   availabilityStore,
		Notifier:       notifier,
		Events:         publisher,
		Guard:          guard,
		Metrics:        matchMetrics,
		Logger:         logger,
		StrictLocation: cfg.StrictLocationMatch,
	})

	// Handlers and router
	escortHandler := handlers.NewEscortHandler(requestStore, availabilityStore, engine, logger)
	r := router.New(&router.Config{
		Logger:             logger,
		EscortHandler:      escortHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		HTTPMetrics:        httpMetrics,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SubmitRateLimit:    cfg.SubmitRateLimit,
		SubmitBurst:        cfg.SubmitBurst,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
