package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/carelink/escort-platform/cmd/mainconfig"
	"github.com/carelink/escort-platform/internal/config"
	auditworker "github.com/carelink/escort-platform/internal/worker/audit"
	"github.com/carelink/escort-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MatchEventsQueueURL == "" {
		logger.Error("audit worker requires MATCH_EVENTS_QUEUE_URL")
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	worker := auditworker.NewWorker(
		sqs.NewFromConfig(awsCfg),
		cfg.MatchEventsQueueURL,
		auditworker.NewLogRecorder(logger),
		logger,
	)
	go worker.Run(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("audit worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
}
