// Package main is the entry point for the scheduled-job runner.
//
// The runner polls the job store for due deferred events and reminders, and
// republishes each onto the SQS event queue. The notification worker then
// processes the redelivered message exactly like a fresh callback.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"casenotify/internal/config"
	"casenotify/internal/db"
	"casenotify/internal/queue"
	"casenotify/internal/scheduler"
	"casenotify/internal/types"
)

type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{}))
	typedLogger := &slogAdapter{logger: logger}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("loading AWS SDK config: %w", err)
	}

	pool, err := db.Connect(ctx, cfg.DB.URL)
	if err != nil {
		return fmt.Errorf("connecting to job store: %w", err)
	}
	defer pool.Close()

	publisher := queue.NewEventPublisher(sqs.NewFromConfig(awsCfg), cfg.AWS.EventQueueURL, typedLogger)
	runner := scheduler.NewRunner(
		db.NewScheduledJobRepository(pool),
		publisher,
		types.RealClock{},
		typedLogger,
		cfg.Runner.BatchSize,
		cfg.Runner.PollInterval,
	)

	logger.Info("job runner starting",
		"poll_interval", cfg.Runner.PollInterval.String(),
		"batch_size", cfg.Runner.BatchSize,
	)

	return runner.Run(ctx)
}
