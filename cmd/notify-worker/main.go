// Package main is the entrypoint for the notification worker Lambda.
//
// The worker consumes case event messages from the event SQS queue and runs
// each through the notification pipeline: trigger remap, validity gate,
// business-hours gate, recipient resolution, per-candidate dispatch, and
// reminder planning. It uses the SQS Lambda handler pattern where each
// invocation receives a batch of messages and reports per-message failures.
//
// Cold start wiring:
//  1. Load configuration from the environment.
//  2. Initialize the structured logger.
//  3. Load the AWS SDK configuration and service clients (SES, SNS, SQS,
//     CloudWatch).
//  4. Connect to the scheduler job store and build the scheduler bridge.
//  5. Load the template registry.
//  6. Assemble the dispatcher and service, register the handler, and call
//     lambda.Start.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"casenotify/internal/config"
	"casenotify/internal/db"
	"casenotify/internal/external"
	"casenotify/internal/notifications"
	"casenotify/internal/notifications/core"
	"casenotify/internal/notifications/letter"
	"casenotify/internal/scheduler"
	"casenotify/internal/types"
)

// slogAdapter wraps *slog.Logger to implement the types.Logger interface.
// slog.Logger satisfies Info, Error, and Warn directly but its With returns
// *slog.Logger, not types.Logger, so an adapter is necessary.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}

// Handler holds the worker Lambda dependencies.
type Handler struct {
	service *core.Service
	logger  types.Logger
}

// Handle processes a batch of SQS records. Each record is handled
// independently; records whose processing fails are reported as partial
// batch failures so SQS redelivers only those.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{}

	for _, record := range sqsEvent.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process SQS message",
				"message_id", record.MessageId,
				"error", err.Error(),
			)
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId},
			)
		}
	}

	return response, nil
}

func (h *Handler) processRecord(ctx context.Context, record events.SQSMessage) error {
	var msg types.EventMessage
	if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
		// Permanent parse failure; redelivery cannot fix it. ACK by
		// returning nil.
		h.logger.Error("failed to unmarshal event message",
			"message_id", record.MessageId,
			"error", err.Error(),
		)
		return nil
	}

	ctx = types.WithRequestID(ctx, msg.TraceID)
	return h.service.Handle(ctx, msg)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.App.LogLevel),
	}))
	typedLogger := &slogAdapter{logger: logger}

	logger.Info("notification worker initializing (cold start)")

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}

	registry, err := notifications.LoadRegistry(cfg.Dispatch.TemplatesPath)
	if err != nil {
		logger.Error("failed to load template registry", "error", err)
		os.Exit(1)
	}

	pool, err := db.Connect(ctx, cfg.DB.URL)
	if err != nil {
		logger.Error("failed to connect to job store", "error", err)
		os.Exit(1)
	}

	clock := types.RealClock{}
	httpClient := &http.Client{Timeout: 15 * time.Second}

	emailSender := external.NewSESEmailSender(awsCfg, cfg.Providers.EmailFrom, cfg.Providers.EmailConfigSet, typedLogger)
	smsSender := external.NewSNSSmsSender(awsCfg, cfg.Providers.SMSSenderID, registry.SMSBodies(), typedLogger)
	letterClient := external.NewLetterClient(httpClient, cfg.Providers.LetterProviderURL, cfg.Providers.APIKey, typedLogger)
	docStore := external.NewDocStoreClient(httpClient, cfg.Providers.DocumentStoreURL, cfg.Providers.APIKey)

	metrics := core.NewCloudWatchMetrics(cloudwatch.NewFromConfig(awsCfg), typedLogger)
	bundler := letter.NewBundler(docStore, typedLogger)
	dispatcher := core.NewDispatcher(
		emailSender, smsSender, letterClient, letterClient,
		bundler, registry, metrics, clock, typedLogger,
		core.WithMaxAttempts(cfg.Dispatch.MaxAttempts),
	)

	hours, err := core.NewHoursGate(cfg.Hours, clock)
	if err != nil {
		logger.Error("failed to build business-hours gate", "error", err)
		os.Exit(1)
	}

	bridge := scheduler.NewBridge(db.NewScheduledJobRepository(pool), typedLogger)
	planner := scheduler.NewPlanner(bridge, clock, cfg.Reminders, typedLogger)

	service := core.NewService(core.ServiceParams{
		Resolver:   core.NewResolver(typedLogger),
		Validity:   core.NewValidityGate(clock, typedLogger),
		Hours:      hours,
		Dispatcher: dispatcher,
		Reconciler: core.NewReconciler(dispatcher, registry, typedLogger),
		Reminders:  planner,
		Templates:  registry,
		Scheduler:  bridge,
		Metrics:    metrics,
		Logger:     typedLogger,
		Workers:    cfg.Dispatch.Workers,
	})

	handler := &Handler{service: service, logger: typedLogger}

	logger.Info("notification worker initialized",
		"event_queue", cfg.AWS.EventQueueURL,
		"workers", cfg.Dispatch.Workers,
	)

	// Local mode: read a JSON SQS event from stdin instead of starting the
	// Lambda runtime. Enables local integration testing without the RIE.
	if cfg.App.Env == "local" {
		runLocal(ctx, handler, logger)
		return
	}

	lambda.Start(handler.Handle)
}

// runLocal executes the handler once against an SQS event read from stdin.
func runLocal(ctx context.Context, handler *Handler, logger *slog.Logger) {
	logger.Info("local mode: reading SQS event from stdin")
	payload, err := io.ReadAll(os.Stdin)
	if err != nil {
		logger.Error("failed to read stdin", "error", err)
		os.Exit(1)
	}
	var sqsEvent events.SQSEvent
	if err := json.Unmarshal(payload, &sqsEvent); err != nil {
		logger.Error("failed to parse stdin as SQS event", "error", err)
		os.Exit(1)
	}
	response, err := handler.Handle(ctx, sqsEvent)
	if err != nil {
		logger.Error("handler execution failed", "error", err)
		os.Exit(1)
	}
	logger.Info("handler execution completed",
		"records_processed", len(sqsEvent.Records),
		"failures", len(response.BatchItemFailures),
	)
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Compile-time assertion that slogAdapter implements types.Logger.
var _ types.Logger = (*slogAdapter)(nil)
