package auditworker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/carelink/escort-platform/internal/events"
	"github.com/carelink/escort-platform/pkg/logging"
)

type sqsAPI interface {
	ReceiveMessage(context.Context, *sqs.ReceiveMessageInput, ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(context.Context, *sqs.DeleteMessageInput, ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Recorder persists one match event into the audit projection.
type Recorder interface {
	RecordMatch(ctx context.Context, envelope events.Envelope, evt events.EscortMatchedV1) error
}

// LogRecorder writes the audit trail to the structured log. It is the default
// projection when no durable sink is configured.
type LogRecorder struct {
	logger *logging.Logger
}

// NewLogRecorder creates a log-backed recorder.
func NewLogRecorder(logger *logging.Logger) *LogRecorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogRecorder{logger: logger}
}

// RecordMatch logs one match event.
func (r *LogRecorder) RecordMatch(ctx context.Context, envelope events.Envelope, evt events.EscortMatchedV1) error {
	r.logger.Info("match recorded",
		"event_id", envelope.EventID,
		"request_id", evt.RequestID,
		"availability_id", evt.AvailabilityID,
		"user_id", evt.UserID,
		"provider_id", evt.ProviderID,
		"date", evt.Date,
		"matched_at", evt.MatchedAt,
	)
	return nil
}

// Worker consumes the match event queue and feeds the audit projection.
type Worker struct {
	client   sqsAPI
	queueURL string
	recorder Recorder
	logger   *logging.Logger

	maxMessages int32
	waitSeconds int32
	idleBackoff time.Duration
}

// NewWorker creates an audit worker.
func NewWorker(client sqsAPI, queueURL string, recorder Recorder, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	if recorder == nil {
		recorder = NewLogRecorder(logger)
	}
	return &Worker{
		client:      client,
		queueURL:    queueURL,
		recorder:    recorder,
		logger:      logger,
		maxMessages: 10,
		waitSeconds: 20,
		idleBackoff: 5 * time.Second,
	}
}

// Run polls the queue until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("audit worker started", "queue", w.queueURL)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("audit worker stopped")
			return
		default:
		}

		processed, err := w.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error("audit worker poll failed", "error", err)
			select {
			case <-time.After(w.idleBackoff):
			case <-ctx.Done():
			}
			continue
		}
		if processed == 0 {
			// Long polling already waited; loop straight back around.
			continue
		}
	}
}

// Poll receives one batch and processes it. Returns the number of messages
// handled, including ones that were skipped as malformed.
func (w *Worker) Poll(ctx context.Context) (int, error) {
	out, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(w.queueURL),
		MaxNumberOfMessages: w.maxMessages,
		WaitTimeSeconds:     w.waitSeconds,
	})
	if err != nil {
		return 0, err
	}

	for _, msg := range out.Messages {
		if err := w.handle(ctx, aws.ToString(msg.Body)); err != nil {
			// Leave the message on the queue so SQS redelivers it.
			w.logger.Error("audit worker failed to record event", "error", err, "message_id", aws.ToString(msg.MessageId))
			continue
		}
		if _, err := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(w.queueURL),
			ReceiptHandle: msg.ReceiptHandle,
		}); err != nil {
			w.logger.Error("audit worker failed to delete message", "error", err, "message_id", aws.ToString(msg.MessageId))
		}
	}

	return len(out.Messages), nil
}

func (w *Worker) handle(ctx context.Context, body string) error {
	var envelope events.Envelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		// Malformed messages would redeliver forever; log and drop.
		w.logger.Warn("audit worker dropping undecodable message", "error", err)
		return nil
	}

	switch envelope.EventType {
	case events.TypeEscortMatchedV1:
		var evt events.EscortMatchedV1
		if err := json.Unmarshal(envelope.Payload, &evt); err != nil {
			w.logger.Warn("audit worker dropping malformed match event", "error", err, "event_id", envelope.EventID)
			return nil
		}
		return w.recorder.RecordMatch(ctx, envelope, evt)
	default:
		w.logger.Debug("audit worker ignoring event type", "event_type", envelope.EventType, "event_id", envelope.EventID)
		return nil
	}
}
