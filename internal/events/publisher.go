package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/carelink/escort-platform/pkg/logging"
)

type sqsAPI interface {
	SendMessage(context.Context, *sqs.SendMessageInput, ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher delivers match events to the audit queue.
type Publisher struct {
	client   sqsAPI
	queueURL string
	logger   *logging.Logger
}

// NewPublisher creates a publisher. A missing queue URL disables publishing
// (the caller gets nil and should skip wiring).
func NewPublisher(client sqsAPI, queueURL string, logger *logging.Logger) *Publisher {
	if client == nil || queueURL == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// PublishMatched enqueues one match event.
func (p *Publisher) PublishMatched(ctx context.Context, evt EscortMatchedV1) error {
	envelope, err := Wrap(evt)
	if err != nil {
		return err
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("events: failed to marshal envelope: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("events: failed to publish match event: %w", err)
	}

	p.logger.Debug("match event published", "event_id", envelope.EventID, "request_id", evt.RequestID)
	return nil
}
