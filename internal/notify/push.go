package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/carelink/escort-platform/pkg/logging"
)

// PushMessage represents a push notification to be delivered to one device.
type PushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

// PushSender defines the interface for sending push notifications.
// Implementations can be swapped without changing callers.
type PushSender interface {
	SendPush(ctx context.Context, msg PushMessage) error
}

// ExpoSender delivers pushes through the Expo push HTTP API, which is what
// the mobile clients register their tokens with.
type ExpoSender struct {
	client   *http.Client
	endpoint string
	logger   *logging.Logger
}

// NewExpoSender creates a push sender for the given Expo endpoint.
func NewExpoSender(endpoint string, timeout time.Duration, logger *logging.Logger) *ExpoSender {
	if endpoint == "" {
		endpoint = "https://exp.host/--/api/v2/push/send"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ExpoSender{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		logger:   logger,
	}
}

// SendPush posts one notification to the Expo push service.
func (s *ExpoSender) SendPush(ctx context.Context, msg PushMessage) error {
	if msg.To == "" {
		return fmt.Errorf("notify: push token required")
	}
	if msg.Sound == "" {
		msg.Sound = "default"
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("notify: failed to marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("expo push send failed", "error", err, "title", msg.Title)
		return fmt.Errorf("notify: expo push send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Error("expo push returned error status", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("notify: expo push returned status %d", resp.StatusCode)
	}

	s.logger.Info("push sent via expo", "title", msg.Title, "status", resp.StatusCode)
	return nil
}

// StubPushSender is a no-op sender for testing or when push is disabled.
type StubPushSender struct {
	logger *logging.Logger
}

// NewStubPushSender creates a stub push sender that logs but doesn't send.
func NewStubPushSender(logger *logging.Logger) *StubPushSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubPushSender{logger: logger}
}

// SendPush logs the push but doesn't actually send it.
func (s *StubPushSender) SendPush(ctx context.Context, msg PushMessage) error {
	s.logger.Info("stub push sender: would send", "to", msg.To, "title", msg.Title)
	return nil
}

// Ensure interface compliance
var _ PushSender = (*ExpoSender)(nil)
var _ PushSender = (*StubPushSender)(nil)
