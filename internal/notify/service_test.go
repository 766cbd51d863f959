package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/carelink/escort-platform/internal/escort"
	"github.com/carelink/escort-platform/internal/users"
	"github.com/carelink/escort-platform/pkg/logging"
)

// Mock implementations

type mockPushSender struct {
	sent    []PushMessage
	failOn  string // fail if To matches this
	callErr error
}

func (m *mockPushSender) SendPush(ctx context.Context, msg PushMessage) error {
	if m.callErr != nil {
		return m.callErr
	}
	if m.failOn != "" && msg.To == m.failOn {
		return errors.New("mock push error")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockEmailSender struct {
	sent    []EmailMessage
	callErr error
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if m.callErr != nil {
		return m.callErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockTokenSource struct {
	tokens map[string]string
	err    error
}

func (m *mockTokenSource) GetPushToken(ctx context.Context, userID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	token, ok := m.tokens[userID]
	if !ok {
		return "", users.ErrNotFound
	}
	if token == "" {
		return "", users.ErrNoPushToken
	}
	return token, nil
}

type recordingLocalNotifier struct {
	titles []string
}

func (r *recordingLocalNotifier) Notify(ctx context.Context, title, body string, data map[string]string) {
	r.titles = append(r.titles, title)
}

func fixtureMatch() (*escort.Request, *escort.Availability) {
	req := &escort.Request{
		ID:       "req-1",
		UserID:   "patient-1",
		Date:     "2025-11-10",
		Time:     "09:30",
		Hospital: "General Hospital",
		Status:   escort.RequestStatusMatched,
	}
	avail := &escort.Availability{
		ID:            "avail-1",
		ProviderID:    "provider-1",
		ProviderEmail: "volunteer@example.org",
		Date:          "2025-11-10",
		FromTime:      "09:00",
		ToTime:        "12:00",
		Location:      "General Hospital",
		Status:        escort.AvailabilityStatusMatched,
	}
	return req, avail
}

func TestNotifyMatch_AllChannels(t *testing.T) {
	push := &mockPushSender{}
	email := &mockEmailSender{}
	local := &recordingLocalNotifier{}
	tokens := &mockTokenSource{tokens: map[string]string{
		"patient-1":  "ExponentPushToken[patient]",
		"provider-1": "ExponentPushToken[provider]",
	}}
	svc := NewService(push, email, local, tokens, logging.Default())

	req, avail := fixtureMatch()
	if err := svc.NotifyMatch(context.Background(), "req-1", req, "avail-1", avail); err != nil {
		t.Fatalf("NotifyMatch returned error: %v", err)
	}

	if len(push.sent) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(push.sent))
	}
	if push.sent[0].To != "ExponentPushToken[patient]" {
		t.Fatalf("expected patient push first, got %s", push.sent[0].To)
	}
	if !strings.Contains(push.sent[0].Body, "General Hospital") || !strings.Contains(push.sent[0].Body, "2025-11-10") {
		t.Fatalf("patient push missing hospital/date: %s", push.sent[0].Body)
	}
	if !strings.Contains(push.sent[1].Body, "09:30") {
		t.Fatalf("provider push missing request time: %s", push.sent[1].Body)
	}
	if push.sent[0].Data["requestId"] != "req-1" || push.sent[0].Data["availabilityId"] != "avail-1" {
		t.Fatalf("push data missing cross-references: %v", push.sent[0].Data)
	}

	if len(email.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(email.sent))
	}
	if email.sent[0].To != "volunteer@example.org" {
		t.Fatalf("unexpected email recipient %s", email.sent[0].To)
	}

	if len(local.titles) != 1 {
		t.Fatalf("expected 1 local notification, got %d", len(local.titles))
	}
}

func TestNotifyMatch_MissingTokenIsNotAnError(t *testing.T) {
	push := &mockPushSender{}
	local := &recordingLocalNotifier{}
	tokens := &mockTokenSource{tokens: map[string]string{
		"provider-1": "ExponentPushToken[provider]",
	}}
	svc := NewService(push, nil, local, tokens, logging.Default())

	req, avail := fixtureMatch()
	if err := svc.NotifyMatch(context.Background(), "req-1", req, "avail-1", avail); err != nil {
		t.Fatalf("missing patient token should not fail NotifyMatch: %v", err)
	}

	if len(push.sent) != 1 {
		t.Fatalf("expected only the provider push, got %d", len(push.sent))
	}
	if len(local.titles) != 1 {
		t.Fatal("local confirmation must still fire")
	}
}

func TestNotifyMatch_PushFailureReported(t *testing.T) {
	push := &mockPushSender{failOn: "ExponentPushToken[patient]"}
	local := &recordingLocalNotifier{}
	tokens := &mockTokenSource{tokens: map[string]string{
		"patient-1":  "ExponentPushToken[patient]",
		"provider-1": "ExponentPushToken[provider]",
	}}
	svc := NewService(push, nil, local, tokens, logging.Default())

	req, avail := fixtureMatch()
	err := svc.NotifyMatch(context.Background(), "req-1", req, "avail-1", avail)
	if err == nil {
		t.Fatal("expected an aggregate error when a push fails")
	}
	if !strings.Contains(err.Error(), "1 notification(s) failed") {
		t.Fatalf("unexpected error: %v", err)
	}

	// Provider push and local confirmation still go out.
	if len(push.sent) != 1 {
		t.Fatalf("expected the provider push to survive, got %d sends", len(push.sent))
	}
	if len(local.titles) != 1 {
		t.Fatal("local confirmation must fire despite push failure")
	}
}

func TestNotifyMatch_NoEmailWithoutProviderAddress(t *testing.T) {
	email := &mockEmailSender{}
	svc := NewService(nil, email, &recordingLocalNotifier{}, nil, logging.Default())

	req, avail := fixtureMatch()
	avail.ProviderEmail = ""
	if err := svc.NotifyMatch(context.Background(), "req-1", req, "avail-1", avail); err != nil {
		t.Fatalf("NotifyMatch returned error: %v", err)
	}
	if len(email.sent) != 0 {
		t.Fatalf("expected no email, got %d", len(email.sent))
	}
}
