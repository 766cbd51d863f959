package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/carelink/escort-platform/internal/escort"
	"github.com/carelink/escort-platform/internal/users"
	"github.com/carelink/escort-platform/pkg/logging"
)

// TokenSource looks up the push token registered on a user's profile.
type TokenSource interface {
	GetPushToken(ctx context.Context, userID string) (string, error)
}

// Service fans out match announcements to both parties.
type Service struct {
	push   PushSender
	email  EmailSender
	local  LocalNotifier
	tokens TokenSource
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(push PushSender, email EmailSender, local LocalNotifier, tokens TokenSource, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if local == nil {
		local = NewLogLocalNotifier(logger)
	}
	return &Service{
		push:   push,
		email:  email,
		local:  local,
		tokens: tokens,
		logger: logger,
	}
}

// NotifyMatch announces a committed match: a push to the patient, a push and
// an email to the provider, and one unconditional local confirmation. Every
// delivery is best-effort; a missing push token is informational, not an
// error.
func (s *Service) NotifyMatch(ctx context.Context, requestID string, req *escort.Request, availabilityID string, avail *escort.Availability) error {
	var errs []error

	data := map[string]string{
		"requestId":      requestID,
		"availabilityId": availabilityID,
	}

	if err := s.pushTo(ctx, req.UserID, PushMessage{
		Title: "Escort Found!",
		Body:  fmt.Sprintf("An escort has been found for your visit to %s on %s.", req.Hospital, req.Date),
		Data:  data,
	}); err != nil {
		errs = append(errs, err)
	}

	if err := s.pushTo(ctx, avail.ProviderID, PushMessage{
		Title: "New Escort Assignment",
		Body:  fmt.Sprintf("You've been assigned to accompany a patient at %s on %s at %s.", req.Hospital, req.Date, req.Time),
		Data:  data,
	}); err != nil {
		errs = append(errs, err)
	}

	if s.email != nil && avail.ProviderEmail != "" {
		msg := EmailMessage{
			To:      avail.ProviderEmail,
			Subject: "New escort assignment",
			Body: fmt.Sprintf(`You have been matched with a patient.

Hospital: %s
Date: %s
Time: %s
Your coverage window: %s - %s

Please be at the hospital entrance a few minutes early.

— CareLink Escort`, req.Hospital, req.Date, req.Time, avail.FromTime, avail.ToTime),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send assignment email", "error", err, "to", avail.ProviderEmail)
			errs = append(errs, err)
		} else {
			s.logger.Info("notify: assignment email sent", "to", avail.ProviderEmail, "request_id", requestID)
		}
	}

	// The local confirmation fires regardless of how the remote sends fared.
	s.local.Notify(ctx, "Match confirmed",
		fmt.Sprintf("Request %s matched with availability %s.", requestID, availabilityID), data)

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d notification(s) failed", len(errs))
	}
	return nil
}

func (s *Service) pushTo(ctx context.Context, userID string, msg PushMessage) error {
	if s.push == nil || s.tokens == nil {
		s.logger.Debug("notify: push not configured, skipping", "user_id", userID)
		return nil
	}

	token, err := s.tokens.GetPushToken(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) || errors.Is(err, users.ErrNoPushToken) {
			s.logger.Info("notify: no push token for user, skipping push", "user_id", userID)
			return nil
		}
		s.logger.Error("notify: failed to look up push token", "error", err, "user_id", userID)
		return err
	}

	msg.To = token
	if err := s.push.SendPush(ctx, msg); err != nil {
		s.logger.Error("notify: failed to send push", "error", err, "user_id", userID)
		return err
	}
	s.logger.Info("notify: push sent", "user_id", userID, "title", msg.Title)
	return nil
}
