package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/carelink/escort-platform/internal/escort"
	"github.com/carelink/escort-platform/internal/events"
	"github.com/carelink/escort-platform/pkg/logging"
)

// Outcome classifies a single matching attempt.
type Outcome string

const (
	OutcomeMatched        Outcome = "matched"
	OutcomeNoMatch        Outcome = "no_match"
	OutcomeInvalidTime    Outcome = "invalid_time"
	OutcomeAlreadyMatched Outcome = "already_matched"
	OutcomeError          Outcome = "error"
)

// RequestStore is the request-side document store the engine needs.
type RequestStore interface {
	ListPendingByDate(ctx context.Context, date string) ([]escort.Request, error)
	MarkMatched(ctx context.Context, id string, match escort.RequestMatch) error
}

// AvailabilityStore is the availability-side document store the engine needs.
type AvailabilityStore interface {
	ListAvailableByDate(ctx context.Context, date string) ([]escort.Availability, error)
	MarkMatched(ctx context.Context, id string, match escort.AvailabilityMatch) error
}

// Notifier fans out match announcements to both parties.
type Notifier interface {
	NotifyMatch(ctx context.Context, requestID string, req *escort.Request, availabilityID string, avail *escort.Availability) error
}

// EventPublisher feeds the match audit projection.
type EventPublisher interface {
	PublishMatched(ctx context.Context, evt events.EscortMatchedV1) error
}

// Engine pairs escort requests with volunteer availability windows. It is
// stateless between invocations; every attempt reads fresh from the store.
type Engine struct {
	requests       RequestStore
	availability   AvailabilityStore
	notifier       Notifier
	events         EventPublisher
	guard          *Guard
	metrics        *Metrics
	tracer         trace.Tracer
	logger         *logging.Logger
	strictLocation bool
}

// Params configures a matching engine.
type Params struct {
	Requests     RequestStore
	Availability AvailabilityStore
	Notifier     Notifier
	Events       EventPublisher
	Guard        *Guard
	Metrics      *Metrics
	Tracer       trace.Tracer
	Logger       *logging.Logger

	// StrictLocation rejects candidates whose location fails the heuristic.
	// The default (false) keeps location advisory: mismatches are logged and
	// the match executes anyway.
	StrictLocation bool
}

// NewEngine builds a matching engine.
func NewEngine(p Params) *Engine {
	if p.Requests == nil {
		panic("matching: request store cannot be nil")
	}
	if p.Availability == nil {
		panic("matching: availability store cannot be nil")
	}
	if p.Tracer == nil {
		p.Tracer = otel.Tracer("carelink.internal.matching")
	}
	if p.Logger == nil {
		p.Logger = logging.Default()
	}
	return &Engine{
		requests:       p.Requests,
		availability:   p.Availability,
		notifier:       p.Notifier,
		events:         p.Events,
		guard:          p.Guard,
		metrics:        p.Metrics,
		tracer:         p.Tracer,
		logger:         p.Logger,
		strictLocation: p.StrictLocation,
	}
}

// CheckMatchForRequest scans open availability on the request's date and
// executes against the first window that fully contains the request's
// interval. It never returns an error: failures are logged and the store is
// left as-is for whatever already committed.
func (e *Engine) CheckMatchForRequest(ctx context.Context, requestID string, req *escort.Request) {
	ctx, span := e.tracer.Start(ctx, "matching.check_request")
	defer span.End()

	outcome, err := e.matchRequest(ctx, requestID, req)
	e.finish(ctx, "request", outcome, err)
}

// CheckMatchForAvailability is the mirror entry point: it scans pending
// requests on the window's date and executes against the first request whose
// interval fits inside the window.
func (e *Engine) CheckMatchForAvailability(ctx context.Context, availabilityID string, avail *escort.Availability) {
	ctx, span := e.tracer.Start(ctx, "matching.check_availability")
	defer span.End()

	outcome, err := e.matchAvailability(ctx, availabilityID, avail)
	e.finish(ctx, "availability", outcome, err)
}

func (e *Engine) finish(ctx context.Context, trigger string, outcome Outcome, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
		e.logger.Error("matching attempt failed", "trigger", trigger, "outcome", outcome, "error", err)
	}
	e.metrics.ObserveAttempt(trigger, outcome)
}

func (e *Engine) matchRequest(ctx context.Context, requestID string, req *escort.Request) (Outcome, error) {
	if req == nil {
		return OutcomeError, errors.New("matching: request cannot be nil")
	}

	reqStart, reqEnd, ok := requestWindow(req)
	if !ok {
		e.logger.Error("request has unparseable time, skipping match",
			"request_id", requestID, "time", req.Time, "end_time", req.EndTime)
		return OutcomeInvalidTime, nil
	}

	candidates, err := e.availability.ListAvailableByDate(ctx, req.Date)
	if err != nil {
		return OutcomeError, fmt.Errorf("matching: list availability: %w", err)
	}

	scanned := 0
	for i := range candidates {
		cand := &candidates[i]
		scanned++

		availStart, okFrom := ParseClock(cand.FromTime)
		availEnd, okTo := ParseClock(cand.ToTime)
		if !okFrom || !okTo {
			e.logger.Warn("skipping availability with unparseable window",
				"availability_id", cand.ID, "from", cand.FromTime, "to", cand.ToTime)
			continue
		}

		if !ContainsInterval(availStart, availEnd, reqStart, reqEnd) {
			continue
		}

		if !e.locationOK(req.Hospital, cand.Location, requestID, cand.ID) {
			continue
		}

		e.metrics.ObserveCandidates("request", scanned)
		return e.executeMatch(ctx, requestID, req, cand.ID, cand)
	}

	e.metrics.ObserveCandidates("request", scanned)
	e.logger.Info("no availability matched request", "request_id", requestID, "date", req.Date)
	return OutcomeNoMatch, nil
}

func (e *Engine) matchAvailability(ctx context.Context, availabilityID string, avail *escort.Availability) (Outcome, error) {
	if avail == nil {
		return OutcomeError, errors.New("matching: availability cannot be nil")
	}

	availStart, okFrom := ParseClock(avail.FromTime)
	availEnd, okTo := ParseClock(avail.ToTime)
	if !okFrom || !okTo {
		e.logger.Error("availability has unparseable window, skipping match",
			"availability_id", availabilityID, "from", avail.FromTime, "to", avail.ToTime)
		return OutcomeInvalidTime, nil
	}

	candidates, err := e.requests.ListPendingByDate(ctx, avail.Date)
	if err != nil {
		return OutcomeError, fmt.Errorf("matching: list pending requests: %w", err)
	}

	scanned := 0
	for i := range candidates {
		cand := &candidates[i]
		scanned++

		reqStart, reqEnd, ok := requestWindow(cand)
		if !ok {
			e.logger.Warn("skipping request with unparseable time",
				"request_id", cand.ID, "time", cand.Time, "end_time", cand.EndTime)
			continue
		}

		if !ContainsInterval(availStart, availEnd, reqStart, reqEnd) {
			continue
		}

		if !e.locationOK(cand.Hospital, avail.Location, cand.ID, availabilityID) {
			continue
		}

		e.metrics.ObserveCandidates("availability", scanned)
		return e.executeMatch(ctx, cand.ID, cand, availabilityID, avail)
	}

	e.metrics.ObserveCandidates("availability", scanned)
	e.logger.Info("no pending request matched availability", "availability_id", availabilityID, "date", avail.Date)
	return OutcomeNoMatch, nil
}

// locationOK applies the location heuristic. In the default advisory mode a
// mismatch never rejects the candidate; it is logged so operators can see
// how often time-compatible pairs disagree on location.
func (e *Engine) locationOK(hospital, location, requestID, availabilityID string) bool {
	if LocationsCompatible(hospital, location) {
		return true
	}
	e.logger.Info("location mismatch on time-eligible candidate",
		"request_id", requestID, "availability_id", availabilityID,
		"hospital", hospital, "location", location, "strict", e.strictLocation)
	return !e.strictLocation
}

// executeMatch performs the paired state transition and fans out the
// announcements. Both updates are conditional on the documents still being
// open; losing either condition means another invocation got there first.
// A failure between the two writes leaves the pair cross-linked on one side
// only; there is no compensating rollback.
func (e *Engine) executeMatch(ctx context.Context, requestID string, req *escort.Request, availabilityID string, avail *escort.Availability) (Outcome, error) {
	ctx, span := e.tracer.Start(ctx, "matching.execute")
	defer span.End()
	start := time.Now()

	providerName := avail.ProviderName
	if providerName == "" {
		providerName = avail.ProviderEmail
	}
	err := e.requests.MarkMatched(ctx, requestID, escort.RequestMatch{
		AvailabilityID: availabilityID,
		ProviderID:     avail.ProviderID,
		ProviderName:   providerName,
	})
	if err != nil {
		if errors.Is(err, escort.ErrAlreadyMatched) {
			e.logger.Info("request already matched by a concurrent invocation", "request_id", requestID)
			return OutcomeAlreadyMatched, nil
		}
		return OutcomeError, fmt.Errorf("matching: mark request matched: %w", err)
	}

	err = e.availability.MarkMatched(ctx, availabilityID, escort.AvailabilityMatch{
		RequestID: requestID,
		UserID:    req.UserID,
	})
	if err != nil {
		if errors.Is(err, escort.ErrAlreadyMatched) {
			e.logger.Error("availability claimed by a concurrent match, request left cross-linked",
				"request_id", requestID, "availability_id", availabilityID)
			return OutcomeAlreadyMatched, nil
		}
		return OutcomeError, fmt.Errorf("matching: mark availability matched: %w", err)
	}

	e.logger.Info("match executed",
		"request_id", requestID, "availability_id", availabilityID,
		"date", req.Date, "hospital", req.Hospital)

	if e.guard.Acquire(ctx, requestID, availabilityID) {
		e.announce(ctx, requestID, req, availabilityID, avail)
	} else {
		e.logger.Info("match already announced, notifications suppressed",
			"request_id", requestID, "availability_id", availabilityID)
	}

	e.metrics.ObserveExecuteLatency(time.Since(start).Seconds())
	return OutcomeMatched, nil
}

func (e *Engine) announce(ctx context.Context, requestID string, req *escort.Request, availabilityID string, avail *escort.Availability) {
	if e.notifier != nil {
		if err := e.notifier.NotifyMatch(ctx, requestID, req, availabilityID, avail); err != nil {
			e.logger.Error("match notifications incomplete", "error", err,
				"request_id", requestID, "availability_id", availabilityID)
		}
	}

	if e.events != nil {
		evt := events.EscortMatchedV1{
			RequestID:      requestID,
			AvailabilityID: availabilityID,
			UserID:         req.UserID,
			ProviderID:     avail.ProviderID,
			Date:           req.Date,
			FromTime:       avail.FromTime,
			ToTime:         avail.ToTime,
			Hospital:       req.Hospital,
			MatchedAt:      time.Now().UTC(),
		}
		if err := e.events.PublishMatched(ctx, evt); err != nil {
			e.logger.Error("failed to publish match event", "error", err,
				"request_id", requestID, "availability_id", availabilityID)
		}
	}
}

// requestWindow resolves a request's interval in minutes since midnight,
// applying the one-hour default when no end time was submitted. An explicit
// but unparseable end time makes the whole window unusable.
func requestWindow(req *escort.Request) (start, end int, ok bool) {
	start, ok = ParseClock(req.Time)
	if !ok {
		return 0, 0, false
	}
	if req.EndTime == "" {
		return start, start + DefaultDurationMinutes, true
	}
	end, ok = ParseClock(req.EndTime)
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}
