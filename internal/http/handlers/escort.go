package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carelink/escort-platform/internal/escort"
	"github.com/carelink/escort-platform/pkg/logging"
)

// Matcher is the matching engine surface the handlers trigger after a
// document is created. Matching runs synchronously with the submission, but
// its outcome never changes the HTTP response.
type Matcher interface {
	CheckMatchForRequest(ctx context.Context, requestID string, req *escort.Request)
	CheckMatchForAvailability(ctx context.Context, availabilityID string, avail *escort.Availability)
}

type requestStore interface {
	Create(ctx context.Context, req *escort.Request) error
	Get(ctx context.Context, id string) (*escort.Request, error)
	ListByDate(ctx context.Context, date string) ([]escort.Request, error)
}

type availabilityStore interface {
	Create(ctx context.Context, avail *escort.Availability) error
	Get(ctx context.Context, id string) (*escort.Availability, error)
	ListByDate(ctx context.Context, date string) ([]escort.Availability, error)
}

// EscortHandler handles HTTP requests for escort submissions.
type EscortHandler struct {
	requests     requestStore
	availability availabilityStore
	matcher      Matcher
	logger       *logging.Logger
}

// NewEscortHandler creates a new escort handler.
func NewEscortHandler(requests requestStore, availability availabilityStore, matcher Matcher, logger *logging.Logger) *EscortHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &EscortHandler{
		requests:     requests,
		availability: availability,
		matcher:      matcher,
		logger:       logger,
	}
}

// SubmitRequest handles POST /escort/requests.
func (h *EscortHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body escort.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Error("failed to decode request submission", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := body.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := &escort.Request{
		UserID:   body.UserID,
		Date:     body.Date,
		Time:     body.Time,
		EndTime:  body.EndTime,
		Hospital: body.Hospital,
	}
	if err := h.requests.Create(r.Context(), req); err != nil {
		h.logger.Error("failed to create escort request", "error", err)
		http.Error(w, "failed to create request", http.StatusInternalServerError)
		return
	}

	h.logger.Info("escort request created", "id", req.ID, "date", req.Date, "hospital", req.Hospital)

	// Matching is best-effort and fire-and-forget from the client's point of
	// view: the submission already succeeded.
	if h.matcher != nil {
		h.matcher.CheckMatchForRequest(r.Context(), req.ID, req)
	}

	writeJSON(w, http.StatusCreated, req)
}

// GetRequest handles GET /escort/requests/{id}.
func (h *EscortHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, err := h.requests.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, escort.ErrNotFound) {
			http.Error(w, "request not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to fetch escort request", "error", err, "id", id)
		http.Error(w, "failed to fetch request", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// SubmitAvailability handles POST /escort/availability.
func (h *EscortHandler) SubmitAvailability(w http.ResponseWriter, r *http.Request) {
	var body escort.SubmitAvailability
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Error("failed to decode availability submission", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := body.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	avail := &escort.Availability{
		ProviderID:    body.ProviderID,
		ProviderName:  body.ProviderName,
		ProviderEmail: body.ProviderEmail,
		Date:          body.Date,
		FromTime:      body.FromTime,
		ToTime:        body.ToTime,
		Location:      body.Location,
	}
	if err := h.availability.Create(r.Context(), avail); err != nil {
		h.logger.Error("failed to create availability", "error", err)
		http.Error(w, "failed to create availability", http.StatusInternalServerError)
		return
	}

	h.logger.Info("availability created", "id", avail.ID, "date", avail.Date, "location", avail.Location)

	if h.matcher != nil {
		h.matcher.CheckMatchForAvailability(r.Context(), avail.ID, avail)
	}

	writeJSON(w, http.StatusCreated, avail)
}

// GetAvailability handles GET /escort/availability/{id}.
func (h *EscortHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	avail, err := h.availability.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, escort.ErrNotFound) {
			http.Error(w, "availability not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to fetch availability", "error", err, "id", id)
		http.Error(w, "failed to fetch availability", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

// ListRequestsResponse is the response for the admin request listing.
type ListRequestsResponse struct {
	Requests []escort.Request `json:"requests"`
	Count    int              `json:"count"`
	Date     string           `json:"date"`
}

// ListRequests handles GET /admin/escort/requests?date=YYYY-MM-DD.
func (h *EscortHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "missing date", http.StatusBadRequest)
		return
	}

	requests, err := h.requests.ListByDate(r.Context(), date)
	if err != nil {
		h.logger.Error("failed to list escort requests", "error", err, "date", date)
		http.Error(w, "failed to list requests", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListRequestsResponse{
		Requests: requests,
		Count:    len(requests),
		Date:     date,
	})
}

// ListAvailabilityResponse is the response for the admin availability listing.
type ListAvailabilityResponse struct {
	Availability []escort.Availability `json:"availability"`
	Count        int                   `json:"count"`
	Date         string                `json:"date"`
}

// ListAvailability handles GET /admin/escort/availability?date=YYYY-MM-DD.
func (h *EscortHandler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "missing date", http.StatusBadRequest)
		return
	}

	windows, err := h.availability.ListByDate(r.Context(), date)
	if err != nil {
		h.logger.Error("failed to list availability", "error", err, "date", date)
		http.Error(w, "failed to list availability", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListAvailabilityResponse{
		Availability: windows,
		Count:        len(windows),
		Date:         date,
	})
}

// HealthCheck handles GET /health.
func (h *EscortHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
