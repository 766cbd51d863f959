package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/escort-platform/internal/escort"
	"github.com/carelink/escort-platform/pkg/logging"
)

type fakeRequestStore struct {
	created []*escort.Request
	byID    map[string]*escort.Request
	byDate  map[string][]escort.Request
	err     error
}

func (f *fakeRequestStore) Create(ctx context.Context, req *escort.Request) error {
	if f.err != nil {
		return f.err
	}
	req.ID = "req-123"
	req.Status = escort.RequestStatusPending
	f.created = append(f.created, req)
	return nil
}

func (f *fakeRequestStore) Get(ctx context.Context, id string) (*escort.Request, error) {
	if f.err != nil {
		return nil, f.err
	}
	req, ok := f.byID[id]
	if !ok {
		return nil, escort.ErrNotFound
	}
	return req, nil
}

func (f *fakeRequestStore) ListByDate(ctx context.Context, date string) ([]escort.Request, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byDate[date], nil
}

type fakeAvailabilityStore struct {
	created []*escort.Availability
	byID    map[string]*escort.Availability
	byDate  map[string][]escort.Availability
	err     error
}

func (f *fakeAvailabilityStore) Create(ctx context.Context, avail *escort.Availability) error {
	if f.err != nil {
		return f.err
	}
	avail.ID = "avail-123"
	avail.Status = escort.AvailabilityStatusAvailable
	f.created = append(f.created, avail)
	return nil
}

func (f *fakeAvailabilityStore) Get(ctx context.Context, id string) (*escort.Availability, error) {
	if f.err != nil {
		return nil, f.err
	}
	avail, ok := f.byID[id]
	if !ok {
		return nil, escort.ErrNotFound
	}
	return avail, nil
}

func (f *fakeAvailabilityStore) ListByDate(ctx context.Context, date string) ([]escort.Availability, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byDate[date], nil
}

type fakeMatcher struct {
	requestCalls      []string
	availabilityCalls []string
}

func (f *fakeMatcher) CheckMatchForRequest(ctx context.Context, requestID string, req *escort.Request) {
	f.requestCalls = append(f.requestCalls, requestID)
}

func (f *fakeMatcher) CheckMatchForAvailability(ctx context.Context, availabilityID string, avail *escort.Availability) {
	f.availabilityCalls = append(f.availabilityCalls, availabilityID)
}

func newTestHandler() (*EscortHandler, *fakeRequestStore, *fakeAvailabilityStore, *fakeMatcher) {
	requests := &fakeRequestStore{byID: map[string]*escort.Request{}, byDate: map[string][]escort.Request{}}
	windows := &fakeAvailabilityStore{byID: map[string]*escort.Availability{}, byDate: map[string][]escort.Availability{}}
	matcher := &fakeMatcher{}
	h := NewEscortHandler(requests, windows, matcher, logging.Default())
	return h, requests, windows, matcher
}

func TestSubmitRequest_CreatesAndTriggersMatching(t *testing.T) {
	h, requests, _, matcher := newTestHandler()

	body := map[string]string{
		"userId":   "user-1",
		"date":     "2025-11-10",
		"time":     "09:30",
		"hospital": "General Hospital",
	}
	payload, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/escort/requests", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.SubmitRequest(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, requests.created, 1)
	assert.Equal(t, "user-1", requests.created[0].UserID)
	assert.Equal(t, []string{"req-123"}, matcher.requestCalls)

	var resp escort.Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "req-123", resp.ID)
	assert.Equal(t, escort.RequestStatusPending, resp.Status)
}

func TestSubmitRequest_RejectsInvalidJSON(t *testing.T) {
	h, requests, _, matcher := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/escort/requests", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.SubmitRequest(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, requests.created)
	assert.Empty(t, matcher.requestCalls)
}

func TestSubmitRequest_RejectsMissingFields(t *testing.T) {
	h, requests, _, _ := newTestHandler()

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing user", map[string]string{"date": "2025-11-10", "time": "09:30"}},
		{"missing date", map[string]string{"userId": "user-1", "time": "09:30"}},
		{"missing time", map[string]string{"userId": "user-1", "date": "2025-11-10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/escort/requests", bytes.NewReader(payload))
			rec := httptest.NewRecorder()
			h.SubmitRequest(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, requests.created)
}

func TestSubmitRequest_StoreFailureIs500(t *testing.T) {
	h, requests, _, matcher := newTestHandler()
	requests.err = assert.AnError

	body, _ := json.Marshal(map[string]string{
		"userId": "user-1", "date": "2025-11-10", "time": "09:30",
	})
	req := httptest.NewRequest(http.MethodPost, "/escort/requests", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.SubmitRequest(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, matcher.requestCalls)
}

func TestSubmitAvailability_CreatesAndTriggersMatching(t *testing.T) {
	h, _, windows, matcher := newTestHandler()

	body, _ := json.Marshal(map[string]string{
		"providerId": "prov-1",
		"date":       "2025-11-10",
		"fromTime":   "09:00",
		"toTime":     "12:00",
		"location":   "General Hospital",
	})
	req := httptest.NewRequest(http.MethodPost, "/escort/availability", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.SubmitAvailability(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, windows.created, 1)
	assert.Equal(t, "prov-1", windows.created[0].ProviderID)
	assert.Equal(t, []string{"avail-123"}, matcher.availabilityCalls)
}

func TestGetRequest_NotFound(t *testing.T) {
	h, _, _, _ := newTestHandler()

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/escort/requests/missing", nil), "id", "missing")
	rec := httptest.NewRecorder()
	h.GetRequest(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRequest_ReturnsRecord(t *testing.T) {
	h, requests, _, _ := newTestHandler()
	requests.byID["req-9"] = &escort.Request{ID: "req-9", UserID: "user-1", Status: escort.RequestStatusPending}

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/escort/requests/req-9", nil), "id", "req-9")
	rec := httptest.NewRecorder()
	h.GetRequest(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp escort.Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "req-9", resp.ID)
}

func TestGetAvailability_NotFound(t *testing.T) {
	h, _, _, _ := newTestHandler()

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/escort/availability/missing", nil), "id", "missing")
	rec := httptest.NewRecorder()
	h.GetAvailability(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRequests_RequiresDate(t *testing.T) {
	h, _, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/admin/escort/requests", nil)
	rec := httptest.NewRecorder()
	h.ListRequests(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRequests_ReturnsDateSlice(t *testing.T) {
	h, requests, _, _ := newTestHandler()
	requests.byDate["2025-11-10"] = []escort.Request{
		{ID: "req-1", Date: "2025-11-10"},
		{ID: "req-2", Date: "2025-11-10"},
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/escort/requests?date=2025-11-10", nil)
	rec := httptest.NewRecorder()
	h.ListRequests(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListRequestsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "2025-11-10", resp.Date)
}

func TestListAvailability_ReturnsDateSlice(t *testing.T) {
	h, _, windows, _ := newTestHandler()
	windows.byDate["2025-11-10"] = []escort.Availability{
		{ID: "avail-1", Date: "2025-11-10"},
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/escort/availability?date=2025-11-10", nil)
	rec := httptest.NewRecorder()
	h.ListAvailability(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListAvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestHealthCheck(t *testing.T) {
	h, _, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
