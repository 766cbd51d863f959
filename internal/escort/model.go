package escort

import (
	"strings"
	"time"
)

// RequestStatus tracks the lifecycle of an escort request.
type RequestStatus string

const (
	RequestStatusPending RequestStatus = "pending"
	RequestStatusMatched RequestStatus = "matched"
)

// AvailabilityStatus tracks the lifecycle of a volunteer availability window.
type AvailabilityStatus string

const (
	AvailabilityStatusAvailable AvailabilityStatus = "available"
	AvailabilityStatusMatched   AvailabilityStatus = "matched"
)

// Request is a patient's submission asking for an escort at a specific
// date, time and location. Field names are a wire contract with the client
// forms that create these documents.
type Request struct {
	ID       string        `dynamodbav:"id" json:"id"`
	UserID   string        `dynamodbav:"userId" json:"userId"`
	Date     string        `dynamodbav:"date" json:"date"`
	Time     string        `dynamodbav:"time" json:"time"`
	EndTime  string        `dynamodbav:"endTime,omitempty" json:"endTime,omitempty"`
	Hospital string        `dynamodbav:"hospital" json:"hospital"`
	Status   RequestStatus `dynamodbav:"status" json:"status"`

	// Populated together once the request is matched; a request is either
	// fully unmatched or fully cross-linked, never in between.
	MatchedAvailabilityID string `dynamodbav:"matchedAvailabilityId,omitempty" json:"matchedAvailabilityId,omitempty"`
	MatchedProviderID     string `dynamodbav:"matchedProviderId,omitempty" json:"matchedProviderId,omitempty"`
	MatchedProviderName   string `dynamodbav:"matchedProviderName,omitempty" json:"matchedProviderName,omitempty"`

	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// Availability is a volunteer escort's declared coverage window.
type Availability struct {
	ID            string             `dynamodbav:"id" json:"id"`
	ProviderID    string             `dynamodbav:"providerId" json:"providerId"`
	ProviderName  string             `dynamodbav:"providerName,omitempty" json:"providerName,omitempty"`
	ProviderEmail string             `dynamodbav:"providerEmail" json:"providerEmail"`
	Date          string             `dynamodbav:"date" json:"date"`
	FromTime      string             `dynamodbav:"fromTime" json:"fromTime"`
	ToTime        string             `dynamodbav:"toTime" json:"toTime"`
	Location      string             `dynamodbav:"location" json:"location"`
	Status        AvailabilityStatus `dynamodbav:"status" json:"status"`

	MatchedRequestID string `dynamodbav:"matchedRequestId,omitempty" json:"matchedRequestId,omitempty"`
	MatchedUserID    string `dynamodbav:"matchedUserId,omitempty" json:"matchedUserId,omitempty"`

	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// RequestMatch carries the cross-reference fields written onto a request
// when it is matched.
type RequestMatch struct {
	AvailabilityID string
	ProviderID     string
	ProviderName   string
}

// AvailabilityMatch carries the cross-reference fields written onto an
// availability window when it is matched.
type AvailabilityMatch struct {
	RequestID string
	UserID    string
}

// SubmitRequest is the request body for creating an escort request.
type SubmitRequest struct {
	UserID   string `json:"userId"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	EndTime  string `json:"endTime,omitempty"`
	Hospital string `json:"hospital"`
}

// Validate validates a request submission.
func (r *SubmitRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrMissingUserID
	}
	if !validDate(r.Date) {
		return ErrInvalidDate
	}
	if strings.TrimSpace(r.Time) == "" {
		return ErrMissingTime
	}
	if strings.TrimSpace(r.Hospital) == "" {
		return ErrMissingLocation
	}
	return nil
}

// SubmitAvailability is the request body for declaring a coverage window.
type SubmitAvailability struct {
	ProviderID    string `json:"providerId"`
	ProviderName  string `json:"providerName,omitempty"`
	ProviderEmail string `json:"providerEmail"`
	Date          string `json:"date"`
	FromTime      string `json:"fromTime"`
	ToTime        string `json:"toTime"`
	Location      string `json:"location"`
}

// Validate validates an availability submission.
func (a *SubmitAvailability) Validate() error {
	if strings.TrimSpace(a.ProviderID) == "" {
		return ErrMissingProviderID
	}
	if !validDate(a.Date) {
		return ErrInvalidDate
	}
	if strings.TrimSpace(a.FromTime) == "" || strings.TrimSpace(a.ToTime) == "" {
		return ErrMissingTime
	}
	if strings.TrimSpace(a.Location) == "" {
		return ErrMissingLocation
	}
	return nil
}

func validDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}
