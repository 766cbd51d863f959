package escort

import "errors"

var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("escort: document not found")

	// ErrAlreadyMatched indicates a conditional transition to matched failed
	// because the document already left its open state.
	ErrAlreadyMatched = errors.New("escort: document already matched")

	ErrMissingUserID     = errors.New("escort: userId is required")
	ErrMissingProviderID = errors.New("escort: providerId is required")
	ErrInvalidDate       = errors.New("escort: date must be YYYY-MM-DD")
	ErrMissingTime       = errors.New("escort: time is required")
	ErrMissingLocation   = errors.New("escort: location is required")
)
