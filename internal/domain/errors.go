package domain

import "errors"

// Sentinel errors for the compare pipeline. Input-validation errors block
// the query entirely; backend and no-data errors are handled per channel.
var (
	// ErrInvalidRange is returned when a date range starts after it ends.
	ErrInvalidRange = errors.New("range start is after range end")

	// ErrEmptyKeywords is returned when the keyword input contains no usable terms.
	ErrEmptyKeywords = errors.New("no usable keyword terms")

	// ErrBackendUnavailable wraps network, auth, and timeout failures
	// talking to the search backend.
	ErrBackendUnavailable = errors.New("search backend unavailable")

	// ErrNoDocuments is returned when a percentage is requested over a
	// range containing zero documents.
	ErrNoDocuments = errors.New("no documents in range")

	// ErrMalformedResponse wraps backend responses missing the expected
	// aggregation structure.
	ErrMalformedResponse = errors.New("malformed backend response")
)
