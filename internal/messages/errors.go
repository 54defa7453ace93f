package messages

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound indicates no message matched the query.
	ErrNotFound = errors.New("message not found")
	// ErrDuplicate indicates a message with the same ID already exists.
	ErrDuplicate = errors.New("message already exists")
	// ErrInvalid indicates a message that cannot be ingested.
	ErrInvalid = errors.New("invalid message")
	// ErrTooMany indicates an ingest request over the configured limit.
	ErrTooMany = errors.New("too many messages in one request")
)

// MapHTTPStatus maps message errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooMany):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
