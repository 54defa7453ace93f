package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrEmptyResponse indicates the provider returned no choices.
	ErrEmptyResponse = errors.New("empty completion response")
	// ErrSchema is matched by every SchemaError.
	ErrSchema = errors.New("response failed schema validation")
)

// SchemaError reports model output that could not be decoded or did not
// satisfy the response type's Validate method.
type SchemaError struct {
	Attempts int
	Reason   string
	Err      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema validation failed after %d attempt(s): %s", e.Attempts, e.Reason)
}

func (e *SchemaError) Unwrap() []error {
	return []error{ErrSchema, e.Err}
}

// FieldError describes a single constraint violation found by Validate.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

// Invalid builds a FieldError.
func Invalid(field, format string, args ...any) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsTransient reports whether err is a provider failure worth retrying:
// rate limits, server errors, and transport failures without a status code.
// Agent errors carry no status and are retried unless the caller cancelled.
func IsTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}

	return !errors.Is(err, ErrEmptyResponse) && !errors.Is(err, context.Canceled)
}

func retryableStatus(code int) bool {
	return code == 0 || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
