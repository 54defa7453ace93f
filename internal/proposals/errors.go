package proposals

import "errors"

// Domain errors for proposal persistence.
var (
	ErrNotFound      = errors.New("retrieval context not found")
	ErrMissingPage   = errors.New("proposal has no target page")
	ErrInvalidUpdate = errors.New("proposal has an unknown update type")
)
