package pipeline

import "errors"

// Sentinel errors for pipeline operations.
var (
	ErrRunInProgress  = errors.New("pipeline run already in progress")
	ErrClassifyFailed = errors.New("classification failed")
	ErrRetrieveFailed = errors.New("retrieval failed")
	ErrProposeFailed  = errors.New("proposal generation failed")
	ErrPersistFailed  = errors.New("persistence failed")
)
