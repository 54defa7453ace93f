// Package watermarks tracks, per stream, the time boundary before which every
// message has been fully processed.
package watermarks

import (
	"context"
	"time"
)

// Watermark is the processing boundary of a stream.
type Watermark struct {
	StreamID             string     `json:"streamId"`
	Time                 time.Time  `json:"watermarkTime"`
	LastProcessedBatchAt *time.Time `json:"lastProcessedBatchAt,omitempty"`
}

// System defines the watermark store contract.
type System interface {
	// Get returns the stream watermark, or the zero time when the stream has none.
	Get(ctx context.Context, streamID string) (time.Time, error)

	// Advance moves the watermark to the given time. The stored value never moves backward.
	Advance(ctx context.Context, streamID string, to, processedAt time.Time) error

	List(ctx context.Context) ([]Watermark, error)
}
