package messages

import (
	"context"
	"time"
)

// System defines the message source contract.
type System interface {
	// EarliestPending returns the oldest PENDING message in the stream at or after since.
	// Returns ErrNotFound when the stream is drained.
	EarliestPending(ctx context.Context, streamID string, since time.Time) (*Message, error)

	// FetchPending returns up to limit PENDING messages with start <= timestamp < end,
	// ordered by timestamp.
	FetchPending(ctx context.Context, streamID string, start, end time.Time, limit int) ([]Message, error)

	// FetchContext returns up to limit messages of any status immediately preceding
	// before, ordered by timestamp.
	FetchContext(ctx context.Context, streamID string, before time.Time, limit int) ([]Message, error)

	// PendingStreams lists streams holding at least one PENDING message.
	PendingStreams(ctx context.Context) ([]string, error)

	// MarkCompleted flips the given messages to COMPLETED outside any wider transaction.
	MarkCompleted(ctx context.Context, ids []string) error

	// Ingest inserts messages as PENDING, skipping IDs that already exist.
	// Returns the number of newly inserted rows.
	Ingest(ctx context.Context, msgs []Message) (int, error)
}
