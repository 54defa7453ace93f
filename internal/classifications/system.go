package classifications

import "context"

// System defines the classification store contract.
type System interface {
	// Upsert writes one record per message, replacing any earlier record for the
	// same message so a retried batch converges on the latest outcome.
	Upsert(ctx context.Context, records []Record) error

	// DeleteByMessages removes the records of the given messages so they are
	// reclassified on the next run.
	DeleteByMessages(ctx context.Context, messageIDs []string) (int64, error)

	// ListByBatch returns the records written by a batch, ordered by message ID.
	ListByBatch(ctx context.Context, batchID string) ([]Record, error)
}
