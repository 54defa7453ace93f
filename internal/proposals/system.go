package proposals

import (
	"context"

	"github.com/google/uuid"
)

// System defines the proposal store contract.
type System interface {
	// Commit writes a conversation outcome and completes its messages atomically.
	// Re-committing the same conversation replaces its earlier proposals and review logs.
	Commit(ctx context.Context, c Commit) error

	// CountPending counts PENDING proposals for page that belong to other conversations.
	CountPending(ctx context.Context, page string, exclude uuid.UUID) (int, error)

	// FindContext returns the retrieval context of a conversation.
	FindContext(ctx context.Context, conversationID uuid.UUID) (*RetrievalContext, error)

	// ListByConversation returns the stored proposals of a conversation.
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]Proposal, error)
}
