package proposals

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/messages"
	"github.com/JaimeStill/scribe/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a proposal store implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "proposals"),
	}
}

func (r *repo) Commit(ctx context.Context, c Commit) error {
	for _, p := range c.Proposals {
		if err := validate(p); err != nil {
			return fmt.Errorf("proposal %s: %w", p.ID, err)
		}
	}

	completed, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int64, error) {
		if err := upsertContext(ctx, tx, c.Context); err != nil {
			return 0, err
		}

		id := c.Context.ConversationID
		if _, err := repository.Exec(ctx, tx, repository.Builder.
			Delete("review_logs").
			Where(sq.Eq{"conversation_id": id})); err != nil {
			return 0, fmt.Errorf("clear review logs: %w", err)
		}
		if _, err := repository.Exec(ctx, tx, repository.Builder.
			Delete("proposals").
			Where(sq.Eq{"conversation_id": id})); err != nil {
			return 0, fmt.Errorf("clear proposals: %w", err)
		}

		if err := insertProposals(ctx, tx, c.Proposals); err != nil {
			return 0, err
		}
		if err := insertReviews(ctx, tx, c.Reviews); err != nil {
			return 0, err
		}

		return messages.MarkCompleted(ctx, tx, c.MessageIDs)
	})
	if err != nil {
		return fmt.Errorf("commit conversation %s: %w", c.Context.ConversationID, err)
	}

	r.logger.InfoContext(ctx, "conversation committed",
		"conversation", c.Context.ConversationID,
		"proposals", len(c.Proposals),
		"reviews", len(c.Reviews),
		"completed", completed,
	)
	return nil
}

func (r *repo) CountPending(ctx context.Context, page string, exclude uuid.UUID) (int, error) {
	stmt := repository.Builder.
		Select("COUNT(*)").
		From("proposals").
		Where(sq.Eq{"page": page, "status": StatusPending}).
		Where(sq.NotEq{"conversation_id": exclude}).
		Where(sq.NotEq{"update_type": UpdateNone})

	n, err := repository.SelectOne(ctx, r.db, stmt, func(s repository.Scanner) (int, error) {
		var n int
		err := s.Scan(&n)
		return n, err
	})
	if err != nil {
		return 0, fmt.Errorf("count pending proposals for %s: %w", page, err)
	}
	return n, nil
}

func (r *repo) FindContext(ctx context.Context, conversationID uuid.UUID) (*RetrievalContext, error) {
	stmt := repository.Builder.
		Select(contextColumns...).
		From("retrieval_contexts").
		Where(sq.Eq{"conversation_id": conversationID})

	c, err := repository.SelectOne(ctx, r.db, stmt, scanContext)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, err)
	}
	return &c, nil
}

func (r *repo) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]Proposal, error) {
	stmt := repository.Builder.
		Select(proposalColumns...).
		From("proposals").
		Where(sq.Eq{"conversation_id": conversationID}).
		OrderBy("created_at", "id")

	items, err := repository.SelectMany(ctx, r.db, stmt, scanProposal)
	if err != nil {
		return nil, fmt.Errorf("list proposals for %s: %w", conversationID, err)
	}
	return items, nil
}

func validate(p Proposal) error {
	if !p.UpdateType.Valid() {
		return ErrInvalidUpdate
	}
	if p.UpdateType != UpdateNone && strings.TrimSpace(p.Page) == "" {
		return ErrMissingPage
	}
	return nil
}

func upsertContext(ctx context.Context, tx *sql.Tx, c RetrievalContext) error {
	values, err := contextValues(c)
	if err != nil {
		return fmt.Errorf("encode retrieval context: %w", err)
	}

	stmt := repository.Builder.
		Insert("retrieval_contexts").
		Columns(contextColumns...).
		Values(values...).
		Suffix(`ON CONFLICT (conversation_id) DO UPDATE SET
			batch_id = EXCLUDED.batch_id,
			stream_id = EXCLUDED.stream_id,
			channel = EXCLUDED.channel,
			category = EXCLUDED.category,
			summary = EXCLUDED.summary,
			message_ids = EXCLUDED.message_ids,
			time_start = EXCLUDED.time_start,
			time_end = EXCLUDED.time_end,
			retrieved_docs = EXCLUDED.retrieved_docs,
			total_tokens_estimate = EXCLUDED.total_tokens_estimate,
			proposals_rejected = EXCLUDED.proposals_rejected,
			rejection_reason = EXCLUDED.rejection_reason,
			updated_at = NOW()`)

	if _, err := repository.Exec(ctx, tx, stmt); err != nil {
		return fmt.Errorf("upsert retrieval context: %w", err)
	}
	return nil
}

func insertProposals(ctx context.Context, tx *sql.Tx, items []Proposal) error {
	if len(items) == 0 {
		return nil
	}

	stmt := repository.Builder.Insert("proposals").Columns(proposalColumns...)
	for _, p := range items {
		values, err := proposalValues(p)
		if err != nil {
			return fmt.Errorf("encode proposal %s: %w", p.ID, err)
		}
		stmt = stmt.Values(values...)
	}

	if _, err := repository.Exec(ctx, tx, stmt); err != nil {
		return fmt.Errorf("insert proposals: %w", err)
	}
	return nil
}

func insertReviews(ctx context.Context, tx *sql.Tx, items []ReviewLog) error {
	if len(items) == 0 {
		return nil
	}

	stmt := repository.Builder.Insert("review_logs").Columns(reviewColumns...)
	for _, rl := range items {
		values, err := reviewValues(rl)
		if err != nil {
			return fmt.Errorf("encode review log %s: %w", rl.ProposalID, err)
		}
		stmt = stmt.Values(values...)
	}

	if _, err := repository.Exec(ctx, tx, stmt); err != nil {
		return fmt.Errorf("insert review logs: %w", err)
	}
	return nil
}
