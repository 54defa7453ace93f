package classifications

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"github.com/JaimeStill/scribe/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a classification store implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "classifications"),
	}
}

func (r *repo) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	stmt := repository.Builder.
		Insert("classifications").
		Columns(columns...).
		Suffix(`ON CONFLICT (message_id) DO UPDATE SET
			batch_id = EXCLUDED.batch_id,
			conversation_id = EXCLUDED.conversation_id,
			category = EXCLUDED.category,
			doc_value_reason = EXCLUDED.doc_value_reason,
			rag_search_criteria = EXCLUDED.rag_search_criteria,
			model_used = EXCLUDED.model_used,
			updated_at = NOW()`)

	for _, rec := range records {
		criteria, err := criteriaJSON(rec.Criteria)
		if err != nil {
			return fmt.Errorf("marshal criteria for %s: %w", rec.MessageID, err)
		}
		stmt = stmt.Values(
			rec.MessageID,
			rec.BatchID,
			rec.ConversationID,
			rec.Category,
			rec.DocValueReason,
			criteria,
			rec.ModelUsed,
		)
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int64, error) {
		return repository.Exec(ctx, tx, stmt)
	})
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return fmt.Errorf("upsert classifications: %w", ErrOrphaned)
		}
		return fmt.Errorf("upsert classifications: %w", err)
	}

	r.logger.InfoContext(ctx, "classifications upserted", "count", len(records))
	return nil
}

func (r *repo) DeleteByMessages(ctx context.Context, messageIDs []string) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}

	stmt := repository.Builder.
		Delete("classifications").
		Where(sq.Eq{"message_id": messageIDs})

	n, err := repository.Exec(ctx, r.db, stmt)
	if err != nil {
		return 0, fmt.Errorf("delete classifications: %w", err)
	}

	r.logger.InfoContext(ctx, "classifications purged", "requested", len(messageIDs), "deleted", n)
	return n, nil
}

func (r *repo) ListByBatch(ctx context.Context, batchID string) ([]Record, error) {
	stmt := repository.Builder.
		Select(columns...).
		From("classifications").
		Where(sq.Eq{"batch_id": batchID}).
		OrderBy("message_id")

	records, err := repository.SelectMany(ctx, r.db, stmt, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("list classifications for batch %s: %w", batchID, err)
	}
	return records, nil
}
