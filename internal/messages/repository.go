package messages

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/JaimeStill/scribe/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Postgres-backed message source implementing System.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "messages"),
	}
}

func (r *repo) EarliestPending(ctx context.Context, streamID string, since time.Time) (*Message, error) {
	stmt := repository.Builder.
		Select(columns...).
		From("messages").
		Where(sq.Eq{"stream_id": streamID, "processing_status": StatusPending}).
		Where(sq.GtOrEq{"ts": since}).
		OrderBy("ts", "id").
		Limit(1)

	m, err := repository.SelectOne(ctx, r.db, stmt, scanMessage)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &m, nil
}

func (r *repo) FetchPending(ctx context.Context, streamID string, start, end time.Time, limit int) ([]Message, error) {
	stmt := repository.Builder.
		Select(columns...).
		From("messages").
		Where(sq.Eq{"stream_id": streamID, "processing_status": StatusPending}).
		Where(sq.GtOrEq{"ts": start}).
		Where(sq.Lt{"ts": end}).
		OrderBy("ts", "id").
		Limit(uint64(limit))

	msgs, err := repository.SelectMany(ctx, r.db, stmt, scanMessage)
	if err != nil {
		return nil, fmt.Errorf("fetch pending messages: %w", err)
	}
	return msgs, nil
}

func (r *repo) FetchContext(ctx context.Context, streamID string, before time.Time, limit int) ([]Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	stmt := repository.Builder.
		Select(columns...).
		From("messages").
		Where(sq.Eq{"stream_id": streamID}).
		Where(sq.Lt{"ts": before}).
		OrderBy("ts DESC", "id DESC").
		Limit(uint64(limit))

	msgs, err := repository.SelectMany(ctx, r.db, stmt, scanMessage)
	if err != nil {
		return nil, fmt.Errorf("fetch context messages: %w", err)
	}

	slices.Reverse(msgs)
	return msgs, nil
}

func (r *repo) PendingStreams(ctx context.Context) ([]string, error) {
	stmt := repository.Builder.
		Select("DISTINCT stream_id").
		From("messages").
		Where(sq.Eq{"processing_status": StatusPending}).
		OrderBy("stream_id")

	streams, err := repository.SelectMany(ctx, r.db, stmt, func(s repository.Scanner) (string, error) {
		var id string
		err := s.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, fmt.Errorf("list pending streams: %w", err)
	}
	return streams, nil
}

func (r *repo) MarkCompleted(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := MarkCompleted(ctx, r.db, ids); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "messages completed", "count", len(ids))
	return nil
}

func (r *repo) Ingest(ctx context.Context, msgs []Message) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}

	inserted, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int64, error) {
		stmt := repository.Builder.
			Insert("messages").
			Columns(columns...).
			Suffix("ON CONFLICT (id) DO NOTHING")

		for _, m := range msgs {
			stmt = stmt.Values(
				m.ID,
				m.StreamID,
				m.Timestamp,
				m.Author,
				m.Content,
				m.Channel,
				m.Metadata.ReplyToID,
				m.Metadata.Topic,
				m.Metadata.ThreadID,
				StatusPending,
			)
		}

		return repository.Exec(ctx, tx, stmt)
	})
	if err != nil {
		return 0, fmt.Errorf("ingest messages: %w", err)
	}

	r.logger.InfoContext(ctx, "messages ingested", "received", len(msgs), "inserted", inserted)
	return int(inserted), nil
}

// MarkCompleted flips ids to COMPLETED using e, which may be a transaction.
// It returns the number of rows changed.
func MarkCompleted(ctx context.Context, e repository.Executor, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	stmt := repository.Builder.
		Update("messages").
		Set("processing_status", StatusCompleted).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": ids})

	n, err := repository.Exec(ctx, e, stmt)
	if err != nil {
		return 0, fmt.Errorf("mark messages completed: %w", err)
	}
	return n, nil
}
