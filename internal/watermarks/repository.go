package watermarks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/JaimeStill/scribe/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Postgres-backed watermark store implementing System.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "watermarks"),
	}
}

func (r *repo) Get(ctx context.Context, streamID string) (time.Time, error) {
	stmt := repository.Builder.
		Select("watermark_time").
		From("watermarks").
		Where(sq.Eq{"stream_id": streamID})

	t, err := repository.SelectOne(ctx, r.db, stmt, func(s repository.Scanner) (time.Time, error) {
		var t time.Time
		err := s.Scan(&t)
		return t, err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get watermark %s: %w", streamID, err)
	}
	return t.UTC(), nil
}

func (r *repo) Advance(ctx context.Context, streamID string, to, processedAt time.Time) error {
	stmt := repository.Builder.
		Insert("watermarks").
		Columns("stream_id", "watermark_time", "last_processed_batch_at").
		Values(streamID, to, processedAt).
		Suffix(`ON CONFLICT (stream_id) DO UPDATE SET
			watermark_time = GREATEST(watermarks.watermark_time, EXCLUDED.watermark_time),
			last_processed_batch_at = EXCLUDED.last_processed_batch_at`)

	if _, err := repository.Exec(ctx, r.db, stmt); err != nil {
		return fmt.Errorf("advance watermark %s: %w", streamID, err)
	}

	r.logger.InfoContext(ctx, "watermark advanced", "stream", streamID, "to", to)
	return nil
}

func (r *repo) List(ctx context.Context) ([]Watermark, error) {
	stmt := repository.Builder.
		Select("stream_id", "watermark_time", "last_processed_batch_at").
		From("watermarks").
		OrderBy("stream_id")

	return repository.SelectMany(ctx, r.db, stmt, func(s repository.Scanner) (Watermark, error) {
		var w Watermark
		err := s.Scan(&w.StreamID, &w.Time, &w.LastProcessedBatchAt)
		return w, err
	})
}
