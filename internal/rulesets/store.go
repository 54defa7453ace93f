package rulesets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/JaimeStill/scribe/pkg/cache"
	"github.com/JaimeStill/scribe/pkg/repository"
)

// System loads and stores tenant rulesets.
type System interface {
	// Get returns the compiled ruleset for tenantID. A tenant without a stored
	// ruleset gets an empty one. Results are cached for the configured TTL.
	Get(ctx context.Context, tenantID string) (*Ruleset, error)

	// Put validates and stores a ruleset document, then drops the cached copy.
	Put(ctx context.Context, tenantID, document string) (*Ruleset, error)

	// Invalidate drops the cached ruleset so the next Get reads the store.
	Invalidate(ctx context.Context, tenantID string) error
}

type stored struct {
	Document  Document  `json:"document"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type store struct {
	db     *sql.DB
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a ruleset store. Compiled documents are cached in c for ttl.
func New(db *sql.DB, c cache.Cache, ttl time.Duration, logger *slog.Logger) System {
	return &store{
		db:     db,
		cache:  c,
		ttl:    ttl,
		logger: logger.With("system", "rulesets"),
	}
}

func cacheKey(tenantID string) string {
	return "ruleset:" + tenantID
}

func (s *store) Get(ctx context.Context, tenantID string) (*Ruleset, error) {
	entry, hit, err := cache.GetJSON[stored](ctx, s.cache, cacheKey(tenantID))
	if err != nil {
		s.logger.WarnContext(ctx, "ruleset cache read failed", "tenant", tenantID, "error", err)
	}

	if !hit {
		entry, err = s.load(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if err := cache.SetJSON(ctx, s.cache, cacheKey(tenantID), entry, s.ttl); err != nil {
			s.logger.WarnContext(ctx, "ruleset cache write failed", "tenant", tenantID, "error", err)
		}
	}

	rs := Compile(tenantID, entry.Document, entry.UpdatedAt)
	for _, reason := range rs.Skipped {
		s.logger.WarnContext(ctx, "ruleset entry skipped", "tenant", tenantID, "reason", reason)
	}
	return rs, nil
}

func (s *store) Put(ctx context.Context, tenantID, document string) (*Ruleset, error) {
	doc, err := Parse(document)
	if err != nil {
		return nil, err
	}

	stmt := repository.Builder.
		Insert("rulesets").
		Columns("tenant_id", "document", "updated_at").
		Values(tenantID, document, sq.Expr("NOW()")).
		Suffix(`ON CONFLICT (tenant_id) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at`)

	updatedAt, err := repository.SelectOne(ctx, s.db, stmt, func(sc repository.Scanner) (time.Time, error) {
		var t time.Time
		err := sc.Scan(&t)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("store ruleset %s: %w", tenantID, err)
	}

	if err := s.Invalidate(ctx, tenantID); err != nil {
		s.logger.WarnContext(ctx, "ruleset cache invalidation failed", "tenant", tenantID, "error", err)
	}

	rs := Compile(tenantID, doc, updatedAt)
	s.logger.InfoContext(ctx, "ruleset stored",
		"tenant", tenantID,
		"rules", len(rs.Rules),
		"gates", len(rs.Gates),
		"skipped", len(rs.Skipped),
	)
	return rs, nil
}

func (s *store) Invalidate(ctx context.Context, tenantID string) error {
	return s.cache.Delete(ctx, cacheKey(tenantID))
}

func (s *store) load(ctx context.Context, tenantID string) (stored, error) {
	stmt := repository.Builder.
		Select("document", "updated_at").
		From("rulesets").
		Where(sq.Eq{"tenant_id": tenantID})

	var text string
	var entry stored

	_, err := repository.SelectOne(ctx, s.db, stmt, func(sc repository.Scanner) (struct{}, error) {
		return struct{}{}, sc.Scan(&text, &entry.UpdatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return stored{}, nil
	}
	if err != nil {
		return stored{}, fmt.Errorf("load ruleset %s: %w", tenantID, err)
	}

	doc, err := Parse(text)
	if err != nil {
		s.logger.WarnContext(ctx, "stored ruleset unparseable, using empty ruleset", "tenant", tenantID, "error", err)
		return stored{UpdatedAt: entry.UpdatedAt}, nil
	}
	entry.Document = doc
	return entry, nil
}
