package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/classifications"
	"github.com/JaimeStill/scribe/internal/messages"
	"github.com/JaimeStill/scribe/internal/prompts"
	"github.com/JaimeStill/scribe/internal/proposals"
	"github.com/JaimeStill/scribe/internal/rulesets"
	"github.com/JaimeStill/scribe/pkg/events"
	"github.com/JaimeStill/scribe/pkg/lease"
	"github.com/JaimeStill/scribe/pkg/llm"
	"github.com/JaimeStill/scribe/pkg/vector"
)

// MessageSource is the subset of messages.System the pipeline reads and updates.
type MessageSource interface {
	EarliestPending(ctx context.Context, streamID string, since time.Time) (*messages.Message, error)
	FetchPending(ctx context.Context, streamID string, start, end time.Time, limit int) ([]messages.Message, error)
	FetchContext(ctx context.Context, streamID string, before time.Time, limit int) ([]messages.Message, error)
	PendingStreams(ctx context.Context) ([]string, error)
	MarkCompleted(ctx context.Context, ids []string) error
}

// WatermarkStore is the subset of watermarks.System the pipeline needs.
type WatermarkStore interface {
	Get(ctx context.Context, streamID string) (time.Time, error)
	Advance(ctx context.Context, streamID string, to, processedAt time.Time) error
}

// ClassificationStore is the subset of classifications.System the pipeline needs.
type ClassificationStore interface {
	Upsert(ctx context.Context, records []classifications.Record) error
	DeleteByMessages(ctx context.Context, messageIDs []string) (int64, error)
}

// ProposalStore is the subset of proposals.System the pipeline needs.
type ProposalStore interface {
	Commit(ctx context.Context, c proposals.Commit) error
	CountPending(ctx context.Context, page string, exclude uuid.UUID) (int, error)
}

// Composer builds stage system prompts.
type Composer interface {
	Compose(ctx context.Context, stage prompts.Stage, t prompts.Tenant, maxProposals int) (string, error)
}

// RulesetSource resolves the compiled ruleset of a tenant.
type RulesetSource interface {
	Get(ctx context.Context, tenantID string) (*rulesets.Ruleset, error)
}

// Archiver stores LLM exchanges for later inspection.
type Archiver interface {
	PutJSON(ctx context.Context, key string, v any) error
}

// Tenant identifies whose community and documentation the pipeline serves.
type Tenant struct {
	ID          string `toml:"id"`
	ProjectName string `toml:"project_name"`
	Domain      string `toml:"domain"`
}

func (t Tenant) prompt() prompts.Tenant {
	return prompts.Tenant{ProjectName: t.ProjectName, Domain: t.Domain}
}

// Runtime bundles the dependencies that pipeline stages require.
// It is constructed by higher-level composition code from Infrastructure and domain systems.
type Runtime struct {
	Config          Config
	Tenant          Tenant
	Messages        MessageSource
	Watermarks      WatermarkStore
	Classifications ClassificationStore
	Proposals       ProposalStore
	Prompts         Composer
	Rulesets        RulesetSource
	LLM             llm.Completer
	Vector          vector.Searcher
	Locker          lease.Locker
	Events          events.Publisher
	Archive         Archiver
	Metrics         *Metrics
	Logger          *slog.Logger
	Now             func() time.Time
}

func (rt *Runtime) now() time.Time {
	if rt.Now != nil {
		return rt.Now().UTC()
	}
	return time.Now().UTC()
}
