package proposals

import (
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/scribe/pkg/repository"
)

var contextColumns = []string{
	"conversation_id",
	"batch_id",
	"stream_id",
	"channel",
	"category",
	"summary",
	"message_ids",
	"time_start",
	"time_end",
	"retrieved_docs",
	"total_tokens_estimate",
	"proposals_rejected",
	"rejection_reason",
}

var proposalColumns = []string{
	"id",
	"conversation_id",
	"batch_id",
	"update_type",
	"page",
	"section",
	"location",
	"suggested_text",
	"raw_suggested_text",
	"reasoning",
	"source_messages",
	"warnings",
	"enrichment",
	"model_used",
	"status",
}

var reviewColumns = []string{
	"proposal_id",
	"conversation_id",
	"ruleset_version",
	"original_content",
	"modifications_applied",
	"rejected",
	"rejection_rule",
	"rejection_reason",
	"quality_flags",
}

// jsonb marshals v for a JSONB column, storing nil slices as empty arrays.
func jsonb[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	return json.Marshal(v)
}

// nullableJSON marshals v, returning nil for a nil pointer.
func nullableJSON[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func decode(raw []byte, dest any, column string) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", column, err)
	}
	return nil
}

func scanContext(s repository.Scanner) (RetrievalContext, error) {
	var c RetrievalContext
	var idsRaw, docsRaw []byte

	err := s.Scan(
		&c.ConversationID,
		&c.BatchID,
		&c.StreamID,
		&c.Channel,
		&c.Category,
		&c.Summary,
		&idsRaw,
		&c.TimeStart,
		&c.TimeEnd,
		&docsRaw,
		&c.TotalTokensEstimate,
		&c.ProposalsRejected,
		&c.RejectionReason,
	)
	if err != nil {
		return c, err
	}

	if err := decode(idsRaw, &c.MessageIDs, "message_ids"); err != nil {
		return c, err
	}
	if err := decode(docsRaw, &c.RetrievedDocs, "retrieved_docs"); err != nil {
		return c, err
	}
	return c, nil
}

func scanProposal(s repository.Scanner) (Proposal, error) {
	var p Proposal
	var locationRaw, sourcesRaw, warningsRaw, enrichmentRaw []byte

	err := s.Scan(
		&p.ID,
		&p.ConversationID,
		&p.BatchID,
		&p.UpdateType,
		&p.Page,
		&p.Section,
		&locationRaw,
		&p.SuggestedText,
		&p.RawSuggestedText,
		&p.Reasoning,
		&sourcesRaw,
		&warningsRaw,
		&enrichmentRaw,
		&p.ModelUsed,
		&p.Status,
	)
	if err != nil {
		return p, err
	}

	if len(locationRaw) > 0 {
		p.Location = &Location{}
		if err := decode(locationRaw, p.Location, "location"); err != nil {
			return p, err
		}
	}
	if len(enrichmentRaw) > 0 {
		if err := decode(enrichmentRaw, &p.Enrichment, "enrichment"); err != nil {
			return p, err
		}
	}
	if err := decode(sourcesRaw, &p.SourceMessages, "source_messages"); err != nil {
		return p, err
	}
	if err := decode(warningsRaw, &p.Warnings, "warnings"); err != nil {
		return p, err
	}
	return p, nil
}

func contextValues(c RetrievalContext) ([]any, error) {
	ids, err := jsonb(c.MessageIDs)
	if err != nil {
		return nil, err
	}
	docs, err := jsonb(c.RetrievedDocs)
	if err != nil {
		return nil, err
	}

	return []any{
		c.ConversationID,
		c.BatchID,
		c.StreamID,
		c.Channel,
		c.Category,
		c.Summary,
		ids,
		c.TimeStart,
		c.TimeEnd,
		docs,
		c.TotalTokensEstimate,
		c.ProposalsRejected,
		c.RejectionReason,
	}, nil
}

func proposalValues(p Proposal) ([]any, error) {
	location, err := nullableJSON(p.Location)
	if err != nil {
		return nil, err
	}
	sources, err := jsonb(p.SourceMessages)
	if err != nil {
		return nil, err
	}
	warnings, err := jsonb(p.Warnings)
	if err != nil {
		return nil, err
	}
	enriched, err := nullableJSON(p.Enrichment)
	if err != nil {
		return nil, err
	}

	status := p.Status
	if status == "" {
		status = StatusPending
	}

	return []any{
		p.ID,
		p.ConversationID,
		p.BatchID,
		p.UpdateType,
		p.Page,
		p.Section,
		location,
		p.SuggestedText,
		p.RawSuggestedText,
		p.Reasoning,
		sources,
		warnings,
		enriched,
		p.ModelUsed,
		status,
	}, nil
}

func reviewValues(r ReviewLog) ([]any, error) {
	mods, err := jsonb(r.ModificationsApplied)
	if err != nil {
		return nil, err
	}
	flags, err := jsonb(r.QualityFlags)
	if err != nil {
		return nil, err
	}

	return []any{
		r.ProposalID,
		r.ConversationID,
		r.RulesetVersion,
		r.OriginalContent,
		mods,
		r.Rejected,
		r.RejectionRule,
		r.RejectionReason,
		flags,
	}, nil
}
