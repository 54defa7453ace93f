package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/enrichment"
	"github.com/JaimeStill/scribe/internal/proposals"
	"github.com/JaimeStill/scribe/internal/rulesets"
	"github.com/JaimeStill/scribe/pkg/vector"
)

// Reviewed is the outcome of reviewing a conversation's generated proposals.
// Rejected proposals appear only in Reviews.
type Reviewed struct {
	Proposals []proposals.Proposal
	Reviews   []proposals.ReviewLog
	Rejected  int
}

func review(ctx context.Context, rt *Runtime, c *Conversation, batchID string, gen *Generation, docs []vector.Result, rs *rulesets.Ruleset) (*Reviewed, error) {
	cfg := enrichment.Config{
		SimilarityFloor:  rt.Config.SimilarityFloor,
		RelatedLimit:     rt.Config.TopK,
		OverlapThreshold: rt.Config.OverlapThreshold,
		NGram:            enrichment.DefaultConfig().NGram,
	}

	out := &Reviewed{}
	for _, change := range gen.Response.Proposals {
		p := proposals.Proposal{
			ID:             uuid.New(),
			ConversationID: c.ID,
			BatchID:        batchID,
			UpdateType:     change.UpdateType,
			Page:           strings.TrimSpace(change.Page),
			Location:       change.Location,
			Reasoning:      strings.TrimSpace(change.Reasoning),
			SourceMessages: nonNil(change.SourceMessages),
			Warnings:       nonNil(change.Warnings),
			ModelUsed:      gen.Model,
			Status:         proposals.StatusPending,
		}
		if s := strings.TrimSpace(change.Section); s != "" {
			p.Section = &s
		}
		if len(p.SourceMessages) == 0 {
			p.SourceMessages = c.MessageIDs()
		}

		if p.UpdateType == proposals.UpdateNone {
			out.Proposals = append(out.Proposals, p)
			rt.Metrics.proposal("none")
			continue
		}

		raw := change.SuggestedText
		text, mods := Normalize(raw)
		if text != "" {
			p.SuggestedText = &text
		}
		if raw != text {
			p.RawSuggestedText = &raw
		}

		pending, err := rt.Proposals.CountPending(ctx, p.Page, c.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: count pending proposals: %w", ErrPersistFailed, err)
		}

		e := enrichment.Enrich(cfg, enrichment.Input{
			SuggestedText:    text,
			Page:             p.Page,
			Section:          change.Section,
			Docs:             docs,
			Authors:          c.Authors(),
			PendingProposals: pending,
		})
		p.Enrichment = &e

		decision := rs.Evaluate(signals(p, e, docs))

		log := proposals.ReviewLog{
			ProposalID:           p.ID,
			ConversationID:       c.ID,
			RulesetVersion:       rs.Version(),
			OriginalContent:      raw,
			ModificationsApplied: mods,
			Rejected:             decision.Rejected,
			QualityFlags:         decision.Flags,
		}

		if decision.Rejected {
			log.RejectionRule = &decision.Rule
			log.RejectionReason = &decision.Reason
			out.Reviews = append(out.Reviews, log)
			out.Rejected++
			rt.Metrics.proposal("rejected")
			rt.Logger.InfoContext(ctx, "proposal rejected by ruleset",
				"conversation", c.ID,
				"page", p.Page,
				"rule", decision.Rule,
				"reason", decision.Reason,
			)
			continue
		}

		out.Proposals = append(out.Proposals, p)
		out.Reviews = append(out.Reviews, log)
		rt.Metrics.proposal("accepted")
	}

	return out, nil
}

func signals(p proposals.Proposal, e enrichment.Enrichment, docs []vector.Result) rulesets.Signals {
	s := rulesets.Signals{
		Page:             p.Page,
		ChangePercent:    e.ChangeImpact.PercentChange,
		MessageCount:     e.Source.MessageCount,
		AuthorCount:      e.Source.AuthorCount,
		HadConsensus:     e.Source.HadConsensus,
		PendingProposals: e.ChangeImpact.PendingProposals,
	}
	if p.SuggestedText != nil {
		s.Text = *p.SuggestedText
	}
	if e.Duplication != nil {
		s.OverlapPercent = e.Duplication.OverlapPercent
		s.OverlapPath = e.Duplication.FilePath
	}
	if e.Style != nil {
		s.StyleNotes = e.Style.Notes
	}
	for _, d := range docs {
		s.MaxSimilarity = max(s.MaxSimilarity, d.Similarity)
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
