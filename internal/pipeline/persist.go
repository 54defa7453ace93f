package pipeline

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/prompts"
	"github.com/JaimeStill/scribe/internal/proposals"
	"github.com/JaimeStill/scribe/internal/rulesets"
	"github.com/JaimeStill/scribe/pkg/vector"
)

// Event subjects published after successful work.
const (
	SubjectProposalsCreated = "proposals.created"
	SubjectBatchCompleted   = "batches.completed"
)

// ProposalsCreated is published for each conversation that stored proposals.
type ProposalsCreated struct {
	TenantID       string      `json:"tenantId"`
	StreamID       string      `json:"streamId"`
	BatchID        string      `json:"batchId"`
	ConversationID uuid.UUID   `json:"conversationId"`
	ProposalIDs    []uuid.UUID `json:"proposalIds"`
	Pages          []string    `json:"pages"`
}

type convOutcome struct {
	route     string
	proposals int
	rejected  int
	err       error
}

func processConversation(ctx context.Context, rt *Runtime, batchID string, c *Conversation, rs *rulesets.Ruleset) convOutcome {
	if !c.Valuable() {
		return discard(ctx, rt, batchID, c)
	}

	docs, err := retrieve(ctx, rt, c)
	if err != nil {
		return convOutcome{route: "failed", err: err}
	}

	gen, err := propose(ctx, rt, c, docs, rs)
	if err != nil {
		return convOutcome{route: "failed", err: err}
	}

	archive(ctx, rt, Exchange{
		Stage:    prompts.StagePropose,
		StreamID: c.StreamID,
		BatchID:  batchID,
		Model:    gen.Model,
		System:   gen.System,
		User:     gen.User,
		Response: gen.Raw,
	}, c.ID.String())

	if gen.Response.ProposalsRejected && len(gen.Response.Proposals) > 0 {
		rt.Logger.WarnContext(ctx, "declined conversation returned proposals, ignoring them",
			"conversation", c.ID,
			"proposals", len(gen.Response.Proposals),
		)
		gen.Response.Proposals = nil
	}

	reviewed, err := review(ctx, rt, c, batchID, gen, docs, rs)
	if err != nil {
		return convOutcome{route: "failed", err: err}
	}

	rc := retrievalContext(c, batchID)
	rc.RetrievedDocs = retrievedDocs(docs)
	rc.TotalTokensEstimate = (utf8.RuneCountInString(gen.System) + utf8.RuneCountInString(gen.User)) / 4
	rc.ProposalsRejected = gen.Response.ProposalsRejected
	if gen.Response.RejectionReason != "" {
		reason := gen.Response.RejectionReason
		rc.RejectionReason = &reason
	}

	err = rt.Proposals.Commit(ctx, proposals.Commit{
		Context:    rc,
		Proposals:  reviewed.Proposals,
		Reviews:    reviewed.Reviews,
		MessageIDs: c.MessageIDs(),
	})
	if err != nil {
		return convOutcome{route: "failed", err: fmt.Errorf("%w: %w", ErrPersistFailed, err)}
	}

	if len(reviewed.Proposals) > 0 {
		evt := ProposalsCreated{
			TenantID:       rt.Tenant.ID,
			StreamID:       c.StreamID,
			BatchID:        batchID,
			ConversationID: c.ID,
		}
		for _, p := range reviewed.Proposals {
			evt.ProposalIDs = append(evt.ProposalIDs, p.ID)
			evt.Pages = append(evt.Pages, p.Page)
		}
		publish(ctx, rt, SubjectProposalsCreated, evt)
	}

	rt.Logger.InfoContext(ctx, "conversation processed",
		"conversation", c.ID,
		"category", c.Category,
		"messages", len(c.Messages),
		"docs", len(docs),
		"proposals", len(reviewed.Proposals),
		"rejected", reviewed.Rejected,
	)

	return convOutcome{
		route:     "proposal",
		proposals: len(reviewed.Proposals),
		rejected:  reviewed.Rejected,
	}
}

// discard records a conversation without documentation value and completes its messages.
func discard(ctx context.Context, rt *Runtime, batchID string, c *Conversation) convOutcome {
	rc := retrievalContext(c, batchID)
	rc.ProposalsRejected = true
	reason := c.DocValueReason
	rc.RejectionReason = &reason

	err := rt.Proposals.Commit(ctx, proposals.Commit{
		Context:    rc,
		MessageIDs: c.MessageIDs(),
	})
	if err != nil {
		return convOutcome{route: "failed", err: fmt.Errorf("%w: %w", ErrPersistFailed, err)}
	}

	rt.Logger.DebugContext(ctx, "conversation discarded", "conversation", c.ID, "reason", reason)
	return convOutcome{route: "discarded"}
}

func retrievalContext(c *Conversation, batchID string) proposals.RetrievalContext {
	return proposals.RetrievalContext{
		ConversationID: c.ID,
		BatchID:        batchID,
		StreamID:       c.StreamID,
		Channel:        c.Channel,
		Category:       c.Category,
		Summary:        c.Summary,
		MessageIDs:     c.MessageIDs(),
		TimeStart:      c.TimeStart,
		TimeEnd:        c.TimeEnd,
		RetrievedDocs:  []proposals.RetrievedDoc{},
	}
}

func retrievedDocs(docs []vector.Result) []proposals.RetrievedDoc {
	out := make([]proposals.RetrievedDoc, len(docs))
	for i, d := range docs {
		out[i] = proposals.RetrievedDoc{
			ID:         d.ID,
			FilePath:   d.FilePath,
			Title:      d.Title,
			Similarity: d.Similarity,
			Preview:    preview(d.Content),
		}
	}
	return out
}
