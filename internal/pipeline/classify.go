package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JaimeStill/scribe/internal/classifications"
	"github.com/JaimeStill/scribe/internal/messages"
	"github.com/JaimeStill/scribe/internal/prompts"
	"github.com/JaimeStill/scribe/pkg/llm"
)

const (
	maxThreads        = 500
	maxSummaryChars   = 500
	maxReasonChars    = 500
	unassignedReason  = "not assigned to any thread by the classifier"
	unassignedSummary = "unclassified message"
)

// Thread is a group of batch messages the classifier judged to belong together.
type Thread struct {
	Category       string                          `json:"category"`
	MessageIDs     []string                        `json:"messageIds"`
	Summary        string                          `json:"summary"`
	DocValueReason string                          `json:"docValueReason"`
	Criteria       *classifications.SearchCriteria `json:"ragSearchCriteria,omitempty"`

	// Synthetic marks threads created for messages the classifier left out.
	Synthetic bool `json:"-"`
}

// ClassifyResponse is the structured classifier output.
type ClassifyResponse struct {
	Threads []Thread `json:"threads"`
}

// Validate enforces the response format constraints.
func (r ClassifyResponse) Validate() error {
	if len(r.Threads) > maxThreads {
		return llm.Invalid("threads", "at most %d threads allowed, got %d", maxThreads, len(r.Threads))
	}
	for i, t := range r.Threads {
		field := fmt.Sprintf("threads[%d]", i)
		if strings.TrimSpace(t.Category) == "" {
			return llm.Invalid(field+".category", "must not be empty")
		}
		if len(t.MessageIDs) == 0 {
			return llm.Invalid(field+".messageIds", "must contain at least one message ID")
		}
		for j, id := range t.MessageIDs {
			if strings.TrimSpace(id) == "" {
				return llm.Invalid(fmt.Sprintf("%s.messageIds[%d]", field, j), "must not be empty")
			}
		}
		if n := utf8.RuneCountInString(t.Summary); n > maxSummaryChars {
			return llm.Invalid(field+".summary", "at most %d characters allowed, got %d", maxSummaryChars, n)
		}
		if n := utf8.RuneCountInString(t.DocValueReason); n > maxReasonChars {
			return llm.Invalid(field+".docValueReason", "at most %d characters allowed, got %d", maxReasonChars, n)
		}
	}
	return nil
}

// Classification is the outcome of classifying one batch.
type Classification struct {
	Threads []Thread
	Model   string
	Raw     string
	System  string
	User    string
}

func classify(ctx context.Context, rt *Runtime, batch, prior []messages.Message) (*Classification, error) {
	system, err := rt.Prompts.Compose(ctx, prompts.StageClassify, rt.Tenant.prompt(), rt.Config.MaxProposals)
	if err != nil {
		return nil, fmt.Errorf("%w: compose prompt: %w", ErrClassifyFailed, err)
	}
	user := FormatTranscript(batch, prior, rt.Config.MessageCharLimit)

	resp, err := llm.RequestStructured[ClassifyResponse](ctx, rt.LLM, llm.StructuredOptions{
		System:    system,
		User:      user,
		MaxTokens: rt.Config.ClassifyMaxTokens,
		Attempts:  rt.Config.SchemaAttempts,
		Logger:    rt.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassifyFailed, err)
	}

	threads, stripped := EnsureComplete(resp.Value.Threads, batch)
	if stripped > 0 {
		rt.Logger.WarnContext(ctx, "classifier thread membership corrected", "ids_removed", stripped)
	}

	return &Classification{
		Threads: threads,
		Model:   resp.Model,
		Raw:     resp.Raw,
		System:  system,
		User:    user,
	}, nil
}

// EnsureComplete makes threads an exact partition of batch. IDs outside the
// batch (context or invented) are stripped, a message claimed by several threads
// stays in the first, threads left empty are dropped, and every unclaimed batch
// message gets its own synthetic no-doc-value thread. It returns the corrected
// threads and the number of IDs removed.
func EnsureComplete(threads []Thread, batch []messages.Message) ([]Thread, int) {
	inBatch := make(map[string]bool, len(batch))
	for _, m := range batch {
		inBatch[m.ID] = true
	}

	claimed := make(map[string]bool, len(batch))
	removed := 0
	out := make([]Thread, 0, len(threads))

	for _, t := range threads {
		ids := make([]string, 0, len(t.MessageIDs))
		for _, id := range t.MessageIDs {
			id = strings.TrimSpace(id)
			if !inBatch[id] || claimed[id] {
				removed++
				continue
			}
			claimed[id] = true
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			continue
		}
		t.MessageIDs = ids
		t.Category = strings.ToLower(strings.TrimSpace(t.Category))
		out = append(out, t)
	}

	for _, m := range batch {
		if claimed[m.ID] {
			continue
		}
		out = append(out, Thread{
			Category:       classifications.NoDocValue,
			MessageIDs:     []string{m.ID},
			Summary:        unassignedSummary,
			DocValueReason: unassignedReason,
			Synthetic:      true,
		})
	}

	return out, removed
}
