package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JaimeStill/scribe/internal/prompts"
	"github.com/JaimeStill/scribe/internal/proposals"
	"github.com/JaimeStill/scribe/internal/rulesets"
	"github.com/JaimeStill/scribe/pkg/llm"
	"github.com/JaimeStill/scribe/pkg/vector"
)

const (
	maxReasoningChars = 2000
	previewChars      = 300
)

// ProposedChange is a single proposal as returned by the model.
type ProposedChange struct {
	UpdateType     proposals.UpdateType `json:"updateType"`
	Page           string               `json:"page"`
	Section        string               `json:"section"`
	Location       *proposals.Location  `json:"location,omitempty"`
	SuggestedText  string               `json:"suggestedText"`
	Reasoning      string               `json:"reasoning"`
	SourceMessages []string             `json:"sourceMessages"`
	Warnings       []string             `json:"warnings"`
}

// ProposeResponse is the structured proposal generator output.
type ProposeResponse struct {
	Proposals         []ProposedChange `json:"proposals"`
	ProposalsRejected bool             `json:"proposalsRejected"`
	RejectionReason   string           `json:"rejectionReason"`
}

// Validate enforces the response format constraints.
func (r ProposeResponse) Validate() error {
	for i, p := range r.Proposals {
		field := fmt.Sprintf("proposals[%d]", i)
		if !p.UpdateType.Valid() {
			return llm.Invalid(field+".updateType", "must be one of INSERT, UPDATE, DELETE, NONE, got %q", p.UpdateType)
		}
		if p.UpdateType != proposals.UpdateNone && strings.TrimSpace(p.Page) == "" {
			return llm.Invalid(field+".page", "required for %s", p.UpdateType)
		}
		if strings.TrimSpace(p.Reasoning) == "" {
			return llm.Invalid(field+".reasoning", "must not be empty")
		}
		if n := utf8.RuneCountInString(p.Reasoning); n > maxReasoningChars {
			return llm.Invalid(field+".reasoning", "at most %d characters allowed, got %d", maxReasoningChars, n)
		}
		switch p.UpdateType {
		case proposals.UpdateInsert, proposals.UpdateUpdate:
			if strings.TrimSpace(p.SuggestedText) == "" {
				return llm.Invalid(field+".suggestedText", "required for %s", p.UpdateType)
			}
		}
	}
	return nil
}

// Generation is the outcome of asking the model for proposals.
type Generation struct {
	Response ProposeResponse
	Model    string
	Raw      string
	System   string
	User     string
}

func propose(ctx context.Context, rt *Runtime, c *Conversation, docs []vector.Result, rs *rulesets.Ruleset) (*Generation, error) {
	system, err := rt.Prompts.Compose(ctx, prompts.StagePropose, rt.Tenant.prompt(), rt.Config.MaxProposals)
	if err != nil {
		return nil, fmt.Errorf("%w: compose prompt: %w", ErrProposeFailed, err)
	}
	user := proposalPrompt(c, docs, rs, rt.Config)

	resp, err := llm.RequestStructured[ProposeResponse](ctx, rt.LLM, llm.StructuredOptions{
		System:    system,
		User:      user,
		MaxTokens: rt.Config.ProposeMaxTokens,
		Attempts:  rt.Config.SchemaAttempts,
		Logger:    rt.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProposeFailed, err)
	}

	gen := &Generation{
		Response: resp.Value,
		Model:    resp.Model,
		Raw:      resp.Raw,
		System:   system,
		User:     user,
	}

	if n := len(gen.Response.Proposals); n > rt.Config.MaxProposals {
		rt.Logger.WarnContext(ctx, "proposals truncated",
			"conversation", c.ID,
			"received", n,
			"limit", rt.Config.MaxProposals,
		)
		gen.Response.Proposals = gen.Response.Proposals[:rt.Config.MaxProposals]
	}

	return gen, nil
}

func proposalPrompt(c *Conversation, docs []vector.Result, rs *rulesets.Ruleset, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Conversation in #%s (%s)\n", c.Channel, c.Category)
	fmt.Fprintf(&b, "Summary: %s\n", c.Summary)
	if c.DocValueReason != "" {
		fmt.Fprintf(&b, "Documentation value: %s\n", c.DocValueReason)
	}
	b.WriteString("\n")
	b.WriteString(FormatTranscript(c.Messages, nil, cfg.MessageCharLimit))
	b.WriteString("\n\n")

	if len(docs) == 0 {
		b.WriteString("No existing documentation matched this conversation.\n")
	} else {
		b.WriteString("Relevant documentation:\n")
		for _, d := range docs {
			fmt.Fprintf(&b, "\n--- %s", d.FilePath)
			if d.Title != "" {
				fmt.Fprintf(&b, " (%s)", d.Title)
			}
			fmt.Fprintf(&b, " similarity %.2f ---\n", d.Similarity)
			b.WriteString(truncate(d.Content, cfg.DocCharBudget))
			b.WriteString("\n")
		}
	}

	if summary := rs.Summary(); summary != "" {
		b.WriteString("\nReview rules:\n")
		b.WriteString(summary)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

var (
	fenceOpen  = regexp.MustCompile("^```[\\w+-]*\\n")
	fenceClose = regexp.MustCompile("\\n```$")
	blankLines = regexp.MustCompile(`\n{3,}`)
	trailingWS = regexp.MustCompile(`[ \t]+\n`)
)

// Normalize cleans model-written markdown and lists each change it made.
func Normalize(text string) (string, []string) {
	mods := []string{}
	out := text

	if s := strings.ReplaceAll(strings.ReplaceAll(out, "\r\n", "\n"), "\r", "\n"); s != out {
		out = s
		mods = append(mods, "normalized line endings")
	}

	if !strings.Contains(out, "\n") && strings.Contains(out, `\n`) {
		out = strings.ReplaceAll(out, `\n`, "\n")
		mods = append(mods, "unescaped newline sequences")
	}

	if s := strings.TrimSpace(out); s != out {
		out = s
		mods = append(mods, "trimmed surrounding whitespace")
	}

	if s, ok := unwrapFence(out); ok {
		out = s
		mods = append(mods, "removed wrapping code fence")
	}

	if s := trailingWS.ReplaceAllString(out, "\n"); s != out {
		out = s
		mods = append(mods, "removed trailing whitespace")
	}

	if s := blankLines.ReplaceAllString(out, "\n\n"); s != out {
		out = s
		mods = append(mods, "collapsed repeated blank lines")
	}

	return out, mods
}

// unwrapFence removes a code fence that encloses the whole text. Text holding
// more than one fence pair is left alone since the fences are content.
func unwrapFence(text string) (string, bool) {
	if strings.Count(text, "```") != 2 {
		return text, false
	}
	open := fenceOpen.FindString(text)
	if open == "" || !fenceClose.MatchString(text) {
		return text, false
	}
	inner := strings.TrimSuffix(text[len(open):], "```")
	return strings.TrimSpace(inner), true
}

func preview(content string) string {
	return truncate(flatten(content), previewChars)
}
