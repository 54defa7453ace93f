// Package enrichment computes the review signals attached to each generated
// proposal: related documentation, duplication against existing pages, style
// fit, change impact and source consensus.
package enrichment

import (
	"github.com/JaimeStill/scribe/pkg/vector"
)

// RelatedDoc is a retrieved page ranked as relevant to a proposal.
type RelatedDoc struct {
	ID         string  `json:"id"`
	FilePath   string  `json:"filePath"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// Duplication describes the retrieved page whose wording overlaps the proposal most.
type Duplication struct {
	DocID          string  `json:"docId"`
	FilePath       string  `json:"filePath"`
	OverlapPercent float64 `json:"overlapPercent"`
	Flagged        bool    `json:"flagged"`
}

// ChangeImpact compares the proposal against the section it targets.
type ChangeImpact struct {
	SectionFound     bool    `json:"sectionFound"`
	OriginalChars    int     `json:"originalChars"`
	ProposedChars    int     `json:"proposedChars"`
	CharDelta        int     `json:"charDelta"`
	PercentChange    float64 `json:"percentChange"`
	PendingProposals int     `json:"pendingProposals"`
}

// SourceAnalysis summarizes the conversation a proposal came from.
type SourceAnalysis struct {
	MessageCount int  `json:"messageCount"`
	AuthorCount  int  `json:"authorCount"`
	HadConsensus bool `json:"hadConsensus"`
}

// Enrichment is the full signal set stored with a proposal.
type Enrichment struct {
	RelatedDocs  []RelatedDoc   `json:"relatedDocs"`
	Duplication  *Duplication   `json:"duplication,omitempty"`
	Style        *StyleAnalysis `json:"style,omitempty"`
	ChangeImpact ChangeImpact   `json:"changeImpact"`
	Source       SourceAnalysis `json:"source"`
}

// Config tunes the enrichment thresholds.
type Config struct {
	SimilarityFloor  float64
	RelatedLimit     int
	OverlapThreshold float64
	NGram            int
}

// DefaultConfig returns the thresholds used when none are configured.
func DefaultConfig() Config {
	return Config{
		SimilarityFloor:  0.5,
		RelatedLimit:     5,
		OverlapThreshold: 80,
		NGram:            3,
	}
}

// Input is everything known about a proposal at review time.
type Input struct {
	SuggestedText    string
	Page             string
	Section          string
	Docs             []vector.Result
	Authors          []string
	PendingProposals int
}

// Enrich computes every signal for a single proposal.
func Enrich(cfg Config, in Input) Enrichment {
	text := PlainText(in.SuggestedText)

	e := Enrichment{
		RelatedDocs: RelatedDocs(in.Docs, cfg.SimilarityFloor, cfg.RelatedLimit),
		Duplication: FindDuplication(text, in.Docs, cfg.NGram, cfg.OverlapThreshold),
		Source:      Sources(in.Authors),
	}

	var original string
	var sectionFound bool

	proposed := AnalyzeStyle(in.SuggestedText)
	e.Style = &StyleAnalysis{Proposal: proposed, Notes: []string{}}

	if target, ok := MatchPage(in.Docs, in.Page); ok {
		page := AnalyzeStyle(target.Content)
		e.Style.Page = &page
		e.Style.Notes = CompareStyle(proposed, page)

		original, sectionFound = SectionText(target.Content, in.Section)
		if !sectionFound {
			original = target.Content
		}
	}

	e.ChangeImpact = Impact(original, in.SuggestedText, in.PendingProposals)
	e.ChangeImpact.SectionFound = sectionFound

	return e
}
