package enrichment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Format is the dominant layout of a text.
type Format string

// Layouts.
const (
	FormatProse Format = "prose"
	FormatList  Format = "list"
	FormatMixed Format = "mixed"
)

// Depth estimates how technical a text reads.
type Depth string

// Technical depth levels.
const (
	DepthLow    Depth = "low"
	DepthMedium Depth = "medium"
	DepthHigh   Depth = "high"
)

// StyleMetrics are heuristic measurements of a text.
type StyleMetrics struct {
	SentenceCount     int     `json:"sentenceCount"`
	AvgSentenceLength float64 `json:"avgSentenceLength"`
	HasCodeBlocks     bool    `json:"hasCodeBlocks"`
	Format            Format  `json:"format"`
	TechnicalDepth    Depth   `json:"technicalDepth"`
}

// StyleAnalysis compares a proposal with the page it targets.
// Page is nil when the target page was not among the retrieved docs.
type StyleAnalysis struct {
	Proposal StyleMetrics  `json:"proposal"`
	Page     *StyleMetrics `json:"page,omitempty"`
	Notes    []string      `json:"notes"`
}

// Mismatch reports whether any style note was raised.
func (s *StyleAnalysis) Mismatch() bool {
	return s != nil && len(s.Notes) > 0
}

var (
	fencedCode = regexp.MustCompile("(?s)```.*?(```|$)")
	inlineCode = regexp.MustCompile("`[^`\n]+`")
	listItem   = regexp.MustCompile(`^\s*([-*+]|\d+[.)])\s+`)
	technical  = regexp.MustCompile(`^(--?[a-z][\w-]*|[\w.-]*/[\w./-]+|[a-z]+[A-Z]\w*|\w+_\w+|\w+\(\)|\w+\.\w+\.\w+)$`)
)

// AnalyzeStyle measures text. Sentences are segmented with prose after code
// blocks are removed.
func AnalyzeStyle(text string) StyleMetrics {
	text = PlainText(text)

	m := StyleMetrics{
		HasCodeBlocks: strings.Contains(text, "```"),
		Format:        format(text),
	}

	narrative := fencedCode.ReplaceAllString(text, " ")
	sentences := segment(narrative)
	m.SentenceCount = len(sentences)

	words := 0
	for _, s := range sentences {
		words += len(strings.Fields(s))
	}
	if m.SentenceCount > 0 {
		m.AvgSentenceLength = float64(words) / float64(m.SentenceCount)
	}

	m.TechnicalDepth = depth(text, narrative, m.HasCodeBlocks)
	return m
}

// CompareStyle produces human-readable notes where proposal departs from page.
func CompareStyle(proposal, page StyleMetrics) []string {
	notes := []string{}

	if proposal.Format != page.Format {
		notes = append(notes, fmt.Sprintf("proposal uses %s format while the page uses %s", proposal.Format, page.Format))
	}

	if page.HasCodeBlocks && !proposal.HasCodeBlocks {
		notes = append(notes, "page uses code blocks but the proposal has none")
	}
	if proposal.HasCodeBlocks && !page.HasCodeBlocks {
		notes = append(notes, "proposal introduces code blocks to a page without them")
	}

	if proposal.AvgSentenceLength > 0 && page.AvgSentenceLength > 0 {
		ratio := proposal.AvgSentenceLength / page.AvgSentenceLength
		if ratio > 1.5 || ratio < 1/1.5 {
			notes = append(notes, fmt.Sprintf(
				"average sentence length %.0f words vs %.0f on the page",
				proposal.AvgSentenceLength, page.AvgSentenceLength,
			))
		}
	}

	if depthRank(proposal.TechnicalDepth)-depthRank(page.TechnicalDepth) >= 2 ||
		depthRank(page.TechnicalDepth)-depthRank(proposal.TechnicalDepth) >= 2 {
		notes = append(notes, fmt.Sprintf(
			"technical depth %s differs from the page's %s",
			proposal.TechnicalDepth, page.TechnicalDepth,
		))
	}

	return notes
}

func segment(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	doc, err := prose.NewDocument(
		text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return []string{text}
	}

	sentences := make([]string, 0)
	for _, s := range doc.Sentences() {
		if strings.TrimSpace(s.Text) != "" {
			sentences = append(sentences, s.Text)
		}
	}
	return sentences
}

func format(text string) Format {
	var lines, items int
	for line := range strings.SplitSeq(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines++
		if listItem.MatchString(line) {
			items++
		}
	}

	switch {
	case items == 0:
		return FormatProse
	case float64(items)/float64(lines) >= 0.6:
		return FormatList
	default:
		return FormatMixed
	}
}

func depth(text, narrative string, code bool) Depth {
	fields := strings.Fields(narrative)
	if len(fields) == 0 {
		if code {
			return DepthMedium
		}
		return DepthLow
	}

	terms := len(inlineCode.FindAllString(text, -1))
	for _, f := range fields {
		if technical.MatchString(strings.Trim(f, ".,;:!?\"'()")) {
			terms++
		}
	}

	ratio := float64(terms) / float64(len(fields))
	switch {
	case ratio >= 0.15 || (code && ratio >= 0.05):
		return DepthHigh
	case ratio >= 0.05 || code:
		return DepthMedium
	default:
		return DepthLow
	}
}

func depthRank(d Depth) int {
	switch d {
	case DepthHigh:
		return 2
	case DepthMedium:
		return 1
	}
	return 0
}
