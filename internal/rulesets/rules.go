// Package rulesets loads tenant review rulesets and evaluates them against the
// enrichment signals of a proposal. Rules are written in loose plain language
// and compiled into tagged matchers; rules that cannot be compiled are skipped.
package rulesets

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind tags the matcher a rule compiled to.
type Kind string

// Rejection rule kinds.
const (
	KindOverlapAbove    Kind = "overlap_above"
	KindSimilarityAbove Kind = "similarity_above"
	KindContains        Kind = "contains"
	KindPageGlob        Kind = "page_glob"
	KindRegex           Kind = "regex"
)

// Quality gate kinds.
const (
	GateChangeAbove  Kind = "change_above"
	GateOverlapAbove Kind = "overlap_above"
	GateConsensus    Kind = "consensus"
	GateStyle        Kind = "style"
	GatePending      Kind = "pending"
)

// Signals are the facts about a proposal that rules are evaluated against.
type Signals struct {
	Text             string
	Page             string
	OverlapPercent   float64
	OverlapPath      string
	MaxSimilarity    float64
	ChangePercent    float64
	MessageCount     int
	AuthorCount      int
	HadConsensus     bool
	StyleNotes       []string
	PendingProposals int
}

// Rule is a compiled rejection rule.
type Rule struct {
	Source    string
	Kind      Kind
	Threshold float64
	Literal   string
	Pattern   *regexp.Regexp
}

// Gate is a compiled quality gate.
type Gate struct {
	Source    string
	Kind      Kind
	Threshold float64
}

var (
	slashRegex  = regexp.MustCompile(`(?:^|\s)/(.+)/([ims]*)$`)
	quoted      = regexp.MustCompile("[\"'`](.+?)[\"'`]")
	comparison  = `(?:above|over|exceeds?|exceeding|greater than|more than|>=?)\s*(\d+(?:\.\d+)?)\s*(%?)`
	overlapRe   = regexp.MustCompile(`(?i)(?:overlap|duplicat)\w*.*?` + comparison)
	similarRe   = regexp.MustCompile(`(?i)similar\w*.*?` + comparison)
	changeRe    = regexp.MustCompile(`(?i)(?:change|modif)\w*.*?` + comparison)
	pendingRe   = regexp.MustCompile(`(?i)pending|conflict|coordinat`)
	pendingNum  = regexp.MustCompile(`(?i)` + comparison)
	pageRe      = regexp.MustCompile(`(?i)\b(?:page|path|file)s?\s+(?:matches|matching|match|under|in|like)\s+["'` + "`" + `]?([^\s"'` + "`" + `]+)`)
	containsRe  = regexp.MustCompile(`(?i)\bcontain(?:s|ing)?\b`)
	consensusRe = regexp.MustCompile(`(?i)consensus`)
	styleRe     = regexp.MustCompile(`(?i)style`)
)

// CompileRule turns a plain-language rejection rule into a tagged matcher.
func CompileRule(source string) (Rule, error) {
	text := strings.TrimSpace(source)
	r := Rule{Source: source}

	if m := pageRe.FindStringSubmatch(text); m != nil {
		if !doublestar.ValidatePattern(m[1]) {
			return r, fmt.Errorf("invalid page pattern %q", m[1])
		}
		r.Kind, r.Literal = KindPageGlob, m[1]
		return r, nil
	}

	if m := slashRegex.FindStringSubmatch(text); m != nil {
		pattern := m[1]
		if m[2] != "" {
			pattern = "(?" + m[2] + ")" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return r, fmt.Errorf("compile %q: %w", source, err)
		}
		r.Kind, r.Pattern = KindRegex, re
		return r, nil
	}

	if containsRe.MatchString(text) {
		if m := quoted.FindStringSubmatch(text); m != nil {
			r.Kind, r.Literal = KindContains, strings.ToLower(m[1])
			return r, nil
		}
	}

	if m := overlapRe.FindStringSubmatch(text); m != nil {
		r.Kind, r.Threshold = KindOverlapAbove, number(m[1])
		return r, nil
	}

	if m := similarRe.FindStringSubmatch(text); m != nil {
		r.Kind, r.Threshold = KindSimilarityAbove, ratio(m[1], m[2] == "%")
		return r, nil
	}

	return r, fmt.Errorf("unrecognized rule %q", source)
}

// CompileGate turns a plain-language quality gate into a tagged check.
func CompileGate(source string) (Gate, error) {
	text := strings.TrimSpace(source)
	g := Gate{Source: source}

	switch {
	case overlapRe.MatchString(text):
		m := overlapRe.FindStringSubmatch(text)
		g.Kind, g.Threshold = GateOverlapAbove, number(m[1])
	case changeRe.MatchString(text):
		m := changeRe.FindStringSubmatch(text)
		g.Kind, g.Threshold = GateChangeAbove, number(m[1])
	case consensusRe.MatchString(text):
		g.Kind = GateConsensus
	case styleRe.MatchString(text):
		g.Kind = GateStyle
	case pendingRe.MatchString(text):
		g.Kind = GatePending
		if m := pendingNum.FindStringSubmatch(text); m != nil {
			g.Threshold = number(m[1])
		}
	default:
		return g, fmt.Errorf("unrecognized gate %q", source)
	}

	return g, nil
}

// Match reports whether the rule rejects a proposal with s, and why.
func (r Rule) Match(s Signals) (string, bool) {
	switch r.Kind {
	case KindOverlapAbove:
		if s.OverlapPercent > r.Threshold {
			return fmt.Sprintf("%.0f%% overlap with %s exceeds %.0f%%", s.OverlapPercent, orUnknown(s.OverlapPath), r.Threshold), true
		}
	case KindSimilarityAbove:
		if s.MaxSimilarity > r.Threshold {
			return fmt.Sprintf("similarity %.2f to existing documentation exceeds %.2f", s.MaxSimilarity, r.Threshold), true
		}
	case KindContains:
		if strings.Contains(strings.ToLower(s.Text), r.Literal) {
			return fmt.Sprintf("proposed text contains %q", r.Literal), true
		}
	case KindPageGlob:
		page := strings.TrimPrefix(s.Page, "/")
		if ok, _ := doublestar.Match(strings.TrimPrefix(r.Literal, "/"), page); ok {
			return fmt.Sprintf("page %s matches %s", s.Page, r.Literal), true
		}
	case KindRegex:
		if r.Pattern.MatchString(s.Text) {
			return fmt.Sprintf("proposed text matches %s", r.Pattern), true
		}
	}
	return "", false
}

// Check returns the flag the gate raises for s, if any.
func (g Gate) Check(s Signals) (string, bool) {
	switch g.Kind {
	case GateChangeAbove:
		if s.ChangePercent > g.Threshold {
			return fmt.Sprintf("significant change: %.0f%% modification", s.ChangePercent), true
		}
	case GateOverlapAbove:
		if s.OverlapPercent > g.Threshold {
			return fmt.Sprintf("possible duplicate: %.0f%% overlap with %s", s.OverlapPercent, orUnknown(s.OverlapPath)), true
		}
	case GateConsensus:
		if !s.HadConsensus {
			return fmt.Sprintf("no consensus: %d author(s) across %d message(s)", s.AuthorCount, s.MessageCount), true
		}
	case GateStyle:
		if len(s.StyleNotes) > 0 {
			return "style mismatch: " + strings.Join(s.StyleNotes, "; "), true
		}
	case GatePending:
		if float64(s.PendingProposals) > g.Threshold {
			return fmt.Sprintf("%d other pending proposal(s) for %s", s.PendingProposals, s.Page), true
		}
	}
	return "", false
}

func number(v string) float64 {
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

// ratio reads a similarity threshold. Values written as percentages or above 1
// are scaled into [0,1].
func ratio(v string, pct bool) float64 {
	f, _ := strconv.ParseFloat(v, 64)
	if pct || f > 1 {
		return f / 100
	}
	return f
}

func orUnknown(s string) string {
	if s == "" {
		return "an existing page"
	}
	return s
}
