package rulesets

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Document is the stored YAML form of a tenant ruleset.
type Document struct {
	RejectionRules []string `yaml:"rejectionRules" json:"rejectionRules"`
	QualityGates   []string `yaml:"qualityGates" json:"qualityGates"`
}

// Parse decodes a YAML ruleset document. An empty document is valid.
func Parse(text string) (Document, error) {
	var doc Document
	if strings.TrimSpace(text) == "" {
		return doc, nil
	}
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

// Ruleset is a compiled tenant ruleset.
type Ruleset struct {
	TenantID  string
	Rules     []Rule
	Gates     []Gate
	Skipped   []string
	UpdatedAt time.Time
}

// Compile builds a Ruleset from doc. Entries that do not compile are recorded
// in Skipped along with the reason.
func Compile(tenantID string, doc Document, updatedAt time.Time) *Ruleset {
	rs := &Ruleset{
		TenantID:  tenantID,
		UpdatedAt: updatedAt,
	}

	for _, src := range doc.RejectionRules {
		if strings.TrimSpace(src) == "" {
			continue
		}
		r, err := CompileRule(src)
		if err != nil {
			rs.Skipped = append(rs.Skipped, err.Error())
			continue
		}
		rs.Rules = append(rs.Rules, r)
	}

	for _, src := range doc.QualityGates {
		if strings.TrimSpace(src) == "" {
			continue
		}
		g, err := CompileGate(src)
		if err != nil {
			rs.Skipped = append(rs.Skipped, err.Error())
			continue
		}
		rs.Gates = append(rs.Gates, g)
	}

	return rs
}

// Version identifies the ruleset revision recorded on review logs.
func (rs *Ruleset) Version() string {
	if rs == nil || rs.UpdatedAt.IsZero() {
		return "none"
	}
	return rs.UpdatedAt.UTC().Format(time.RFC3339)
}

// Decision is the outcome of evaluating a ruleset against one proposal.
type Decision struct {
	Rejected bool
	Rule     string
	Reason   string
	Flags    []string
}

// Evaluate applies rejection rules in order, stopping at the first match, and
// collects the flags of every gate. Gates are still evaluated for rejected
// proposals so the audit log carries them.
func (rs *Ruleset) Evaluate(s Signals) Decision {
	d := Decision{Flags: []string{}}
	if rs == nil {
		return d
	}

	for _, r := range rs.Rules {
		if reason, ok := r.Match(s); ok {
			d.Rejected = true
			d.Rule = r.Source
			d.Reason = reason
			break
		}
	}

	for _, g := range rs.Gates {
		if flag, ok := g.Check(s); ok {
			d.Flags = append(d.Flags, flag)
		}
	}

	return d
}

// Summary renders the ruleset as an instruction block for proposal prompts.
// Returns an empty string when there is nothing to say.
func (rs *Ruleset) Summary() string {
	if rs == nil || (len(rs.Rules) == 0 && len(rs.Gates) == 0) {
		return ""
	}

	var b strings.Builder
	if len(rs.Rules) > 0 {
		b.WriteString("Proposals are rejected automatically when:\n")
		for _, r := range rs.Rules {
			fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(r.Source))
		}
	}
	if len(rs.Gates) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Proposals are flagged for extra review when:\n")
		for _, g := range rs.Gates {
			fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(g.Source))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
