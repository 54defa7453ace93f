package rulesets_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/scribe/internal/rulesets"
)

func TestCompileRule(t *testing.T) {
	tests := []struct {
		source    string
		kind      rulesets.Kind
		threshold float64
		literal   string
	}{
		{"Reject if duplication overlap exceeds 85%", rulesets.KindOverlapAbove, 85, ""},
		{"reject when overlap is above 70.5", rulesets.KindOverlapAbove, 70.5, ""},
		{"Reject if similarity is greater than 0.95", rulesets.KindSimilarityAbove, 0.95, ""},
		{"Reject if similarity above 90%", rulesets.KindSimilarityAbove, 0.9, ""},
		{`Reject proposals that contain "lorem ipsum"`, rulesets.KindContains, 0, "lorem ipsum"},
		{"Reject pages under docs/legacy/**", rulesets.KindPageGlob, 0, "docs/legacy/**"},
		{"Reject pages matching /blog/*", rulesets.KindPageGlob, 0, "/blog/*"},
		{`Reject text matching /\bTBD\b/i`, rulesets.KindRegex, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			r, err := rulesets.CompileRule(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, r.Kind)
			assert.Equal(t, tt.threshold, r.Threshold)
			assert.Equal(t, tt.literal, r.Literal)
		})
	}
}

func TestCompileRuleUnrecognized(t *testing.T) {
	for _, source := range []string{
		"Be nice",
		"Reject anything that feels off",
		"Reject text matching /([unclosed/",
	} {
		t.Run(source, func(t *testing.T) {
			_, err := rulesets.CompileRule(source)
			assert.Error(t, err)
		})
	}
}

func TestCompileGate(t *testing.T) {
	tests := []struct {
		source    string
		kind      rulesets.Kind
		threshold float64
	}{
		{"Flag changes above 50%", rulesets.GateChangeAbove, 50},
		{"Flag modifications over 30", rulesets.GateChangeAbove, 30},
		{"Flag overlap above 60%", rulesets.GateOverlapAbove, 60},
		{"Flag proposals without consensus", rulesets.GateConsensus, 0},
		{"Flag style mismatches", rulesets.GateStyle, 0},
		{"Flag pages with other pending proposals", rulesets.GatePending, 0},
		{"Flag when more than 2 pending proposals touch the page", rulesets.GatePending, 2},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			g, err := rulesets.CompileGate(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, g.Kind)
			assert.Equal(t, tt.threshold, g.Threshold)
		})
	}

	_, err := rulesets.CompileGate("Flag anything interesting")
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	doc := rulesets.Document{
		RejectionRules: []string{
			"Reject if overlap exceeds 80%",
			`Reject proposals that contain "TODO"`,
			"Reject pages under docs/legacy/**",
			"this rule cannot be understood",
		},
		QualityGates: []string{
			"Flag changes above 50%",
			"Flag proposals without consensus",
			"Flag style mismatches",
			"Flag pages with other pending proposals",
		},
	}

	rs := rulesets.Compile("acme", doc, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	require.Len(t, rs.Rules, 3)
	require.Len(t, rs.Gates, 4)
	require.Len(t, rs.Skipped, 1)

	t.Run("overlap rejection", func(t *testing.T) {
		d := rs.Evaluate(rulesets.Signals{
			Text:           "Restart the worker.",
			Page:           "docs/workers.md",
			OverlapPercent: 92,
			OverlapPath:    "docs/workers.md",
			HadConsensus:   true,
		})
		assert.True(t, d.Rejected)
		assert.Equal(t, "Reject if overlap exceeds 80%", d.Rule)
		assert.Contains(t, d.Reason, "92% overlap")
	})

	t.Run("first matching rule wins", func(t *testing.T) {
		d := rs.Evaluate(rulesets.Signals{
			Text:           "TODO write this",
			Page:           "docs/legacy/old.md",
			OverlapPercent: 10,
			HadConsensus:   true,
		})
		assert.True(t, d.Rejected)
		assert.Equal(t, `Reject proposals that contain "TODO"`, d.Rule)
	})

	t.Run("page glob", func(t *testing.T) {
		d := rs.Evaluate(rulesets.Signals{
			Text:         "Updated steps.",
			Page:         "/docs/legacy/setup/install.md",
			HadConsensus: true,
		})
		assert.True(t, d.Rejected)
		assert.Equal(t, "Reject pages under docs/legacy/**", d.Rule)
	})

	t.Run("gates flag without rejecting", func(t *testing.T) {
		d := rs.Evaluate(rulesets.Signals{
			Text:             "A rewritten section.",
			Page:             "docs/setup.md",
			OverlapPercent:   5,
			ChangePercent:    62,
			MessageCount:     2,
			AuthorCount:      1,
			StyleNotes:       []string{"proposal uses list format while the page uses prose"},
			PendingProposals: 3,
		})
		assert.False(t, d.Rejected)
		assert.Empty(t, d.Rule)
		assert.Equal(t, []string{
			"significant change: 62% modification",
			"no consensus: 1 author(s) across 2 message(s)",
			"style mismatch: proposal uses list format while the page uses prose",
			"3 other pending proposal(s) for docs/setup.md",
		}, d.Flags)
	})

	t.Run("clean proposal", func(t *testing.T) {
		d := rs.Evaluate(rulesets.Signals{
			Text:          "Small fix.",
			Page:          "docs/setup.md",
			ChangePercent: 10,
			HadConsensus:  true,
		})
		assert.False(t, d.Rejected)
		assert.Empty(t, d.Flags)
	})
}

func TestEvaluateNilRuleset(t *testing.T) {
	var rs *rulesets.Ruleset
	d := rs.Evaluate(rulesets.Signals{OverlapPercent: 100})
	assert.False(t, d.Rejected)
	assert.Equal(t, "none", rs.Version())
	assert.Empty(t, rs.Summary())
}

func TestParse(t *testing.T) {
	doc, err := rulesets.Parse(`
rejectionRules:
  - Reject if overlap exceeds 80%
qualityGates:
  - Flag changes above 50%
  - Flag style mismatches
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Reject if overlap exceeds 80%"}, doc.RejectionRules)
	assert.Len(t, doc.QualityGates, 2)

	empty, err := rulesets.Parse("   ")
	require.NoError(t, err)
	assert.Empty(t, empty.RejectionRules)

	_, err = rulesets.Parse("rejectionRules: [unterminated")
	assert.True(t, errors.Is(err, rulesets.ErrInvalidDocument))
}

func TestSummaryAndVersion(t *testing.T) {
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rs := rulesets.Compile("acme", rulesets.Document{
		RejectionRules: []string{"Reject if overlap exceeds 80%"},
		QualityGates:   []string{"Flag style mismatches"},
	}, updated)

	assert.Equal(t, "2026-03-01T12:00:00Z", rs.Version())
	assert.Equal(t,
		"Proposals are rejected automatically when:\n- Reject if overlap exceeds 80%\n\n"+
			"Proposals are flagged for extra review when:\n- Flag style mismatches",
		rs.Summary(),
	)
}
