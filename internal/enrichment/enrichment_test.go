package enrichment_test

import (
	"testing"

	"github.com/JaimeStill/scribe/internal/enrichment"
	"github.com/JaimeStill/scribe/pkg/vector"
)

func TestOverlap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		other string
		n     int
		want  float64
	}{
		{"identical", "the quick brown fox", "the quick brown fox", 3, 100},
		{"contained", "the quick brown fox", "yesterday the quick brown fox jumped", 3, 100},
		{"disjoint", "alpha beta gamma delta", "nothing in common here", 3, 0},
		{"half", "one two three four", "one two three five", 3, 50},
		{"case and punctuation", "Run the Migrate command.", "run the migrate command", 3, 100},
		{"short text", "retry", "please retry later", 3, 100},
		{"empty text", "", "anything", 3, 0},
		{"empty other", "some text here", "", 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := enrichment.Overlap(tt.text, tt.other, tt.n)
			if got != tt.want {
				t.Errorf("Overlap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindDuplication(t *testing.T) {
	docs := []vector.Result{
		{ID: "a", FilePath: "docs/a.md", Content: "completely unrelated words about billing"},
		{ID: "b", FilePath: "docs/b.md", Content: "to reset the cache run the flush command"},
	}

	t.Run("flags best match above threshold", func(t *testing.T) {
		got := enrichment.FindDuplication("to reset the cache run the flush command", docs, 3, 80)
		if got == nil {
			t.Fatal("FindDuplication() = nil")
		}
		if got.DocID != "b" {
			t.Errorf("DocID = %s, want b", got.DocID)
		}
		if !got.Flagged {
			t.Errorf("Flagged = false, want true (overlap %v)", got.OverlapPercent)
		}
	})

	t.Run("below threshold is not flagged", func(t *testing.T) {
		got := enrichment.FindDuplication("to reset the cache restart every node in order", docs, 3, 80)
		if got == nil {
			t.Fatal("FindDuplication() = nil")
		}
		if got.Flagged {
			t.Errorf("Flagged = true, want false (overlap %v)", got.OverlapPercent)
		}
	})

	t.Run("nothing to compare", func(t *testing.T) {
		if got := enrichment.FindDuplication("text", nil, 3, 80); got != nil {
			t.Errorf("FindDuplication(no docs) = %+v, want nil", got)
		}
		if got := enrichment.FindDuplication("  ", docs, 3, 80); got != nil {
			t.Errorf("FindDuplication(blank) = %+v, want nil", got)
		}
	})
}

func TestSectionText(t *testing.T) {
	content := "# Guide\nintro\n## Install\nstep one\n### Options\nflags\n## Usage\nuse it\n"

	tests := []struct {
		name    string
		section string
		want    string
		found   bool
	}{
		{"nested subsection included", "Install", "step one\n### Options\nflags", true},
		{"heading markers ignored", "## install", "step one\n### Options\nflags", true},
		{"last section runs to end", "Usage", "use it", true},
		{"subsection stops at parent sibling", "Options", "flags", true},
		{"missing", "Upgrade", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := enrichment.SectionText(content, tt.section)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if got != tt.want {
				t.Errorf("SectionText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImpact(t *testing.T) {
	tests := []struct {
		name     string
		original string
		proposed string
		pct      float64
		delta    int
	}{
		{"unchanged", "a b c d", "a b c d", 0, 0},
		{"one word replaced", "a b c d", "a b x d", 25, 0},
		{"new content", "", "brand new text", 100, 14},
		{"removed content", "old text", "", 100, -8},
		{"both empty", "", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := enrichment.Impact(tt.original, tt.proposed, 2)
			if got.PercentChange != tt.pct {
				t.Errorf("PercentChange = %v, want %v", got.PercentChange, tt.pct)
			}
			if got.CharDelta != tt.delta {
				t.Errorf("CharDelta = %d, want %d", got.CharDelta, tt.delta)
			}
			if got.PendingProposals != 2 {
				t.Errorf("PendingProposals = %d, want 2", got.PendingProposals)
			}
		})
	}
}

func TestSources(t *testing.T) {
	tests := []struct {
		name      string
		authors   []string
		authorCnt int
		consensus bool
	}{
		{"two authors three messages", []string{"ana", "bo", "ana"}, 2, true},
		{"case-insensitive authors", []string{"Ana", "ana", "ANA"}, 1, false},
		{"two messages", []string{"ana", "bo"}, 2, false},
		{"empty", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := enrichment.Sources(tt.authors)
			if got.MessageCount != len(tt.authors) {
				t.Errorf("MessageCount = %d, want %d", got.MessageCount, len(tt.authors))
			}
			if got.AuthorCount != tt.authorCnt {
				t.Errorf("AuthorCount = %d, want %d", got.AuthorCount, tt.authorCnt)
			}
			if got.HadConsensus != tt.consensus {
				t.Errorf("HadConsensus = %v, want %v", got.HadConsensus, tt.consensus)
			}
		})
	}
}

func TestRelatedDocs(t *testing.T) {
	docs := []vector.Result{
		{ID: "low", Similarity: 0.2},
		{ID: "mid", Similarity: 0.6},
		{ID: "top", Similarity: 0.9},
		{ID: "edge", Similarity: 0.5},
	}

	got := enrichment.RelatedDocs(docs, 0.5, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "top" || got[1].ID != "mid" {
		t.Errorf("order = [%s %s], want [top mid]", got[0].ID, got[1].ID)
	}

	all := enrichment.RelatedDocs(docs, 0.5, 0)
	if len(all) != 3 {
		t.Errorf("unlimited len = %d, want 3", len(all))
	}
}

func TestMatchPage(t *testing.T) {
	docs := []vector.Result{
		{ID: "1", FilePath: "docs/guides/install.md"},
		{ID: "2", FilePath: "/docs/faq.md"},
	}

	tests := []struct {
		page string
		want string
		ok   bool
	}{
		{"docs/faq.md", "2", true},
		{"/docs/guides/install.md", "1", true},
		{"guides/install.md", "1", true},
		{"docs/missing.md", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.page, func(t *testing.T) {
			got, ok := enrichment.MatchPage(docs, tt.page)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got.ID != tt.want {
				t.Errorf("ID = %q, want %q", got.ID, tt.want)
			}
		})
	}
}

func TestEnrich(t *testing.T) {
	page := "# Cache\n## Reset\nRun the flush command to reset the cache.\n## Limits\nNone.\n"
	docs := []vector.Result{
		{ID: "cache", FilePath: "docs/cache.md", Content: page, Similarity: 0.82},
		{ID: "other", FilePath: "docs/other.md", Content: "Unrelated page.", Similarity: 0.3},
	}

	got := enrichment.Enrich(enrichment.DefaultConfig(), enrichment.Input{
		SuggestedText:    "Run the flush command to reset the cache. Restart workers afterwards.",
		Page:             "docs/cache.md",
		Section:          "Reset",
		Docs:             docs,
		Authors:          []string{"ana", "bo", "ana"},
		PendingProposals: 1,
	})

	if len(got.RelatedDocs) != 1 || got.RelatedDocs[0].ID != "cache" {
		t.Errorf("RelatedDocs = %+v, want [cache]", got.RelatedDocs)
	}
	if got.Duplication == nil || got.Duplication.DocID != "cache" {
		t.Errorf("Duplication = %+v, want match on cache", got.Duplication)
	}
	if !got.ChangeImpact.SectionFound {
		t.Error("SectionFound = false, want true")
	}
	if got.ChangeImpact.PendingProposals != 1 {
		t.Errorf("PendingProposals = %d, want 1", got.ChangeImpact.PendingProposals)
	}
	if got.Style == nil || got.Style.Page == nil {
		t.Fatal("Style.Page = nil, want page metrics")
	}
	if !got.Source.HadConsensus {
		t.Error("HadConsensus = false, want true")
	}
}
