package enrichment

import (
	"strings"

	"github.com/JaimeStill/scribe/pkg/vector"
)

// Overlap returns the percentage of the word n-grams of text that also occur in other.
// Texts shorter than n words are compared on as many words as they have.
func Overlap(text, other string, n int) float64 {
	words := Words(text)
	if len(words) == 0 {
		return 0
	}
	if n <= 0 {
		n = 3
	}
	n = min(n, len(words))

	source := ngrams(words, n)
	target := ngrams(Words(other), n)
	if len(source) == 0 || len(target) == 0 {
		return 0
	}

	shared := 0
	for g := range source {
		if _, ok := target[g]; ok {
			shared++
		}
	}
	return 100 * float64(shared) / float64(len(source))
}

// FindDuplication reports the doc with the highest overlap against text.
// Returns nil when there is nothing to compare.
func FindDuplication(text string, docs []vector.Result, n int, threshold float64) *Duplication {
	if strings.TrimSpace(text) == "" || len(docs) == 0 {
		return nil
	}

	var best *Duplication
	for _, d := range docs {
		pct := Overlap(text, PlainText(d.Content), n)
		if best == nil || pct > best.OverlapPercent {
			best = &Duplication{
				DocID:          d.ID,
				FilePath:       d.FilePath,
				OverlapPercent: pct,
			}
		}
	}

	best.Flagged = best.OverlapPercent > threshold
	return best
}

func ngrams(words []string, n int) map[string]struct{} {
	set := make(map[string]struct{})
	for i := 0; i+n <= len(words); i++ {
		set[strings.Join(words[i:i+n], " ")] = struct{}{}
	}
	return set
}
