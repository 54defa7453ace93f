package enrichment

import (
	"cmp"
	"slices"
	"strings"

	"github.com/JaimeStill/scribe/pkg/vector"
)

// RelatedDocs ranks docs at or above floor by similarity, keeping at most limit.
func RelatedDocs(docs []vector.Result, floor float64, limit int) []RelatedDoc {
	related := make([]RelatedDoc, 0, len(docs))
	for _, d := range docs {
		if d.Similarity < floor {
			continue
		}
		related = append(related, RelatedDoc{
			ID:         d.ID,
			FilePath:   d.FilePath,
			Title:      d.Title,
			Similarity: d.Similarity,
		})
	}

	slices.SortStableFunc(related, func(a, b RelatedDoc) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})

	if limit > 0 && len(related) > limit {
		related = related[:limit]
	}
	return related
}

// MatchPage finds the retrieved doc a proposal targets. Paths are compared
// without leading slashes, and a page may name a doc by path suffix.
func MatchPage(docs []vector.Result, page string) (vector.Result, bool) {
	want := strings.Trim(strings.TrimSpace(page), "/")
	if want == "" {
		return vector.Result{}, false
	}

	for _, d := range docs {
		if strings.Trim(d.FilePath, "/") == want {
			return d, true
		}
	}
	for _, d := range docs {
		path := strings.Trim(d.FilePath, "/")
		if strings.HasSuffix(path, "/"+want) || strings.HasSuffix(want, "/"+path) {
			return d, true
		}
	}
	return vector.Result{}, false
}
