package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/JaimeStill/scribe/internal/classifications"
	"github.com/JaimeStill/scribe/pkg/vector"
)

// knownLocales are the language codes recognized as path segments.
var knownLocales = map[string]bool{
	"ar": true, "bg": true, "bn": true, "ca": true, "cs": true, "da": true,
	"de": true, "el": true, "en": true, "es": true, "et": true, "fa": true,
	"fi": true, "fr": true, "he": true, "hi": true, "hr": true, "hu": true,
	"id": true, "it": true, "ja": true, "ko": true, "lt": true, "lv": true,
	"ms": true, "nb": true, "nl": true, "no": true, "pl": true, "pt": true,
	"ro": true, "ru": true, "sk": true, "sl": true, "sr": true, "sv": true,
	"th": true, "tr": true, "uk": true, "vi": true, "zh": true,
}

const docusaurusCurrent = "docusaurus-plugin-content-docs/current"

// SearchQuery builds the vector query for a conversation: the distinct semantic
// queries joined together, else the distinct keywords, else the summary.
func SearchQuery(summary string, criteria ...*classifications.SearchCriteria) string {
	var semantic, keywords []string
	for _, c := range criteria {
		if c == nil {
			continue
		}
		if q := strings.TrimSpace(c.SemanticQuery); q != "" && !slices.Contains(semantic, q) {
			semantic = append(semantic, q)
		}
		for _, k := range c.Keywords {
			if k = strings.TrimSpace(k); k != "" && !slices.Contains(keywords, k) {
				keywords = append(keywords, k)
			}
		}
	}

	switch {
	case len(semantic) > 0:
		return strings.Join(semantic, " ")
	case len(keywords) > 0:
		return strings.Join(keywords, " ")
	default:
		return strings.TrimSpace(summary)
	}
}

// localeSegment reports whether seg is a language code such as "es" or "pt-BR".
func localeSegment(seg string) (string, bool) {
	lang, region, hasRegion := strings.Cut(seg, "-")
	lang = strings.ToLower(lang)
	if !knownLocales[lang] {
		return "", false
	}
	if hasRegion {
		if len(region) != 2 || strings.ToUpper(region) != region {
			return "", false
		}
		return lang + "-" + region, true
	}
	if seg != lang {
		return "", false
	}
	return lang, true
}

// CanonicalPath strips the locale from a documentation path so translated
// variants of a page share one key. It returns the canonical path and the
// locale that was removed, or an empty locale when path has none.
func CanonicalPath(path string) (string, string) {
	clean := strings.Trim(strings.ReplaceAll(path, "\\", "/"), "/")
	segs := strings.Split(clean, "/")

	if len(segs) > 2 && segs[0] == "i18n" {
		if loc, ok := localeSegment(segs[1]); ok {
			rest := strings.Join(segs[2:], "/")
			if after, found := strings.CutPrefix(rest, docusaurusCurrent+"/"); found {
				return "docs/" + after, loc
			}
			return rest, loc
		}
	}

	// The final segment is the file itself and never a locale.
	for i := 0; i < len(segs)-1; i++ {
		if loc, ok := localeSegment(segs[i]); ok {
			out := slices.Concat(segs[:i], segs[i+1:])
			return strings.Join(out, "/"), loc
		}
	}

	return clean, ""
}

func isBase(locale, baseLocale string) bool {
	if locale == "" {
		return true
	}
	lang, _, _ := strings.Cut(locale, "-")
	base, _, _ := strings.Cut(strings.ToLower(baseLocale), "-")
	return lang == base
}

// Dedup collapses search results in two passes: exact document IDs keep their
// highest similarity, then translated variants of the same page keep the base
// locale document when one is present, else the most similar variant. The
// survivors are ranked by similarity and cut to topK.
func Dedup(results []vector.Result, baseLocale string, topK int) []vector.Result {
	byID := make(map[string]int, len(results))
	unique := make([]vector.Result, 0, len(results))
	for _, r := range results {
		if i, ok := byID[r.ID]; ok {
			if r.Similarity > unique[i].Similarity {
				unique[i] = r
			}
			continue
		}
		byID[r.ID] = len(unique)
		unique = append(unique, r)
	}

	type variant struct {
		result vector.Result
		base   bool
	}

	byPath := make(map[string]int, len(unique))
	kept := make([]variant, 0, len(unique))
	for _, r := range unique {
		key, locale := CanonicalPath(r.FilePath)
		if key == "" {
			key = "id:" + r.ID
		}
		v := variant{result: r, base: isBase(locale, baseLocale)}

		i, ok := byPath[key]
		if !ok {
			byPath[key] = len(kept)
			kept = append(kept, v)
			continue
		}

		cur := kept[i]
		switch {
		case cur.base && !v.base:
		case v.base && !cur.base:
			kept[i] = v
		case v.result.Similarity > cur.result.Similarity:
			kept[i] = v
		}
	}

	out := make([]vector.Result, len(kept))
	for i, v := range kept {
		out[i] = v.result
	}
	slices.SortStableFunc(out, func(a, b vector.Result) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

func retrieve(ctx context.Context, rt *Runtime, c *Conversation) ([]vector.Result, error) {
	query := SearchQuery(c.Summary, c.Criteria)
	if query == "" {
		return nil, nil
	}

	results, err := rt.Vector.Search(ctx, query, rt.Config.TopK*2)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieveFailed, err)
	}

	docs := Dedup(results, rt.Config.BaseLocale, rt.Config.TopK)
	rt.Logger.DebugContext(ctx, "documents retrieved",
		"conversation", c.ID,
		"query", query,
		"hits", len(results),
		"kept", len(docs),
	)
	return docs, nil
}
