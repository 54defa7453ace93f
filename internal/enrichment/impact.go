package enrichment

import (
	"math"
	"unicode/utf8"
)

// maxLCSWords bounds the quadratic word comparison. Longer texts fall back to
// comparing lengths.
const maxLCSWords = 4000

// Impact measures how much proposed rewrites original. PercentChange is the
// share of words not preserved in order, so 0 means unchanged and 100 means
// entirely new.
func Impact(original, proposed string, pending int) ChangeImpact {
	oc := utf8.RuneCountInString(original)
	pc := utf8.RuneCountInString(proposed)

	return ChangeImpact{
		OriginalChars:    oc,
		ProposedChars:    pc,
		CharDelta:        pc - oc,
		PercentChange:    percentChange(original, proposed),
		PendingProposals: pending,
	}
}

func percentChange(original, proposed string) float64 {
	a, b := Words(original), Words(proposed)
	longest := max(len(a), len(b))

	switch {
	case longest == 0:
		return 0
	case len(a) == 0 || len(b) == 0:
		return 100
	}

	var kept int
	if len(a) > maxLCSWords || len(b) > maxLCSWords {
		kept = min(len(a), len(b))
	} else {
		kept = lcs(a, b)
	}

	pct := 100 * (1 - float64(kept)/float64(longest))
	return math.Round(pct*10) / 10
}

func lcs(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
