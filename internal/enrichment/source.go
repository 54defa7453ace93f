package enrichment

import "strings"

// Consensus thresholds.
const (
	consensusAuthors  = 2
	consensusMessages = 3
)

// Sources summarizes a conversation from the author of each of its messages.
func Sources(authors []string) SourceAnalysis {
	distinct := make(map[string]struct{}, len(authors))
	for _, a := range authors {
		distinct[strings.ToLower(strings.TrimSpace(a))] = struct{}{}
	}

	return SourceAnalysis{
		MessageCount: len(authors),
		AuthorCount:  len(distinct),
		HadConsensus: len(distinct) >= consensusAuthors && len(authors) >= consensusMessages,
	}
}
