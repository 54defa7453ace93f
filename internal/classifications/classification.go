// Package classifications persists the per-message classification outcome of
// each batch: the thread category, its documentation-value reasoning, and the
// retrieval criteria the model attached to it.
package classifications

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// NoDocValue is the category marking threads without documentation value.
const NoDocValue = "no-doc-value"

// SearchCriteria is the retrieval hint attached to a classified thread.
type SearchCriteria struct {
	Keywords      []string `json:"keywords"`
	SemanticQuery string   `json:"semanticQuery"`
}

// Empty reports whether the criteria carry no usable search terms.
func (c *SearchCriteria) Empty() bool {
	if c == nil {
		return true
	}
	if strings.TrimSpace(c.SemanticQuery) != "" {
		return false
	}
	return !slices.ContainsFunc(c.Keywords, func(k string) bool {
		return strings.TrimSpace(k) != ""
	})
}

// Record is the stored classification of a single message.
// ConversationID is nil for messages that were not bound to an assembled conversation.
type Record struct {
	MessageID      string          `json:"messageId"`
	BatchID        string          `json:"batchId"`
	ConversationID *uuid.UUID      `json:"conversationId"`
	Category       string          `json:"category"`
	DocValueReason string          `json:"docValueReason"`
	Criteria       *SearchCriteria `json:"ragSearchCriteria"`
	ModelUsed      string          `json:"modelUsed"`
}

// HasDocValue reports whether the record belongs to a valuable thread.
func (r Record) HasDocValue() bool {
	return r.Category != NoDocValue
}
