// Package proposals persists the outcome of each conversation: its retrieval
// context, the generated documentation proposals, and the review log written
// when the tenant ruleset was applied.
package proposals

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/enrichment"
)

// UpdateType is the kind of documentation change a proposal suggests.
type UpdateType string

// Update types.
const (
	UpdateInsert UpdateType = "INSERT"
	UpdateUpdate UpdateType = "UPDATE"
	UpdateDelete UpdateType = "DELETE"
	UpdateNone   UpdateType = "NONE"
)

// Valid reports whether t is a known update type.
func (t UpdateType) Valid() bool {
	switch t {
	case UpdateInsert, UpdateUpdate, UpdateDelete, UpdateNone:
		return true
	}
	return false
}

// Status is the review state of a stored proposal.
type Status string

// Review states.
const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusMerged   Status = "MERGED"
)

// RetrievedDoc is the stored summary of a document used as generation context.
type RetrievedDoc struct {
	ID         string  `json:"id"`
	FilePath   string  `json:"filePath"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
	Preview    string  `json:"preview"`
}

// RetrievalContext is the per-conversation record of what was retrieved and
// whether proposals were declined as a whole.
type RetrievalContext struct {
	ConversationID      uuid.UUID      `json:"conversationId"`
	BatchID             string         `json:"batchId"`
	StreamID            string         `json:"streamId"`
	Channel             string         `json:"channel"`
	Category            string         `json:"category"`
	Summary             string         `json:"summary"`
	MessageIDs          []string       `json:"messageIds"`
	TimeStart           time.Time      `json:"timeStart"`
	TimeEnd             time.Time      `json:"timeEnd"`
	RetrievedDocs       []RetrievedDoc `json:"retrievedDocs"`
	TotalTokensEstimate int            `json:"totalTokensEstimate"`
	ProposalsRejected   bool           `json:"proposalsRejected"`
	RejectionReason     *string        `json:"rejectionReason,omitempty"`
}

// Location pins a change inside a page more precisely than its section.
type Location struct {
	Heading   string `json:"heading,omitempty"`
	After     string `json:"after,omitempty"`
	LineStart *int   `json:"lineStart,omitempty"`
	LineEnd   *int   `json:"lineEnd,omitempty"`
}

// Proposal is a suggested documentation change.
type Proposal struct {
	ID               uuid.UUID              `json:"id"`
	ConversationID   uuid.UUID              `json:"conversationId"`
	BatchID          string                 `json:"batchId"`
	UpdateType       UpdateType             `json:"updateType"`
	Page             string                 `json:"page"`
	Section          *string                `json:"section,omitempty"`
	Location         *Location              `json:"location,omitempty"`
	SuggestedText    *string                `json:"suggestedText,omitempty"`
	RawSuggestedText *string                `json:"rawSuggestedText,omitempty"`
	Reasoning        string                 `json:"reasoning"`
	SourceMessages   []string               `json:"sourceMessages"`
	Warnings         []string               `json:"warnings"`
	Enrichment       *enrichment.Enrichment `json:"enrichment,omitempty"`
	ModelUsed        string                 `json:"modelUsed"`
	Status           Status                 `json:"status"`
}

// ReviewLog records how the ruleset treated one proposal.
type ReviewLog struct {
	ProposalID           uuid.UUID `json:"proposalId"`
	ConversationID       uuid.UUID `json:"conversationId"`
	RulesetVersion       string    `json:"rulesetVersion"`
	OriginalContent      string    `json:"originalContent"`
	ModificationsApplied []string  `json:"modificationsApplied"`
	Rejected             bool      `json:"rejected"`
	RejectionRule        *string   `json:"rejectionRule,omitempty"`
	RejectionReason      *string   `json:"rejectionReason,omitempty"`
	QualityFlags         []string  `json:"qualityFlags"`
}

// Commit is everything written for one conversation in a single transaction.
// MessageIDs are flipped to COMPLETED as part of the same transaction.
type Commit struct {
	Context    RetrievalContext
	Proposals  []Proposal
	Reviews    []ReviewLog
	MessageIDs []string
}
