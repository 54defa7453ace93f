// Package messages is the message source: timestamped community messages
// grouped by stream and tracked through PENDING and COMPLETED processing states.
package messages

import (
	"slices"
	"time"
)

// Status is the processing state of a message.
type Status string

// Processing states.
const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// Metadata carries optional platform threading hints. Absent fields are valid
// and simply disable reply linking for the message.
type Metadata struct {
	ReplyToID *string `json:"replyToId,omitempty"`
	Topic     *string `json:"topic,omitempty"`
	ThreadID  *string `json:"threadId,omitempty"`
}

// Message is a single community message within a stream.
type Message struct {
	ID        string    `json:"id"`
	StreamID  string    `json:"streamId"`
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Channel   string    `json:"channel"`
	Metadata  Metadata  `json:"metadata"`
	Status    Status    `json:"processingStatus"`
}

// ReplyTo returns the ID this message replies to, if any.
func (m Message) ReplyTo() (string, bool) {
	if m.Metadata.ReplyToID == nil || *m.Metadata.ReplyToID == "" {
		return "", false
	}
	return *m.Metadata.ReplyToID, true
}

// SortByTime orders messages by timestamp, breaking ties by ID so the order is stable across runs.
func SortByTime(msgs []Message) {
	slices.SortStableFunc(msgs, func(a, b Message) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

// IDs returns the message IDs in order.
func IDs(msgs []Message) []string {
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	return ids
}
