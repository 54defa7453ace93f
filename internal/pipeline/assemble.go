package pipeline

import (
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/classifications"
	"github.com/JaimeStill/scribe/internal/messages"
)

// conversationNamespace scopes the UUIDv5 conversation identifiers.
var conversationNamespace = uuid.MustParse("6f1c1a52-6d4e-5b8f-9a55-3c2f4e8d7b10")

// Conversation is a classified thread bound to its messages.
type Conversation struct {
	ID             uuid.UUID
	StreamID       string
	Channel        string
	Summary        string
	Category       string
	Messages       []messages.Message
	TimeStart      time.Time
	TimeEnd        time.Time
	DocValueReason string
	Criteria       *classifications.SearchCriteria
}

// Valuable reports whether the conversation should go through retrieval and generation.
func (c *Conversation) Valuable() bool {
	return c.Category != classifications.NoDocValue
}

// MessageIDs returns the conversation message IDs in time order.
func (c *Conversation) MessageIDs() []string {
	return messages.IDs(c.Messages)
}

// Authors returns the author of every message, in order.
func (c *Conversation) Authors() []string {
	authors := make([]string, len(c.Messages))
	for i, m := range c.Messages {
		authors[i] = m.Author
	}
	return authors
}

// ConversationID derives the stable identifier of a conversation from its
// stream, channel and first message, so a retried batch maps onto the same rows.
func ConversationID(streamID, channel string, first messages.Message) uuid.UUID {
	name := streamID + "\x00" + channel + "\x00" +
		first.Timestamp.UTC().Format(time.RFC3339Nano) + "\x00" + first.ID
	return uuid.NewSHA1(conversationNamespace, []byte(name))
}

// Assemble resolves non-synthetic threads against batch and returns the
// resulting conversations ordered by start time. IDs that do not resolve are
// logged and dropped; a thread with no resolvable message yields nothing.
func Assemble(threads []Thread, batch []messages.Message, logger *slog.Logger) []Conversation {
	byID := make(map[string]messages.Message, len(batch))
	for _, m := range batch {
		byID[m.ID] = m
	}

	convs := make([]Conversation, 0, len(threads))
	for _, t := range threads {
		if t.Synthetic {
			continue
		}

		msgs := make([]messages.Message, 0, len(t.MessageIDs))
		for _, id := range t.MessageIDs {
			m, ok := byID[id]
			if !ok {
				logger.Warn("thread message not in batch", "message", id, "category", t.Category)
				continue
			}
			msgs = append(msgs, m)
		}
		if len(msgs) == 0 {
			continue
		}

		messages.SortByTime(msgs)
		first := msgs[0]

		convs = append(convs, Conversation{
			ID:             ConversationID(first.StreamID, first.Channel, first),
			StreamID:       first.StreamID,
			Channel:        first.Channel,
			Summary:        t.Summary,
			Category:       t.Category,
			Messages:       msgs,
			TimeStart:      first.Timestamp,
			TimeEnd:        msgs[len(msgs)-1].Timestamp,
			DocValueReason: t.DocValueReason,
			Criteria:       t.Criteria,
		})
	}

	slices.SortStableFunc(convs, func(a, b Conversation) int {
		return a.TimeStart.Compare(b.TimeStart)
	})

	return convs
}

// Records builds one classification record per message of threads. Messages
// of assembled conversations carry their conversation ID; the rest carry none.
func Records(threads []Thread, convs []Conversation, batchID, model string) []classifications.Record {
	owner := make(map[string]uuid.UUID)
	for _, c := range convs {
		for _, m := range c.Messages {
			owner[m.ID] = c.ID
		}
	}

	var records []classifications.Record
	for _, t := range threads {
		for _, id := range t.MessageIDs {
			r := classifications.Record{
				MessageID:      id,
				BatchID:        batchID,
				Category:       t.Category,
				DocValueReason: t.DocValueReason,
				Criteria:       t.Criteria,
				ModelUsed:      model,
			}
			if cid, ok := owner[id]; ok {
				r.ConversationID = &cid
			}
			records = append(records, r)
		}
	}
	return records
}
