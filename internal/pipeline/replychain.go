package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/scribe/internal/messages"
)

// Reply is the in-batch reply link of a message.
// ReplyTo is empty when the message answers nothing inside the batch.
type Reply struct {
	ReplyTo string
	Depth   int
}

// ResolveReplies links each message to the message it answers when that target
// is part of msgs. Depth counts hops to the root of the chain; cycles stop at
// the first revisited message.
func ResolveReplies(msgs []messages.Message) map[string]Reply {
	parent := make(map[string]string, len(msgs))
	inBatch := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		inBatch[m.ID] = true
	}
	for _, m := range msgs {
		if to, ok := m.ReplyTo(); ok && inBatch[to] && to != m.ID {
			parent[m.ID] = to
		}
	}

	out := make(map[string]Reply, len(msgs))
	for _, m := range msgs {
		r := Reply{ReplyTo: parent[m.ID]}

		visited := map[string]bool{m.ID: true}
		for cur := parent[m.ID]; cur != "" && !visited[cur]; cur = parent[cur] {
			visited[cur] = true
			r.Depth++
		}

		out[m.ID] = r
	}
	return out
}

// FormatTranscript renders prior and batch messages for a prompt. Prior
// context messages are listed first under their own heading; batch replies are indented
// beneath the message they answer. Content longer than charLimit is truncated.
func FormatTranscript(batch, prior []messages.Message, charLimit int) string {
	var b strings.Builder

	if len(prior) > 0 {
		b.WriteString("Earlier context (already processed, reference only):\n")
		for _, m := range prior {
			writeMessage(&b, m, Reply{}, charLimit)
		}
		b.WriteString("\n")
	}

	b.WriteString("Current messages:\n")
	replies := ResolveReplies(batch)
	for _, m := range batch {
		writeMessage(&b, m, replies[m.ID], charLimit)
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeMessage(b *strings.Builder, m messages.Message, r Reply, charLimit int) {
	indent := strings.Repeat("  ", r.Depth)
	fmt.Fprintf(b, "%s[%s] [%s] %s: %s",
		indent,
		m.ID,
		m.Timestamp.UTC().Format(time.RFC3339),
		m.Author,
		truncate(flatten(m.Content), charLimit),
	)
	if r.ReplyTo != "" {
		fmt.Fprintf(b, " (reply to %s)", r.ReplyTo)
	}
	b.WriteString("\n")
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most limit runes, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
