package messages

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Validate checks the fields a message needs before it can be stored.
func (m Message) Validate() error {
	switch {
	case strings.TrimSpace(m.ID) == "":
		return fmt.Errorf("%w: id is required", ErrInvalid)
	case strings.TrimSpace(m.StreamID) == "":
		return fmt.Errorf("%w: message %s has no streamId", ErrInvalid, m.ID)
	case m.Timestamp.IsZero():
		return fmt.Errorf("%w: message %s has no timestamp", ErrInvalid, m.ID)
	case strings.TrimSpace(m.Author) == "":
		return fmt.Errorf("%w: message %s has no author", ErrInvalid, m.ID)
	}
	return nil
}

// Prepare validates msgs and normalizes them for ingestion: timestamps in UTC
// and every message PENDING.
func Prepare(msgs []Message) ([]Message, error) {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		m.Timestamp = m.Timestamp.UTC()
		m.Status = StatusPending
		out = append(out, m)
	}
	return out, nil
}

// ReadJSONL decodes one message per non-blank line of r.
func ReadJSONL(r io.Reader) ([]Message, error) {
	var msgs []Message

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var m Message
		if err := json.Unmarshal([]byte(text), &m); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalid, line, err)
		}
		msgs = append(msgs, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	return Prepare(msgs)
}
