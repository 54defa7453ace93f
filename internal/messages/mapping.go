package messages

import (
	"github.com/JaimeStill/scribe/pkg/repository"
)

var columns = []string{
	"id",
	"stream_id",
	"ts",
	"author",
	"content",
	"channel",
	"reply_to_id",
	"topic",
	"thread_id",
	"processing_status",
}

func scanMessage(s repository.Scanner) (Message, error) {
	var m Message
	err := s.Scan(
		&m.ID,
		&m.StreamID,
		&m.Timestamp,
		&m.Author,
		&m.Content,
		&m.Channel,
		&m.Metadata.ReplyToID,
		&m.Metadata.Topic,
		&m.Metadata.ThreadID,
		&m.Status,
	)
	return m, err
}
