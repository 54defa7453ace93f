package classifications

import (
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/scribe/pkg/repository"
)

var columns = []string{
	"message_id",
	"batch_id",
	"conversation_id",
	"category",
	"doc_value_reason",
	"rag_search_criteria",
	"model_used",
}

func criteriaJSON(c *SearchCriteria) ([]byte, error) {
	if c.Empty() {
		return nil, nil
	}
	return json.Marshal(c)
}

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record
	var criteriaRaw []byte

	err := s.Scan(
		&r.MessageID,
		&r.BatchID,
		&r.ConversationID,
		&r.Category,
		&r.DocValueReason,
		&criteriaRaw,
		&r.ModelUsed,
	)
	if err != nil {
		return r, err
	}

	if len(criteriaRaw) > 0 {
		var c SearchCriteria
		if err := json.Unmarshal(criteriaRaw, &c); err != nil {
			return r, fmt.Errorf("unmarshal rag_search_criteria: %w", err)
		}
		r.Criteria = &c
	}

	return r, nil
}
