package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/JaimeStill/scribe/internal/prompts"
)

// Exchange is an archived model request and its raw response.
type Exchange struct {
	Stage      prompts.Stage `json:"stage"`
	StreamID   string        `json:"streamId"`
	BatchID    string        `json:"batchId"`
	Model      string        `json:"model"`
	System     string        `json:"system"`
	User       string        `json:"user"`
	Response   string        `json:"response"`
	RecordedAt time.Time     `json:"recordedAt"`
}

// ExchangeKey is the blob key of an archived exchange. Subject is the batch
// for classification and the conversation for proposals.
func ExchangeKey(x Exchange, subject string) string {
	return fmt.Sprintf("exchanges/%s/%s/%s-%s.json", x.StreamID, x.BatchID, x.Stage, subject)
}

// archive stores x when archiving is enabled. Failures are logged and never
// affect the batch.
func archive(ctx context.Context, rt *Runtime, x Exchange, subject string) {
	if !rt.Config.ArchiveExchanges || rt.Archive == nil {
		return
	}
	x.RecordedAt = rt.now()

	key := ExchangeKey(x, subject)
	if err := rt.Archive.PutJSON(ctx, key, x); err != nil {
		rt.Logger.WarnContext(ctx, "exchange archive failed", "key", key, "error", err)
	}
}

func publish(ctx context.Context, rt *Runtime, subject string, payload any) {
	if rt.Events == nil {
		return
	}
	if err := rt.Events.Publish(ctx, subject, payload); err != nil {
		rt.Logger.WarnContext(ctx, "event publish failed", "subject", subject, "error", err)
	}
}
