package messages_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/scribe/internal/messages"
	"github.com/JaimeStill/scribe/pkg/routes"
)

func TestReadJSONL(t *testing.T) {
	input := `{"id":"m1","streamId":"general","timestamp":"2025-03-01T10:00:00+02:00","author":"ana","content":"how do I install?","channel":"help"}

{"id":"m2","streamId":"general","timestamp":"2025-03-01T10:05:00Z","author":"bo","content":"see the guide","channel":"help","metadata":{"replyToId":"m1"},"processingStatus":"COMPLETED"}
`
	msgs, err := messages.ReadJSONL(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("count: got %d, want 2", len(msgs))
	}

	if got := msgs[0].Timestamp; got.Location() != time.UTC || got.Hour() != 8 {
		t.Errorf("timestamp: got %v, want 08:00 UTC", got)
	}
	if msgs[1].Status != messages.StatusPending {
		t.Errorf("status: got %s, want PENDING", msgs[1].Status)
	}
	if to, ok := msgs[1].ReplyTo(); !ok || to != "m1" {
		t.Errorf("reply to: got %q %v, want m1", to, ok)
	}
}

func TestReadJSONLErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"id":`},
		{"missing stream", `{"id":"m1","timestamp":"2025-03-01T10:00:00Z","author":"a"}`},
		{"missing timestamp", `{"id":"m1","streamId":"s","author":"a"}`},
		{"missing author", `{"id":"m1","streamId":"s","timestamp":"2025-03-01T10:00:00Z"}`},
		{"missing id", `{"streamId":"s","timestamp":"2025-03-01T10:00:00Z","author":"a"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := messages.ReadJSONL(strings.NewReader(tt.input))
			if !errors.Is(err, messages.ErrInvalid) {
				t.Errorf("error: got %v, want ErrInvalid", err)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{messages.ErrNotFound, http.StatusNotFound},
		{messages.ErrDuplicate, http.StatusConflict},
		{messages.ErrInvalid, http.StatusBadRequest},
		{messages.ErrTooMany, http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := messages.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("%v: got %d, want %d", tt.err, got, tt.want)
		}
	}
}

type recordingSource struct {
	messages.System
	ingested []messages.Message
}

func (s *recordingSource) Ingest(_ context.Context, msgs []messages.Message) (int, error) {
	s.ingested = append(s.ingested, msgs...)
	return len(msgs) - 1, nil
}

func TestHandlerIngest(t *testing.T) {
	body := `[
		{"id":"m1","streamId":"s","timestamp":"2025-03-01T10:00:00Z","author":"a","content":"x","channel":"c"},
		{"id":"m2","streamId":"s","timestamp":"2025-03-01T10:01:00Z","author":"b","content":"y","channel":"c"}
	]`

	tests := []struct {
		name     string
		body     string
		limit    int
		wantCode int
		wantBody string
	}{
		{"accepted", body, 10, http.StatusAccepted, `"inserted":1`},
		{"over limit", body, 1, http.StatusRequestEntityTooLarge, "too many"},
		{"invalid json", `{`, 10, http.StatusBadRequest, "invalid message"},
		{"invalid message", `[{"id":"m1"}]`, 10, http.StatusBadRequest, "streamId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &recordingSource{}
			mux := http.NewServeMux()
			routes.Register(mux, messages.NewHandler(src, tt.limit, slog.New(slog.DiscardHandler)).Routes())

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("POST", "/messages", strings.NewReader(tt.body)))

			if rec.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body: got %s, want %s", rec.Body.String(), tt.wantBody)
			}
			if tt.wantCode == http.StatusAccepted && len(src.ingested) != 2 {
				t.Errorf("ingested: got %d, want 2", len(src.ingested))
			}
		})
	}
}
