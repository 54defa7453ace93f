package proposals_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/proposals"
	"github.com/JaimeStill/scribe/pkg/routes"
)

type fakeSystem struct {
	proposals.System
	contexts map[uuid.UUID]*proposals.RetrievalContext
	items    map[uuid.UUID][]proposals.Proposal
}

func (f *fakeSystem) FindContext(_ context.Context, id uuid.UUID) (*proposals.RetrievalContext, error) {
	rc, ok := f.contexts[id]
	if !ok {
		return nil, proposals.ErrNotFound
	}
	return rc, nil
}

func (f *fakeSystem) ListByConversation(_ context.Context, id uuid.UUID) ([]proposals.Proposal, error) {
	return f.items[id], nil
}

func TestHandlerFind(t *testing.T) {
	known := uuid.New()
	withProposal := uuid.New()

	sys := &fakeSystem{
		contexts: map[uuid.UUID]*proposals.RetrievalContext{
			known:        {ConversationID: known, Category: "troubleshooting", ProposalsRejected: true},
			withProposal: {ConversationID: withProposal, Category: "howto"},
		},
		items: map[uuid.UUID][]proposals.Proposal{
			withProposal: {{ID: uuid.New(), UpdateType: proposals.UpdateInsert, Page: "docs/setup.md"}},
		},
	}

	mux := http.NewServeMux()
	routes.Register(mux, proposals.NewHandler(sys, slog.New(slog.DiscardHandler)).Routes())

	tests := []struct {
		name      string
		path      string
		status    int
		proposals int
	}{
		{"context without proposals", "/conversations/" + known.String(), http.StatusOK, 0},
		{"context with proposal", "/conversations/" + withProposal.String(), http.StatusOK, 1},
		{"unknown conversation", "/conversations/" + uuid.NewString(), http.StatusNotFound, 0},
		{"malformed id", "/conversations/not-a-uuid", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}

			var view proposals.ConversationView
			if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if view.Context == nil {
				t.Fatal("context missing")
			}
			if view.Proposals == nil {
				t.Error("proposals should encode as an empty array, not null")
			}
			if len(view.Proposals) != tt.proposals {
				t.Errorf("proposals: got %d, want %d", len(view.Proposals), tt.proposals)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{proposals.ErrNotFound, http.StatusNotFound},
		{proposals.ErrMissingPage, http.StatusBadRequest},
		{proposals.ErrInvalidUpdate, http.StatusBadRequest},
		{context.Canceled, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := proposals.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
