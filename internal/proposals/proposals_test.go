package proposals_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/proposals"
)

func TestCommitRejectsInvalidProposals(t *testing.T) {
	sys := proposals.New(nil, slog.New(slog.DiscardHandler))

	text := "new text"
	tests := []struct {
		name     string
		proposal proposals.Proposal
		want     error
	}{
		{
			name: "unknown update type",
			proposal: proposals.Proposal{
				ID:         uuid.New(),
				UpdateType: "REWRITE",
				Page:       "docs/setup.md",
			},
			want: proposals.ErrInvalidUpdate,
		},
		{
			name: "update without page",
			proposal: proposals.Proposal{
				ID:            uuid.New(),
				UpdateType:    proposals.UpdateUpdate,
				SuggestedText: &text,
			},
			want: proposals.ErrMissingPage,
		},
		{
			name: "delete with blank page",
			proposal: proposals.Proposal{
				ID:         uuid.New(),
				UpdateType: proposals.UpdateDelete,
				Page:       "   ",
			},
			want: proposals.ErrMissingPage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sys.Commit(context.Background(), proposals.Commit{
				Proposals: []proposals.Proposal{tt.proposal},
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("Commit() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUpdateTypeValid(t *testing.T) {
	tests := []struct {
		in   proposals.UpdateType
		want bool
	}{
		{proposals.UpdateInsert, true},
		{proposals.UpdateUpdate, true},
		{proposals.UpdateDelete, true},
		{proposals.UpdateNone, true},
		{"update", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := tt.in.Valid(); got != tt.want {
			t.Errorf("UpdateType(%q).Valid() = %v, want %v", tt.in, got, tt.want)
		}
	}
}
