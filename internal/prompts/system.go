package prompts

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for prompt operations.
type System interface {
	Handler() *Handler

	List(ctx context.Context, stage *Stage) ([]Prompt, error)
	Find(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Create(ctx context.Context, cmd CreateCommand) (*Prompt, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error)

	// Instructions returns the active override for stage, or the built-in default.
	Instructions(ctx context.Context, stage Stage) (string, error)

	// Compose builds the system prompt for stage: tenant-rendered instructions
	// followed by the response format.
	Compose(ctx context.Context, stage Stage, t Tenant, maxProposals int) (string, error)
}
