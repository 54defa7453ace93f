// Package prompts manages the system prompts sent to the language model. Each
// pipeline stage has built-in instructions that an operator can replace with a
// stored override, and an immutable response format the pipeline parses.
package prompts

import "github.com/google/uuid"

// Prompt is a named instruction override for a pipeline stage.
type Prompt struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Stage        Stage     `json:"stage"`
	Instructions string    `json:"instructions"`
	Description  *string   `json:"description"`
	Active       bool      `json:"active"`
}

// CreateCommand carries the data needed to create a new prompt override.
type CreateCommand struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

// Tenant supplies the project details templated into instructions.
type Tenant struct {
	ProjectName string
	Domain      string
}
