package prompts

import (
	"github.com/JaimeStill/scribe/pkg/repository"
)

var columns = []string{
	"id",
	"name",
	"stage",
	"instructions",
	"description",
	"active",
}

const returning = "RETURNING id, name, stage, instructions, description, active"

func scanPrompt(s repository.Scanner) (Prompt, error) {
	var p Prompt
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Stage,
		&p.Instructions,
		&p.Description,
		&p.Active,
	)
	return p, err
}
