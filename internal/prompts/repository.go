package prompts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a prompt repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "prompts"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) List(ctx context.Context, stage *Stage) ([]Prompt, error) {
	stmt := repository.Builder.
		Select(columns...).
		From("prompts").
		OrderBy("stage", "name")

	if stage != nil {
		stmt = stmt.Where(sq.Eq{"stage": *stage})
	}

	items, err := repository.SelectMany(ctx, r.db, stmt, scanPrompt)
	if err != nil {
		return nil, fmt.Errorf("query prompts: %w", err)
	}
	return items, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	stmt := repository.Builder.
		Select(columns...).
		From("prompts").
		Where(sq.Eq{"id": id})

	p, err := repository.SelectOne(ctx, r.db, stmt, scanPrompt)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Prompt, error) {
	if strings.TrimSpace(cmd.Name) == "" || strings.TrimSpace(cmd.Instructions) == "" {
		return nil, ErrEmpty
	}
	if _, err := ParseStage(string(cmd.Stage)); err != nil {
		return nil, err
	}

	stmt := repository.Builder.
		Insert("prompts").
		Columns("name", "stage", "instructions", "description").
		Values(cmd.Name, cmd.Stage, cmd.Instructions, cmd.Description).
		Suffix(returning)

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Prompt, error) {
		return repository.SelectOne(ctx, tx, stmt, scanPrompt)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "prompt created", "id", p.ID, "name", p.Name, "stage", p.Stage)
	return &p, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, "DELETE FROM prompts WHERE id = $1", id)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "prompt deleted", "id", id)
	return nil
}

func (r *repo) Activate(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Prompt, error) {
		target, err := repository.SelectOne(ctx, tx, repository.Builder.
			Select(columns...).
			From("prompts").
			Where(sq.Eq{"id": id}), scanPrompt)
		if err != nil {
			return Prompt{}, err
		}

		_, err = repository.Exec(ctx, tx, repository.Builder.
			Update("prompts").
			Set("active", false).
			Where(sq.Eq{"stage": target.Stage, "active": true}))
		if err != nil {
			return Prompt{}, fmt.Errorf("deactivate current: %w", err)
		}

		return repository.SelectOne(ctx, tx, repository.Builder.
			Update("prompts").
			Set("active", true).
			Where(sq.Eq{"id": id}).
			Suffix(returning), scanPrompt)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "prompt activated", "id", p.ID, "name", p.Name, "stage", p.Stage)
	return &p, nil
}

func (r *repo) Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	stmt := repository.Builder.
		Update("prompts").
		Set("active", false).
		Where(sq.Eq{"id": id}).
		Suffix(returning)

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Prompt, error) {
		return repository.SelectOne(ctx, tx, stmt, scanPrompt)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "prompt deactivated", "id", p.ID, "name", p.Name, "stage", p.Stage)
	return &p, nil
}

func (r *repo) Instructions(ctx context.Context, stage Stage) (string, error) {
	stmt := repository.Builder.
		Select("instructions").
		From("prompts").
		Where(sq.Eq{"stage": stage, "active": true})

	text, err := repository.SelectOne(ctx, r.db, stmt, func(s repository.Scanner) (string, error) {
		var text string
		err := s.Scan(&text)
		return text, err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Default(stage)
	}
	if err != nil {
		return "", fmt.Errorf("load %s instructions: %w", stage, err)
	}
	return text, nil
}

func (r *repo) Compose(ctx context.Context, stage Stage, t Tenant, maxProposals int) (string, error) {
	instructions, err := r.Instructions(ctx, stage)
	if err != nil {
		return "", err
	}
	return Compose(stage, instructions, t, maxProposals)
}

// Compose joins rendered instructions with the stage response format.
func Compose(stage Stage, instructions string, t Tenant, maxProposals int) (string, error) {
	format, err := Format(stage)
	if err != nil {
		return "", err
	}

	format = strings.ReplaceAll(format, "{maxProposals}", strconv.Itoa(max(maxProposals, 1)))

	var sb strings.Builder
	sb.WriteString(Render(instructions, t))
	sb.WriteString("\n\n")
	sb.WriteString(format)
	return sb.String(), nil
}
