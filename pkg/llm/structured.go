package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/scribe/pkg/formatting"
)

// Validator is implemented by response types that enforce their own constraints.
type Validator interface {
	Validate() error
}

// Structured is a decoded, validated response along with the exchange that produced it.
type Structured[T Validator] struct {
	Value    T
	Raw      string
	Model    string
	Attempts int
	Usage    Usage
}

// StructuredOptions configures RequestStructured.
type StructuredOptions struct {
	System    string
	User      string
	MaxTokens int
	// Attempts bounds the number of completions requested when output fails to
	// decode or validate. Values below one mean a single attempt.
	Attempts int
	Logger   *slog.Logger
}

// RequestStructured asks c for a JSON document decoding into T. Output that
// fails to parse or validate is fed back to the model with a correction
// message until Attempts is exhausted, after which a *SchemaError is returned.
// Transport failures are returned as-is; the Completer owns their retries.
func RequestStructured[T Validator](ctx context.Context, c Completer, opts StructuredOptions) (*Structured[T], error) {
	attempts := max(opts.Attempts, 1)
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	messages := []Message{
		{Role: RoleSystem, Content: opts.System},
		{Role: RoleUser, Content: opts.User},
	}

	var (
		lastErr error
		usage   Usage
	)

	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.Complete(ctx, Request{
			Messages:  messages,
			MaxTokens: opts.MaxTokens,
			JSON:      true,
		})
		if err != nil {
			return nil, err
		}

		usage.PromptTokens += resp.Usage.PromptTokens
		usage.CompletionTokens += resp.Usage.CompletionTokens
		usage.TotalTokens += resp.Usage.TotalTokens

		value, err := decode[T](resp.Content)
		if err == nil {
			return &Structured[T]{
				Value:    value,
				Raw:      resp.Content,
				Model:    resp.Model,
				Attempts: attempt,
				Usage:    usage,
			}, nil
		}

		lastErr = err
		if attempt == attempts {
			break
		}

		logger.WarnContext(ctx, "structured response rejected, retrying", "attempt", attempt, "error", err)

		messages = append(messages,
			Message{Role: RoleAssistant, Content: resp.Content},
			Message{Role: RoleUser, Content: correction(err)},
		)
	}

	return nil, &SchemaError{Attempts: attempts, Reason: lastErr.Error(), Err: lastErr}
}

func decode[T Validator](content string) (T, error) {
	value, err := formatting.Parse[T](content)
	if err != nil {
		return value, err
	}
	if err := value.Validate(); err != nil {
		return value, err
	}
	return value, nil
}

func correction(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fmt.Sprintf(
			"Your previous response violated a constraint on %q: %s. Respond again with the complete corrected JSON document only.",
			fe.Field, fe.Reason,
		)
	}
	return "Your previous response was not valid JSON for the requested structure. Respond again with the JSON document only, no commentary."
}
