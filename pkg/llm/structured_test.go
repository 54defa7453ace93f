package llm_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/JaimeStill/scribe/pkg/llm"
)

type answer struct {
	Items []string `json:"items"`
}

func (a answer) Validate() error {
	if len(a.Items) == 0 {
		return llm.Invalid("items", "must not be empty")
	}
	return nil
}

type scripted struct {
	replies  []string
	requests []llm.Request
	err      error
}

func (s *scripted) Model() string { return "test-model" }

func (s *scripted) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	i := min(len(s.requests)-1, len(s.replies)-1)
	return &llm.Response{
		Content: s.replies[i],
		Model:   "test-model",
		Usage:   llm.Usage{TotalTokens: 10},
	}, nil
}

func TestRequestStructured(t *testing.T) {
	t.Run("first attempt succeeds", func(t *testing.T) {
		c := &scripted{replies: []string{`{"items":["a"]}`}}

		got, err := llm.RequestStructured[answer](context.Background(), c, llm.StructuredOptions{
			System: "sys", User: "usr", Attempts: 3,
		})
		if err != nil {
			t.Fatalf("RequestStructured error: %v", err)
		}
		if got.Attempts != 1 || len(got.Value.Items) != 1 {
			t.Errorf("got = %+v, want one item on attempt 1", got)
		}
		if !c.requests[0].JSON {
			t.Error("request JSON = false, want true")
		}
		if got.Model != "test-model" {
			t.Errorf("Model = %q, want test-model", got.Model)
		}
	})

	t.Run("validation failure is corrected", func(t *testing.T) {
		c := &scripted{replies: []string{`{"items":[]}`, `{"items":["fixed"]}`}}

		got, err := llm.RequestStructured[answer](context.Background(), c, llm.StructuredOptions{Attempts: 2})
		if err != nil {
			t.Fatalf("RequestStructured error: %v", err)
		}
		if got.Attempts != 2 {
			t.Errorf("Attempts = %d, want 2", got.Attempts)
		}
		if got.Usage.TotalTokens != 20 {
			t.Errorf("TotalTokens = %d, want 20", got.Usage.TotalTokens)
		}

		second := c.requests[1].Messages
		if len(second) != 4 {
			t.Fatalf("len(messages) = %d, want 4", len(second))
		}
		if second[2].Role != llm.RoleAssistant {
			t.Errorf("messages[2].Role = %q, want assistant", second[2].Role)
		}
		if !strings.Contains(second[3].Content, `"items"`) {
			t.Errorf("correction = %q, want field name", second[3].Content)
		}
	})

	t.Run("exhausted attempts yield SchemaError", func(t *testing.T) {
		c := &scripted{replies: []string{"nope"}}

		_, err := llm.RequestStructured[answer](context.Background(), c, llm.StructuredOptions{Attempts: 2})

		var se *llm.SchemaError
		if !errors.As(err, &se) {
			t.Fatalf("error = %v, want *SchemaError", err)
		}
		if se.Attempts != 2 {
			t.Errorf("Attempts = %d, want 2", se.Attempts)
		}
		if !errors.Is(err, llm.ErrSchema) {
			t.Error("errors.Is(err, ErrSchema) = false")
		}
		if len(c.requests) != 2 {
			t.Errorf("requests = %d, want 2", len(c.requests))
		}
	})

	t.Run("transport error is returned unchanged", func(t *testing.T) {
		boom := errors.New("connection refused")
		c := &scripted{err: boom}

		_, err := llm.RequestStructured[answer](context.Background(), c, llm.StructuredOptions{Attempts: 3})
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want %v", err, boom)
		}
		if errors.Is(err, llm.ErrSchema) {
			t.Error("transport error reported as schema error")
		}
	})
}

func TestIsTransient(t *testing.T) {
	if llm.IsTransient(llm.ErrEmptyResponse) {
		t.Error("IsTransient(ErrEmptyResponse) = true, want false")
	}
	if !llm.IsTransient(errors.New("dial tcp: timeout")) {
		t.Error("IsTransient(network) = false, want true")
	}
	if llm.IsTransient(fmt.Errorf("chat: %w", context.Canceled)) {
		t.Error("IsTransient(cancelled) = true, want false")
	}
}
