package formatting_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/JaimeStill/scribe/pkg/formatting"
)

type sample struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  sample
	}{
		{"direct JSON", `{"name":"test","value":42}`, sample{"test", 42}},
		{"padded", `  {"name":"padded","value":1}  `, sample{"padded", 1}},
		{"fenced", "```json\n{\"name\":\"fenced\",\"value\":7}\n```", sample{"fenced", 7}},
		{"fenced without tag", "```\n{\"name\":\"bare\",\"value\":3}\n```", sample{"bare", 3}},
		{"fenced inside prose", "Here you go:\n```json\n{\"name\":\"wrapped\",\"value\":5}\n```\nDone.", sample{"wrapped", 5}},
		{"object inside prose", `Result: {"name":"inline","value":9} hope that helps`, sample{"inline", 9}},
		{"trailing comma", "{\"name\":\"comma\",\"value\":2,}", sample{"comma", 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatting.Parse[sample](tt.input)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse = %+v, want %+v", got, tt.want)
			}
		})
	}

	t.Run("slice with trailing comma", func(t *testing.T) {
		got, err := formatting.Parse[[]int]("[1,2,3,]")
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if len(got) != 3 || got[2] != 3 {
			t.Errorf("got = %v, want [1 2 3]", got)
		}
	})

	failures := []struct {
		name  string
		input string
	}{
		{"not json", "not json at all"},
		{"empty", ""},
		{"broken fence", "```json\n{broken\n```"},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := formatting.Parse[sample](tt.input)
			if !errors.Is(err, formatting.ErrParseFailed) {
				t.Errorf("error = %v, want ErrParseFailed", err)
			}
		})
	}

	t.Run("error excerpt is bounded", func(t *testing.T) {
		_, err := formatting.Parse[sample](strings.Repeat("x", 1000))
		if err == nil {
			t.Fatal("expected error")
		}
		if len(err.Error()) > 300 {
			t.Errorf("len(error) = %d, want excerpt", len(err.Error()))
		}
	})
}

func TestUnwrapFence(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		removed bool
	}{
		{"markdown fence", "```markdown\n## Title\n\nBody\n```", "## Title\n\nBody", true},
		{"bare fence", "```\nline\n```", "line", true},
		{"no fence", "plain text", "plain text", false},
		{"embedded fence", "intro\n```go\nx := 1\n```\noutro", "intro\n```go\nx := 1\n```\noutro", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, removed := formatting.UnwrapFence(tt.input)
			if got != tt.want || removed != tt.removed {
				t.Errorf("UnwrapFence = (%q, %v), want (%q, %v)", got, removed, tt.want, tt.removed)
			}
		})
	}
}
