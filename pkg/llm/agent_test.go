package llm_test

import (
	"log/slog"
	"testing"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/scribe/pkg/llm"
)

func TestComposePrompt(t *testing.T) {
	tests := []struct {
		name string
		msgs []llm.Message
		want string
	}{
		{
			"system and user",
			[]llm.Message{
				{Role: llm.RoleSystem, Content: "Classify the threads."},
				{Role: llm.RoleUser, Content: "[m1] how do I install?\n"},
			},
			"Classify the threads.\n\n[m1] how do I install?",
		},
		{
			"correction turn",
			[]llm.Message{
				{Role: llm.RoleSystem, Content: "sys"},
				{Role: llm.RoleUser, Content: "usr"},
				{Role: llm.RoleAssistant, Content: "{\"items\":[]}"},
				{Role: llm.RoleUser, Content: "items: must not be empty"},
			},
			"sys\n\nusr\n\nYour previous response:\n{\"items\":[]}\n\nitems: must not be empty",
		},
		{
			"blank turns dropped",
			[]llm.Message{
				{Role: llm.RoleSystem, Content: "  "},
				{Role: llm.RoleUser, Content: "usr"},
			},
			"usr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := llm.ComposePrompt(tt.msgs); got != tt.want {
				t.Errorf("ComposePrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAgentModel(t *testing.T) {
	cfg := &llm.Config{Timeout: "30s", MaxRetries: 1}
	logger := slog.New(slog.DiscardHandler)

	a := llm.NewAgent(gaconfig.AgentConfig{
		Name:  "scribe-agent",
		Model: &gaconfig.ModelConfig{Name: "llama3.1:8b"},
	}, cfg, logger)
	if got := a.Model(); got != "llama3.1:8b" {
		t.Errorf("Model() = %q, want llama3.1:8b", got)
	}

	bare := llm.NewAgent(gaconfig.AgentConfig{Name: "scribe-agent"}, cfg, logger)
	if got := bare.Model(); got != "" {
		t.Errorf("Model() without model = %q, want empty", got)
	}
}
