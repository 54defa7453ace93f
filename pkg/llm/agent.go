package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/scribe/pkg/retry"
)

// Agent implements Completer over a go-agents chat agent. The turns of a
// request are composed into one prompt. Output length and format follow the
// agent's model options, so Request.MaxTokens and Request.JSON are not forwarded.
type Agent struct {
	cfg     gaconfig.AgentConfig
	timeout time.Duration
	retry   retry.Config
	logger  *slog.Logger
}

// NewAgent creates an Agent. Timeout and retry settings come from cfg.
func NewAgent(agentCfg gaconfig.AgentConfig, cfg *Config, logger *slog.Logger) *Agent {
	logger = logger.With("system", "llm")
	return &Agent{
		cfg:     agentCfg,
		timeout: cfg.TimeoutDuration(),
		retry:   retryConfig(cfg, logger),
		logger:  logger,
	}
}

func (a *Agent) Model() string {
	if a.cfg.Model == nil {
		return ""
	}
	return a.cfg.Model.Name
}

func (a *Agent) Complete(ctx context.Context, req Request) (*Response, error) {
	cfg := a.cfg
	ag, err := agent.New(&cfg)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	prompt := composePrompt(req.Messages)

	return retry.DoWithResult(ctx, a.retry, func(ctx context.Context) (*Response, error) {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		resp, err := ag.Chat(callCtx, prompt)
		if err != nil {
			return nil, fmt.Errorf("chat: %w", err)
		}

		content := resp.Content()
		if strings.TrimSpace(content) == "" {
			return nil, ErrEmptyResponse
		}

		a.logger.DebugContext(
			ctx, "completion generated",
			"model", a.Model(),
			"prompt_chars", len(prompt),
			"response_chars", len(content),
		)

		return &Response{Content: content, Model: a.Model()}, nil
	})
}

// composePrompt flattens chat turns into a single prompt: instructions first,
// then each turn, with earlier model output labelled as such.
func composePrompt(msgs []Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if m.Role == RoleAssistant {
			content = "Your previous response:\n" + content
		}
		parts = append(parts, content)
	}
	return strings.Join(parts, "\n\n")
}
