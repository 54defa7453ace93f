// Package llm provides chat completion through go-agents, embeddings against
// OpenAI-compatible endpoints, and schema-validated structured requests.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/JaimeStill/scribe/pkg/retry"
)

// Role values for Message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat completion request. MaxTokens and JSON are hints a
// Completer may not be able to honor.
type Request struct {
	Messages  []Message
	MaxTokens int
	JSON      bool
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the first choice of a completion.
type Response struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

// Completer produces chat completions.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
}

// Embedder converts text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client implements Embedder over go-openai.
type Client struct {
	client         *openai.Client
	embeddingModel string
	timeout        time.Duration
	retry          retry.Config
	logger         *slog.Logger
}

// New creates a Client. A BaseURL targets any OpenAI-compatible server.
func New(cfg *Config, logger *slog.Logger) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	logger = logger.With("system", "embeddings")

	return &Client{
		client:         openai.NewClientWithConfig(oc),
		embeddingModel: cfg.EmbeddingModel,
		timeout:        cfg.TimeoutDuration(),
		retry:          retryConfig(cfg, logger),
		logger:         logger,
	}
}

func retryConfig(cfg *Config, logger *slog.Logger) retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxAttempts = cfg.MaxRetries
	rc.Retryable = IsTransient
	rc.Logger = logger
	return rc
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	return retry.DoWithResult(ctx, c.retry, func(ctx context.Context) ([]float32, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateEmbeddings(callCtx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(c.embeddingModel),
		})
		if err != nil {
			return nil, fmt.Errorf("create embedding: %w", err)
		}
		if len(resp.Data) == 0 {
			return nil, ErrEmptyResponse
		}

		return resp.Data[0].Embedding, nil
	})
}
