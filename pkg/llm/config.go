package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the embedding endpoint and the call policy shared by
// completions and embeddings.
type Config struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	EmbeddingModel string `toml:"embedding_model"`
	Timeout        string `toml:"timeout"`
	MaxRetries     int    `toml:"max_retries"`
	SchemaAttempts int    `toml:"schema_attempts"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL        string
	APIKey         string
	EmbeddingModel string
	Timeout        string
	MaxRetries     string
	SchemaAttempts string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.EmbeddingModel != "" {
		c.EmbeddingModel = overlay.EmbeddingModel
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.SchemaAttempts != 0 {
		c.SchemaAttempts = overlay.SchemaAttempts
	}
}

func (c *Config) loadDefaults() {
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = "text-embedding-3-small"
	}
	if c.Timeout == "" {
		c.Timeout = "2m"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.SchemaAttempts == 0 {
		c.SchemaAttempts = 2
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := lookup(env.BaseURL); v != "" {
		c.BaseURL = v
	}
	if v := lookup(env.APIKey); v != "" {
		c.APIKey = v
	}
	if v := lookup(env.EmbeddingModel); v != "" {
		c.EmbeddingModel = v
	}
	if v := lookup(env.Timeout); v != "" {
		c.Timeout = v
	}
	if v := lookup(env.MaxRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := lookup(env.SchemaAttempts); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SchemaAttempts = n
		}
	}
}

func (c *Config) validate() error {
	if c.APIKey == "" && c.BaseURL == "" {
		return fmt.Errorf("api_key or base_url required")
	}
	if c.SchemaAttempts < 1 {
		return fmt.Errorf("invalid schema_attempts: %d", c.SchemaAttempts)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}

func lookup(key string) string {
	if key == "" {
		return ""
	}
	return os.Getenv(key)
}
