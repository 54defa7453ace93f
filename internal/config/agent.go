package config

import (
	"fmt"
	"maps"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentName         = "SCRIBE_AGENT_NAME"
	EnvAgentProviderName = "SCRIBE_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "SCRIBE_AGENT_BASE_URL"
	EnvAgentToken        = "SCRIBE_AGENT_TOKEN"
	EnvAgentDeployment   = "SCRIBE_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "SCRIBE_AGENT_API_VERSION"
	EnvAgentAuthType     = "SCRIBE_AGENT_AUTH_TYPE"
	EnvAgentModelName    = "SCRIBE_AGENT_MODEL_NAME"
)

// AgentConfig is the [agent] section: the go-agents chat agent used for
// classification and proposal generation.
type AgentConfig struct {
	Name     string         `toml:"name"`
	Provider string         `toml:"provider"`
	BaseURL  string         `toml:"base_url"`
	Model    string         `toml:"model"`
	Options  map[string]any `toml:"options"`

	resolved gaconfig.AgentConfig
}

// Agent returns the finalized go-agents configuration.
func (c *AgentConfig) Agent() gaconfig.AgentConfig {
	return c.resolved
}

// Finalize layers the section onto go-agents' DefaultAgentConfig, applies
// environment overrides, and validates the result.
func (c *AgentConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Options merge key by key.
func (c *AgentConfig) Merge(overlay *AgentConfig) {
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if len(overlay.Options) > 0 {
		if c.Options == nil {
			c.Options = make(map[string]any, len(overlay.Options))
		}
		maps.Copy(c.Options, overlay.Options)
	}
}

func (c *AgentConfig) loadDefaults() {
	file := gaconfig.AgentConfig{Name: c.Name}
	if c.Provider != "" || c.BaseURL != "" || len(c.Options) > 0 {
		file.Provider = &gaconfig.ProviderConfig{
			Name:    c.Provider,
			BaseURL: c.BaseURL,
			Options: maps.Clone(c.Options),
		}
	}
	if c.Model != "" {
		file.Model = &gaconfig.ModelConfig{Name: c.Model}
	}

	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(&file)
	c.resolved = defaults
}

func (c *AgentConfig) loadEnv() {
	r := &c.resolved
	if r.Provider == nil {
		r.Provider = &gaconfig.ProviderConfig{}
	}
	if r.Provider.Options == nil {
		r.Provider.Options = make(map[string]any)
	}
	if r.Model == nil {
		r.Model = &gaconfig.ModelConfig{}
	}
	if v := os.Getenv(EnvAgentName); v != "" {
		r.Name = v
	}
	if v := os.Getenv(EnvAgentProviderName); v != "" {
		r.Provider.Name = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		r.Provider.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModelName); v != "" {
		r.Model.Name = v
	}

	setOption := func(envVar, key string) {
		if v := os.Getenv(envVar); v != "" {
			r.Provider.Options[key] = v
		}
	}

	setOption(EnvAgentToken, "token")
	setOption(EnvAgentDeployment, "deployment")
	setOption(EnvAgentAPIVersion, "api_version")
	setOption(EnvAgentAuthType, "auth_type")
}

func (c *AgentConfig) validate() error {
	r := c.resolved
	if r.Name == "" {
		return fmt.Errorf("name required")
	}
	if r.Provider == nil || r.Provider.Name == "" {
		return fmt.Errorf("provider name required")
	}
	if r.Model == nil {
		return fmt.Errorf("model required")
	}
	return nil
}
