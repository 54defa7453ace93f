package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/scribe/internal/pipeline"
)

const (
	EnvTenantID          = "SCRIBE_TENANT_ID"
	EnvTenantProjectName = "SCRIBE_TENANT_PROJECT_NAME"
	EnvTenantDomain      = "SCRIBE_TENANT_DOMAIN"
)

// TenantConfig names the documentation project the pipeline writes proposals for.
type TenantConfig struct {
	ID          string `toml:"id"`
	ProjectName string `toml:"project_name"`
	Domain      string `toml:"domain"`
}

// Tenant returns the pipeline view of the tenant.
func (c *TenantConfig) Tenant() pipeline.Tenant {
	return pipeline.Tenant{
		ID:          c.ID,
		ProjectName: c.ProjectName,
		Domain:      c.Domain,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *TenantConfig) Finalize() error {
	if c.ID == "" {
		c.ID = "default"
	}
	if c.ProjectName == "" {
		c.ProjectName = "Documentation"
	}

	if v := os.Getenv(EnvTenantID); v != "" {
		c.ID = v
	}
	if v := os.Getenv(EnvTenantProjectName); v != "" {
		c.ProjectName = v
	}
	if v := os.Getenv(EnvTenantDomain); v != "" {
		c.Domain = v
	}

	if len(c.ID) > 64 {
		return fmt.Errorf("id exceeds 64 characters: %s", c.ID)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *TenantConfig) Merge(overlay *TenantConfig) {
	if overlay.ID != "" {
		c.ID = overlay.ID
	}
	if overlay.ProjectName != "" {
		c.ProjectName = overlay.ProjectName
	}
	if overlay.Domain != "" {
		c.Domain = overlay.Domain
	}
}
