package api

import (
	"github.com/JaimeStill/scribe/internal/config"
	"github.com/JaimeStill/scribe/internal/infrastructure"
	"github.com/JaimeStill/scribe/internal/pipeline"
)

// Runtime extends Infrastructure with the settings domain systems are built from.
type Runtime struct {
	*infrastructure.Infrastructure
	Pipeline    pipeline.Config
	Tenant      pipeline.Tenant
	IngestLimit int
}

// NewRuntime creates a runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pipeline:       cfg.Pipeline,
		Tenant:         cfg.Tenant.Tenant(),
		IngestLimit:    cfg.API.IngestLimit,
	}
}
