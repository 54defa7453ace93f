// Package api assembles the API module: the domain systems, the pipeline
// runner built over them, and their route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/scribe/internal/config"
	"github.com/JaimeStill/scribe/internal/infrastructure"
	"github.com/JaimeStill/scribe/pkg/middleware"
	"github.com/JaimeStill/scribe/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The returned Domain shares its runner with the module so scheduled runs and
// manual triggers contend for the same lease.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, *Domain) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.Instrument(runtime.Metrics))

	return m, domain
}
