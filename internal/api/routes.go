package api

import (
	"net/http"

	"github.com/JaimeStill/scribe/internal/classifications"
	"github.com/JaimeStill/scribe/internal/messages"
	"github.com/JaimeStill/scribe/internal/proposals"
	"github.com/JaimeStill/scribe/internal/rulesets"
	"github.com/JaimeStill/scribe/internal/watermarks"
	"github.com/JaimeStill/scribe/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	logger := runtime.Logger

	patterns := routes.Register(
		mux,
		newRunsHandler(domain.Runner, logger).routes(),
		messages.NewHandler(domain.Messages, runtime.IngestLimit, logger).Routes(),
		watermarks.NewHandler(domain.Watermarks, logger).Routes(),
		classifications.NewHandler(domain.Classifications, logger).Routes(),
		proposals.NewHandler(domain.Proposals, logger).Routes(),
		rulesets.NewHandler(domain.Rulesets, logger).Routes(),
		domain.Prompts.Handler().Routes(),
	)

	logger.Debug("routes registered", "count", len(patterns), "patterns", patterns)
}
