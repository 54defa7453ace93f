package api

import (
	"github.com/JaimeStill/scribe/internal/classifications"
	"github.com/JaimeStill/scribe/internal/messages"
	"github.com/JaimeStill/scribe/internal/pipeline"
	"github.com/JaimeStill/scribe/internal/prompts"
	"github.com/JaimeStill/scribe/internal/proposals"
	"github.com/JaimeStill/scribe/internal/rulesets"
	"github.com/JaimeStill/scribe/internal/watermarks"
)

// Domain holds all domain systems and the pipeline runner built over them.
type Domain struct {
	Messages        messages.System
	Watermarks      watermarks.System
	Classifications classifications.System
	Proposals       proposals.System
	Prompts         prompts.System
	Rulesets        rulesets.System
	Runner          *pipeline.Runner
}

// NewDomain creates all domain systems from the runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()
	logger := runtime.Logger

	d := &Domain{
		Messages:        messages.New(db, logger),
		Watermarks:      watermarks.New(db, logger),
		Classifications: classifications.New(db, logger),
		Proposals:       proposals.New(db, logger),
		Prompts:         prompts.New(db, logger),
		Rulesets:        rulesets.New(db, runtime.Cache, runtime.Pipeline.RulesetTTL(), logger),
	}

	d.Runner = pipeline.New(&pipeline.Runtime{
		Config:          runtime.Pipeline,
		Tenant:          runtime.Tenant,
		Messages:        d.Messages,
		Watermarks:      d.Watermarks,
		Classifications: d.Classifications,
		Proposals:       d.Proposals,
		Prompts:         d.Prompts,
		Rulesets:        d.Rulesets,
		LLM:             runtime.LLM,
		Vector:          runtime.Vector,
		Locker:          runtime.Locker,
		Events:          runtime.Events,
		Archive:         runtime.Storage,
		Metrics:         pipeline.NewMetrics(runtime.Metrics),
		Logger:          logger,
	})

	return d
}
