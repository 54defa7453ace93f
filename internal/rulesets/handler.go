package rulesets

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/routes"
)

const maxDocumentSize = 1 << 20

// View is the JSON shape of a compiled ruleset.
type View struct {
	TenantID       string    `json:"tenantId"`
	Version        string    `json:"version"`
	RejectionRules []string  `json:"rejectionRules"`
	QualityGates   []string  `json:"qualityGates"`
	Skipped        []string  `json:"skipped"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewView summarizes rs by the source text of each compiled entry.
func NewView(rs *Ruleset) View {
	v := View{
		TenantID:       rs.TenantID,
		Version:        rs.Version(),
		RejectionRules: []string{},
		QualityGates:   []string{},
		Skipped:        []string{},
		UpdatedAt:      rs.UpdatedAt,
	}
	for _, r := range rs.Rules {
		v.RejectionRules = append(v.RejectionRules, r.Source)
	}
	for _, g := range rs.Gates {
		v.QualityGates = append(v.QualityGates, g.Source)
	}
	v.Skipped = append(v.Skipped, rs.Skipped...)
	return v
}

// Handler provides HTTP endpoints for tenant rulesets.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "rulesets"),
	}
}

// Routes returns the route group definition for ruleset endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/rulesets",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{tenant}", Handler: h.Find},
			{Method: "PUT", Pattern: "/{tenant}", Handler: h.Put},
			{Method: "POST", Pattern: "/{tenant}/invalidate", Handler: h.Invalidate},
		},
	}
}

// Find returns the compiled ruleset of a tenant.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	rs, err := h.sys.Get(r.Context(), r.PathValue("tenant"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, NewView(rs))
}

// Put replaces a tenant ruleset with the YAML document in the request body.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	rs, err := h.sys.Put(r.Context(), r.PathValue("tenant"), string(body))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, NewView(rs))
}

// Invalidate drops the cached copy of a tenant ruleset.
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.Invalidate(r.Context(), r.PathValue("tenant")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MapHTTPStatus maps ruleset errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidDocument) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
