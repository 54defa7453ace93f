package classifications

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/routes"
)

// Handler exposes the classification records of a batch.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "classifications"),
	}
}

// Routes returns the route group definition for batch endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/batches",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/classifications", Handler: h.ListByBatch},
		},
	}
}

// ListByBatch returns every record a batch wrote.
func (h *Handler) ListByBatch(w http.ResponseWriter, r *http.Request) {
	records, err := h.sys.ListByBatch(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []Record{}
	}
	handlers.RespondJSON(w, http.StatusOK, records)
}
