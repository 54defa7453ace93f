package messages

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/routes"
)

// IngestResult reports how many submitted messages were new.
type IngestResult struct {
	Received int `json:"received"`
	Inserted int `json:"inserted"`
}

// Handler accepts message submissions over HTTP.
type Handler struct {
	sys    System
	limit  int
	logger *slog.Logger
}

// NewHandler creates a Handler that accepts at most limit messages per request.
func NewHandler(sys System, limit int, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		limit:  limit,
		logger: logger.With("handler", "messages"),
	}
}

// Routes returns the route group definition for message endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/messages",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Ingest},
		},
	}
}

// Ingest stores a JSON array of messages as PENDING. Known IDs are skipped.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var msgs []Message
	if err := json.NewDecoder(r.Body).Decode(&msgs); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalid, err))
		return
	}
	if h.limit > 0 && len(msgs) > h.limit {
		handlers.RespondError(w, h.logger, MapHTTPStatus(ErrTooMany), ErrTooMany)
		return
	}

	prepared, err := Prepare(msgs)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	n, err := h.sys.Ingest(r.Context(), prepared)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, IngestResult{Received: len(prepared), Inserted: n})
}
