package watermarks

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/routes"
)

// Handler exposes stream watermarks.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "watermarks"),
	}
}

// Routes returns the route group definition for watermark endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/watermarks",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
		},
	}
}

// List returns the watermark of every stream that has one.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.sys.List(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []Watermark{}
	}
	handlers.RespondJSON(w, http.StatusOK, items)
}
