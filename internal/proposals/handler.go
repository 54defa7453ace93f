package proposals

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/routes"
)

// ConversationView pairs a conversation's retrieval context with its proposals.
type ConversationView struct {
	Context   *RetrievalContext `json:"context"`
	Proposals []Proposal        `json:"proposals"`
}

// Handler provides read endpoints over conversation outcomes.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "proposals"),
	}
}

// Routes returns the route group definition for conversation endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/conversations",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
		},
	}
}

// Find returns the retrieval context and proposals of a conversation.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid conversation id: %w", err))
		return
	}

	rc, err := h.sys.FindContext(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	items, err := h.sys.ListByConversation(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	if items == nil {
		items = []Proposal{}
	}

	handlers.RespondJSON(w, http.StatusOK, ConversationView{Context: rc, Proposals: items})
}

// MapHTTPStatus maps proposal domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMissingPage), errors.Is(err, ErrInvalidUpdate):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
