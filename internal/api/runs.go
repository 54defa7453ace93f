package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/scribe/internal/pipeline"
	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/routes"
)

type runsHandler struct {
	runner *pipeline.Runner
	logger *slog.Logger
}

func newRunsHandler(runner *pipeline.Runner, logger *slog.Logger) *runsHandler {
	return &runsHandler{
		runner: runner,
		logger: logger.With("handler", "runs"),
	}
}

func (h *runsHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/runs",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.trigger},
		},
	}
}

// trigger runs the pipeline synchronously, over one stream when the stream
// query parameter is set and over every pending stream otherwise.
func (h *runsHandler) trigger(w http.ResponseWriter, r *http.Request) {
	var (
		res *pipeline.RunResult
		err error
	)
	if stream := r.URL.Query().Get("stream"); stream != "" {
		res, err = h.runner.RunStream(r.Context(), stream)
	} else {
		res, err = h.runner.RunAll(r.Context())
	}

	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		handlers.RespondError(w, h.logger, http.StatusConflict, err)
	case err != nil && res == nil:
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
	case err != nil:
		h.logger.Warn("run finished with errors", "error", err)
		handlers.RespondJSON(w, http.StatusMultiStatus, runResponse{RunResult: res, Error: err.Error()})
	default:
		handlers.RespondJSON(w, http.StatusOK, runResponse{RunResult: res})
	}
}

type runResponse struct {
	*pipeline.RunResult
	Error string `json:"error,omitempty"`
}
