package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ryanbastic/go-pagegrid/internal/content"
	"github.com/ryanbastic/go-pagegrid/internal/editor"
	"github.com/ryanbastic/go-pagegrid/internal/hook"
	"github.com/ryanbastic/go-pagegrid/internal/page"
	"github.com/ryanbastic/go-pagegrid/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// apiError maps domain errors to problem responses. Unexpected errors are
// logged and reported as 500 without detail.
func apiError(logger *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrPageNotFound):
		return huma.Error404NotFound("page not found")
	case errors.Is(err, storage.ErrRevisionNotFound):
		return huma.Error404NotFound("revision not found")
	case errors.Is(err, editor.ErrSessionNotFound):
		return huma.Error404NotFound("editing session not found")
	case errors.Is(err, hook.ErrSubscriberNotFound):
		return huma.Error404NotFound("hook not found")
	case errors.Is(err, storage.ErrSlugTaken):
		return huma.Error409Conflict("slug is already in use")
	case errors.Is(err, hook.ErrEndpointTaken):
		return huma.Error409Conflict("endpoint is already registered")
	case errors.Is(err, page.ErrInvalidSlug),
		errors.Is(err, content.ErrInvalidTree),
		errors.Is(err, hook.ErrInvalidSubscriber):
		return huma.Error422UnprocessableEntity(err.Error())
	}

	logger.Error("request failed", "op", op, "error", err)
	return huma.Error500InternalServerError("internal error")
}
