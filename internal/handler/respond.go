package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/catalog"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/osrs"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/repository"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/service"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/validation"
)

// maxBodySize bounds JSON and form request bodies; screenshots are inline.
const maxBodySize = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// writeServiceError maps domain errors to a status code. Unknown errors are
// logged and reported as 500 with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var fieldErr *validation.FieldError
	var exhausted *osrs.ExhaustedError

	switch {
	case errors.As(err, &fieldErr):
		writeError(w, http.StatusBadRequest, fieldErr.Message)
	case errors.Is(err, model.ErrInvalidGoal), errors.Is(err, model.ErrUnknownGoalType),
		errors.Is(err, service.ErrGoalIDMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, osrs.ErrPlayerNotFound), errors.Is(err, osrs.ErrGroupNotFound),
		errors.Is(err, osrs.ErrCollectionLogNotSynced),
		errors.Is(err, repository.ErrGoalNotFound),
		errors.Is(err, catalog.ErrQuestNotFound), errors.Is(err, catalog.ErrDiaryNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrGoalLimit):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidSignature):
		writeError(w, http.StatusUnauthorized, "Invalid signature")
	case errors.Is(err, osrs.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, osrs.ErrRateLimited.Error())
	case errors.As(err, &exhausted):
		slog.Warn("upstream lookup failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error("failed to "+op, "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
