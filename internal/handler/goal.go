package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/ctxkeys"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/service"
)

// GoalHandler serves the remote goal list of the bearer identity.
type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	goals, err := h.goalService.Goals(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "list goals", err)
		return
	}

	records := make([]model.GoalRecord, 0, len(goals))
	for _, g := range goals {
		records = append(records, g.Record())
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": records})
}

// Put stores the goal in the body under the id in the path.
func (h *GoalHandler) Put(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	goalID := r.PathValue("id")

	var record model.GoalRecord
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if record.ID == "" {
		record.ID = goalID
	}

	goal, err := record.Goal()
	if err != nil {
		writeServiceError(w, r, "decode goal", err)
		return
	}
	if err := h.goalService.Save(r.Context(), userID, goalID, goal); err != nil {
		writeServiceError(w, r, "save goal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "goal": goal.Record()})
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	if err := h.goalService.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, "delete goal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
