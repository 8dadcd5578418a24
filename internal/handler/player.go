package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/osrs"
)

type PlayerHandler struct {
	client *osrs.Client
}

func NewPlayerHandler(client *osrs.Client) *PlayerHandler {
	return &PlayerHandler{client: client}
}

func (h *PlayerHandler) Player(w http.ResponseWriter, r *http.Request) {
	stats, err := h.client.LookupPlayer(r.Context(), r.PathValue("name"))
	if err != nil {
		writeServiceError(w, r, "look up player", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *PlayerHandler) Group(w http.ResponseWriter, r *http.Request) {
	group, err := h.client.LookupGroup(r.Context(), r.PathValue("name"))
	if err != nil {
		writeServiceError(w, r, "look up group", err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// CollectionLog serves a player's TempleOSRS collection log. With ?all=true
// categories the player has no entries in are listed empty.
func (h *PlayerHandler) CollectionLog(w http.ResponseWriter, r *http.Request) {
	cl, err := h.client.LookupCollectionLog(r.Context(), r.PathValue("name"))
	if err != nil {
		writeServiceError(w, r, "look up collection log", err)
		return
	}
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		if err := h.client.IncludeEmptyCategories(r.Context(), cl); err != nil {
			slog.Warn("collection log categories unavailable", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, cl)
}
