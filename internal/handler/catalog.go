package handler

import (
	"net/http"
	"strconv"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/catalog"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// Quests lists quests. Query: search, difficulty, members, miniquests, sort.
func (h *CatalogHandler) Quests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.QuestFilter{
		Search:     q.Get("search"),
		Difficulty: q.Get("difficulty"),
		Members:    boolParam(q.Get("members")),
		Miniquests: boolParam(q.Get("miniquests")),
		Sort:       q.Get("sort"),
	}
	writeJSON(w, http.StatusOK, h.catalog.Quests(filter))
}

func (h *CatalogHandler) Quest(w http.ResponseWriter, r *http.Request) {
	quest, err := h.catalog.Quest(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "get quest", err)
		return
	}
	writeJSON(w, http.StatusOK, quest)
}

func (h *CatalogHandler) Diaries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Diaries())
}

func (h *CatalogHandler) Diary(w http.ResponseWriter, r *http.Request) {
	diary, err := h.catalog.Diary(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "get diary", err)
		return
	}
	writeJSON(w, http.StatusOK, diary)
}

// Potions lists potions. Query: level (maximum Herblore level).
func (h *CatalogHandler) Potions(w http.ResponseWriter, r *http.Request) {
	level := 0
	if v := r.URL.Query().Get("level"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid level parameter")
			return
		}
		level = n
	}
	writeJSON(w, http.StatusOK, h.catalog.Potions(level))
}

func (h *CatalogHandler) Potion(w http.ResponseWriter, r *http.Request) {
	potion, ok := h.catalog.Potion(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "potion not found")
		return
	}
	writeJSON(w, http.StatusOK, potion)
}

func (h *CatalogHandler) Monsters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Monsters())
}

func (h *CatalogHandler) Monster(w http.ResponseWriter, r *http.Request) {
	monster, ok := h.catalog.Monster(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "monster not found")
		return
	}
	writeJSON(w, http.StatusOK, monster)
}

// Locations lists locations. Query: region.
func (h *CatalogHandler) Locations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Locations(r.URL.Query().Get("region")))
}

func (h *CatalogHandler) Location(w http.ResponseWriter, r *http.Request) {
	location, ok := h.catalog.Location(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}
	writeJSON(w, http.StatusOK, location)
}

func boolParam(v string) *bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}
