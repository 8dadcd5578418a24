// Package views holds presentation state derived from the journal's goal
// list. Every view is refreshed with the full list after each change.
package views

import (
	"context"
	"sync"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
)

type CategoryGroup struct {
	Category string        `json:"category"`
	Goals    []*model.Goal `json:"goals"`
}

// GroupByCategory buckets goals in display order. Empty categories are
// left out; goals keep their relative order.
func GroupByCategory(goals []*model.Goal) []CategoryGroup {
	buckets := make(map[string][]*model.Goal, len(model.Categories))
	for _, g := range goals {
		c := g.Category()
		buckets[c] = append(buckets[c], g)
	}

	var out []CategoryGroup
	for _, c := range model.Categories {
		if len(buckets[c]) > 0 {
			out = append(out, CategoryGroup{Category: c, Goals: buckets[c]})
		}
	}
	return out
}

// JournalView is the journal's display list.
type JournalView struct {
	mu     sync.RWMutex
	groups []CategoryGroup
	total  int
}

func NewJournalView() *JournalView {
	return &JournalView{}
}

func (v *JournalView) Refresh(ctx context.Context, goals []*model.Goal) {
	groups := GroupByCategory(goals)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.groups = groups
	v.total = len(goals)
}

func (v *JournalView) Groups() []CategoryGroup {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.groups
}

func (v *JournalView) Total() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.total
}
