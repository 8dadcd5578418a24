package views

import (
	"math"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/catalog"
)

type Progress struct {
	Completed      int `json:"completed"`
	Total          int `json:"total"`
	Percentage     int `json:"percentage"`
	QuestPoints    int `json:"questPoints"`
	MaxQuestPoints int `json:"maxQuestPoints"`
}

// QuestProgress counts completed quests across the whole catalog.
func QuestProgress(c *catalog.Catalog, isCompleted func(questID string) bool) Progress {
	quests := c.Quests(catalog.QuestFilter{})
	p := Progress{Total: len(quests), MaxQuestPoints: c.MaxQuestPoints()}
	for _, q := range quests {
		if isCompleted(q.ID) {
			p.Completed++
			p.QuestPoints += q.QuestPoints
		}
	}
	if p.Total > 0 {
		p.Percentage = int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	}
	return p
}
