package catalog

import (
	"slices"
	"sort"
	"strings"
)

const (
	SortByName       = "name"
	SortByDifficulty = "difficulty"
	SortByPoints     = "points"
)

// QuestFilter narrows Quests. Zero values match everything.
type QuestFilter struct {
	Search     string
	Difficulty string
	Members    *bool
	Miniquests *bool
	// Completed, when set together with IsCompleted, keeps only quests whose
	// completion state matches.
	Completed   *bool
	IsCompleted func(questID string) bool
	Sort        string
}

func (c *Catalog) Quests(f QuestFilter) []*Quest {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var out []*Quest
	for _, q := range c.quests {
		if search != "" &&
			!strings.Contains(strings.ToLower(q.Name), search) &&
			!strings.Contains(strings.ToLower(q.Description), search) {
			continue
		}
		if f.Difficulty != "" && !strings.EqualFold(q.Difficulty, f.Difficulty) {
			continue
		}
		if f.Members != nil && q.Members != *f.Members {
			continue
		}
		if f.Miniquests != nil && q.Miniquest != *f.Miniquests {
			continue
		}
		if f.Completed != nil && f.IsCompleted != nil && f.IsCompleted(q.ID) != *f.Completed {
			continue
		}
		out = append(out, q)
	}

	switch f.Sort {
	case SortByName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortByDifficulty:
		sort.SliceStable(out, func(i, j int) bool {
			return difficultyRank(out[i].Difficulty) < difficultyRank(out[j].Difficulty)
		})
	case SortByPoints:
		sort.SliceStable(out, func(i, j int) bool { return out[i].QuestPoints > out[j].QuestPoints })
	}

	return out
}

// MaxQuestPoints is the sum of quest points over every quest.
func (c *Catalog) MaxQuestPoints() int {
	total := 0
	for _, q := range c.quests {
		total += q.QuestPoints
	}
	return total
}

func difficultyRank(d string) int {
	i := slices.Index(QuestDifficulties, strings.ToLower(d))
	if i < 0 {
		return len(QuestDifficulties)
	}
	return i
}
