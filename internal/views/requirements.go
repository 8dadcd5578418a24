package views

import (
	"context"
	"slices"
	"sync"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/catalog"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/osrs"
)

type RequirementStatus string

const (
	StatusAchievable    RequirementStatus = "achievable"
	StatusNeedsTraining RequirementStatus = "needs-training"
	StatusUnknown       RequirementStatus = "unknown"
)

// SkillRequirement is the highest level any active goal needs in one skill.
type SkillRequirement struct {
	Skill       string            `json:"skill"`
	Level       int               `json:"level"`
	Current     int               `json:"current,omitempty"`
	XPRemaining int64             `json:"xpRemaining,omitempty"`
	Status      RequirementStatus `json:"status"`
	Sources     []string          `json:"sources"`
}

// StatsSource provides the player whose levels requirements are compared
// against. osrs.StatsCache satisfies it.
type StatsSource interface {
	Cached(ctx context.Context) (*model.PlayerStats, bool)
}

// Requirements aggregates skill requirements of the goals that are not yet
// completed. Quest and diary goals contribute their catalog requirement
// strings, skill goals their target level. stats may be nil.
func Requirements(c *catalog.Catalog, goals []*model.Goal, stats *model.PlayerStats) []SkillRequirement {
	bySkill := make(map[string]*SkillRequirement)
	need := func(skill string, level int, source string) {
		r, ok := bySkill[skill]
		if !ok {
			r = &SkillRequirement{Skill: skill}
			bySkill[skill] = r
		}
		if level > r.Level {
			r.Level = level
		}
		r.Sources = append(r.Sources, source)
	}

	for _, g := range goals {
		if g.Completed {
			continue
		}
		switch t := g.Target.(type) {
		case model.QuestTarget:
			q, err := c.Quest(t.QuestID)
			if err != nil {
				continue
			}
			for _, req := range q.Requirements {
				if skill, level, ok := catalog.ParseSkillRequirement(req); ok {
					need(skill, level, g.Title)
				}
			}
		case model.DiaryTarget:
			d, err := c.Diary(t.DiaryID)
			if err != nil {
				continue
			}
			tier, ok := d.Tier(t.Difficulty)
			if !ok {
				continue
			}
			for _, req := range tier.Requirements {
				if skill, level, ok := catalog.ParseSkillRequirement(req); ok {
					need(skill, level, g.Title)
				}
			}
		case model.SkillTarget:
			need(t.Skill, t.Level, g.Title)
		}
	}

	out := make([]SkillRequirement, 0, len(bySkill))
	for _, skill := range catalog.Skills {
		r, ok := bySkill[skill]
		if !ok {
			continue
		}
		r.Status = StatusUnknown
		if current, ok := stats.Level(skill); ok {
			r.Current = current
			if current >= r.Level {
				r.Status = StatusAchievable
			} else {
				r.Status = StatusNeedsTraining
				xp, _ := stats.XP(skill)
				r.XPRemaining = osrs.XPRemaining(xp, r.Level)
			}
		}
		r.Sources = slices.Compact(r.Sources)
		out = append(out, *r)
	}
	return out
}

// RequirementsView keeps the aggregated requirements for the current list.
type RequirementsView struct {
	catalog *catalog.Catalog
	stats   StatsSource

	mu   sync.RWMutex
	reqs []SkillRequirement
}

func NewRequirementsView(c *catalog.Catalog, stats StatsSource) *RequirementsView {
	return &RequirementsView{catalog: c, stats: stats}
}

func (v *RequirementsView) Refresh(ctx context.Context, goals []*model.Goal) {
	var player *model.PlayerStats
	if v.stats != nil {
		player, _ = v.stats.Cached(ctx)
	}
	reqs := Requirements(v.catalog, goals, player)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.reqs = reqs
}

func (v *RequirementsView) Requirements() []SkillRequirement {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.reqs
}
