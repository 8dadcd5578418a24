package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/catalog"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/flags"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
)

// Builder creates goals from catalog items. A goal for an item whose flag
// is already set starts out completed.
type Builder struct {
	catalog *catalog.Catalog
	flags   *flags.Store
	now     func() time.Time
}

func NewBuilder(c *catalog.Catalog, flagStore *flags.Store) *Builder {
	return &Builder{catalog: c, flags: flagStore, now: time.Now}
}

func (b *Builder) QuestGoal(ctx context.Context, questID string) (*model.Goal, error) {
	q, err := b.catalog.Quest(questID)
	if err != nil {
		return nil, err
	}
	g := model.NewGoal(model.QuestTarget{QuestID: q.ID}, q.Name, q.Description, b.now())
	b.applyFlag(ctx, g)
	return g, nil
}

func (b *Builder) DiaryGoal(ctx context.Context, diaryID, difficulty string, taskIndex int) (*model.Goal, error) {
	difficulty = strings.ToLower(difficulty)
	d, task, err := b.catalog.DiaryTask(diaryID, difficulty, taskIndex)
	if err != nil {
		return nil, err
	}
	target := model.DiaryTarget{DiaryID: d.ID, Difficulty: difficulty, TaskIndex: taskIndex}
	title := d.Name + " - " + titleCase(difficulty)
	g := model.NewGoal(target, title, task.Description, b.now())
	b.applyFlag(ctx, g)
	return g, nil
}

func (b *Builder) SkillGoal(skill string, level int) (*model.Goal, error) {
	skill = strings.ToLower(strings.TrimSpace(skill))
	if !catalog.IsSkill(skill) {
		return nil, fmt.Errorf("%w: unknown skill %q", model.ErrInvalidGoal, skill)
	}
	name := titleCase(skill)
	g := model.NewGoal(
		model.SkillTarget{Skill: skill, Level: level},
		fmt.Sprintf("%s Level %d", name, level),
		fmt.Sprintf("Train %s to level %d", name, level),
		b.now(),
	)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (b *Builder) applyFlag(ctx context.Context, g *model.Goal) {
	done, err := b.flags.Completed(ctx, g.Target)
	if err != nil {
		slog.Warn("failed to read completion flag", "error", err, "goal_id", g.ID)
		return
	}
	if done {
		g.MarkCompleted(b.now())
	}
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
