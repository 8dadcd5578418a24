package journal

import (
	"context"
	"strings"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/catalog"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/flags"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
)

// View is presentation state derived from the canonical list.
type View interface {
	Refresh(ctx context.Context, goals []*model.Goal)
}

// Bridge connects catalog completion actions with the engine and fans
// engine changes out to the registered views.
type Bridge struct {
	engine  *Engine
	flags   *flags.Store
	catalog *catalog.Catalog
	views   []View
	detach  func()
}

func NewBridge(engine *Engine, flagStore *flags.Store, cat *catalog.Catalog, views ...View) *Bridge {
	b := &Bridge{engine: engine, flags: flagStore, catalog: cat, views: views}
	b.detach = engine.AddListener(b)
	return b
}

// GoalsChanged refreshes every view. Views are independent of each other.
func (b *Bridge) GoalsChanged(ctx context.Context, goals []*model.Goal) {
	for _, v := range b.views {
		v.Refresh(ctx, goals)
	}
}

// Refresh pushes the current list to the views without a change.
func (b *Bridge) Refresh(ctx context.Context) {
	b.GoalsChanged(ctx, b.engine.Goals())
}

// QuestCompletionChanged handles a quest marked in its own view. The flag is
// already written, so a matching goal is completed without touching it.
func (b *Bridge) QuestCompletionChanged(ctx context.Context, questID string, completed bool) bool {
	return b.targetChanged(ctx, model.QuestTarget{QuestID: questID}, completed)
}

// DiaryTaskCompletionChanged is QuestCompletionChanged for diary tasks.
// Difficulty is matched case-insensitively.
func (b *Bridge) DiaryTaskCompletionChanged(ctx context.Context, diaryID, difficulty string, taskIndex int, completed bool) bool {
	return b.targetChanged(ctx, diaryTarget(diaryID, difficulty, taskIndex), completed)
}

func diaryTarget(diaryID, difficulty string, taskIndex int) model.DiaryTarget {
	return model.DiaryTarget{DiaryID: diaryID, Difficulty: strings.ToLower(difficulty), TaskIndex: taskIndex}
}

func (b *Bridge) targetChanged(ctx context.Context, t model.Target, completed bool) bool {
	if !completed {
		return false
	}
	id, ok := b.engine.findByTarget(t)
	if !ok {
		return false
	}
	return b.engine.drop(ctx, id, dropCompleteNoFlag)
}

// ToggleQuest flips the quest flag directly and syncs the journal.
func (b *Bridge) ToggleQuest(ctx context.Context, questID string) (bool, error) {
	if _, err := b.catalog.Quest(questID); err != nil {
		return false, err
	}
	done, err := b.flags.Toggle(ctx, model.QuestTarget{QuestID: questID})
	if err != nil {
		return false, err
	}
	b.QuestCompletionChanged(ctx, questID, done)
	return done, nil
}

// ToggleDiaryTask flips the flag of a catalog diary task and syncs the
// journal. Unknown tasks return catalog.ErrDiaryTaskNotFound.
func (b *Bridge) ToggleDiaryTask(ctx context.Context, diaryID, difficulty string, taskIndex int) (bool, error) {
	target := diaryTarget(diaryID, difficulty, taskIndex)
	if _, _, err := b.catalog.DiaryTask(target.DiaryID, target.Difficulty, target.TaskIndex); err != nil {
		return false, err
	}
	done, err := b.flags.Toggle(ctx, target)
	if err != nil {
		return false, err
	}
	b.targetChanged(ctx, target, done)
	return done, nil
}

func (b *Bridge) Close() {
	b.detach()
}
