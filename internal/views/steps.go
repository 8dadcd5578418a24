package views

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/catalog"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/flags"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
)

// TaskStep is one tracked diary task with its catalog guide.
type TaskStep struct {
	GoalID      string `json:"goalId"`
	Diary       string `json:"diary"`
	Difficulty  string `json:"difficulty"`
	TaskIndex   int    `json:"taskIndex"`
	Description string `json:"description"`
	Guide       string `json:"guide,omitempty"`
	Completed   bool   `json:"completed"`
}

type TaskStepsView struct {
	catalog *catalog.Catalog
	flags   *flags.Store

	mu    sync.RWMutex
	steps []TaskStep
}

func NewTaskStepsView(c *catalog.Catalog, flagStore *flags.Store) *TaskStepsView {
	return &TaskStepsView{catalog: c, flags: flagStore}
}

func (v *TaskStepsView) Refresh(ctx context.Context, goals []*model.Goal) {
	var steps []TaskStep
	for _, g := range goals {
		t, ok := g.Target.(model.DiaryTarget)
		if !ok {
			continue
		}
		d, task, err := v.catalog.DiaryTask(t.DiaryID, t.Difficulty, t.TaskIndex)
		if err != nil {
			slog.Debug("diary goal without catalog task", "goal_id", g.ID, "error", err)
			continue
		}
		done, err := v.flags.Completed(ctx, t)
		if err != nil {
			slog.Warn("failed to read completion flag", "error", err, "goal_id", g.ID)
		}
		steps = append(steps, TaskStep{
			GoalID:      g.ID,
			Diary:       d.Name,
			Difficulty:  t.Difficulty,
			TaskIndex:   t.TaskIndex,
			Description: task.Description,
			Guide:       task.Guide,
			Completed:   done || g.Completed,
		})
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.steps = steps
}

func (v *TaskStepsView) Steps() []TaskStep {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.steps
}
