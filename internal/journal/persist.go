package journal

import (
	"context"
	"log/slog"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/localstore"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
)

func (e *Engine) remoteActive(userID string) bool {
	return userID != "" && e.remote != nil
}

// callRemote runs fn with the remote timeout. Caller cancellation does not
// cut a write short.
func (e *Engine) callRemote(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.remoteTimeout)
	defer cancel()
	return fn(ctx)
}

// persistSave upserts goal remotely when signed in, otherwise (or when the
// remote write fails) saves the whole list locally.
func (e *Engine) persistSave(ctx context.Context, userID string, goal *model.Goal, snapshot []*model.Goal) {
	if e.remoteActive(userID) {
		err := e.callRemote(ctx, func(ctx context.Context) error {
			return e.remote.Save(ctx, userID, goal)
		})
		if err == nil {
			return
		}
		slog.Warn("remote goal save failed, falling back to local storage", "error", err, "goal_id", goal.ID, "user_id", userID)
	}
	e.saveLocal(ctx, snapshot)
}

// persistDelete mirrors persistSave for removals.
func (e *Engine) persistDelete(ctx context.Context, userID, goalID string, snapshot []*model.Goal) {
	if e.remoteActive(userID) {
		err := e.callRemote(ctx, func(ctx context.Context) error {
			return e.remote.Delete(ctx, userID, goalID)
		})
		if err == nil {
			return
		}
		slog.Warn("remote goal delete failed, falling back to local storage", "error", err, "goal_id", goalID, "user_id", userID)
	}
	e.saveLocal(ctx, snapshot)
}

func (e *Engine) saveLocal(ctx context.Context, snapshot []*model.Goal) {
	err := localstore.SaveGoals(context.WithoutCancel(ctx), e.local, snapshot)
	if err != nil {
		slog.Error("failed to save goals locally", "error", err, "count", len(snapshot))
	}
}
