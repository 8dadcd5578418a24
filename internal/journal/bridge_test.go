package journal

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/catalog"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/flags"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
)

type recordingView struct {
	mu    sync.Mutex
	calls [][]*model.Goal
}

func (v *recordingView) Refresh(ctx context.Context, goals []*model.Goal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, goals)
}

func (v *recordingView) last() []*model.Goal {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.calls) == 0 {
		return nil
	}
	return v.calls[len(v.calls)-1]
}

func TestBridgeToggleQuestCompletesWithoutRewritingFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := &recordingView{}
	bridge := NewBridge(f.engine, f.flags, f.catalog, view)
	defer bridge.Close()

	if _, err := f.engine.AddGoal(ctx, f.questGoal(t, "cooks-assistant")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := view.last(); len(got) != 1 {
		t.Fatalf("view not refreshed on add: %v", got)
	}

	done, err := bridge.ToggleQuest(ctx, "cooks-assistant")
	if err != nil || !done {
		t.Fatalf("toggle = %v, %v", done, err)
	}
	if f.engine.Has("quest_cooks-assistant") {
		t.Fatalf("goal should be completed and dropped")
	}
	if n := f.kv.setCount(flags.QuestKey("cooks-assistant")); n != 1 {
		t.Fatalf("flag written %d times, want 1", n)
	}
	if got := view.last(); len(got) != 0 {
		t.Fatalf("view not refreshed on completion: %v", got)
	}
}

func TestBridgeUncheckLeavesGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bridge := NewBridge(f.engine, f.flags, f.catalog)
	defer bridge.Close()

	g, err := f.builder.DiaryGoal(ctx, "varrock", "easy", 0)
	if err != nil {
		t.Fatalf("diary goal: %v", err)
	}
	if _, err := f.engine.AddGoal(ctx, g); err != nil {
		t.Fatalf("add: %v", err)
	}

	if bridge.DiaryTaskCompletionChanged(ctx, "varrock", "easy", 0, false) {
		t.Fatalf("unchecking should not touch the journal")
	}
	if !f.engine.Has(g.ID) {
		t.Fatalf("goal dropped on uncheck")
	}
	if bridge.DiaryTaskCompletionChanged(ctx, "varrock", "easy", 1, true) {
		t.Fatalf("untracked task should not match")
	}

	done, err := bridge.ToggleDiaryTask(ctx, "varrock", "easy", 0)
	if err != nil || !done {
		t.Fatalf("toggle = %v, %v", done, err)
	}
	if f.engine.Has(g.ID) {
		t.Fatalf("goal should be dropped after the task is checked")
	}
}

func TestBridgeCloseStopsRefreshing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := &recordingView{}
	bridge := NewBridge(f.engine, f.flags, f.catalog, view)
	bridge.Close()

	if _, err := f.engine.AddGoal(ctx, f.questGoal(t, "lost-city")); err != nil {
		t.Fatalf("add: %v", err)
	}
	view.mu.Lock()
	defer view.mu.Unlock()
	if len(view.calls) != 0 {
		t.Fatalf("closed bridge still refreshed views")
	}
}

func TestBridgeDiaryDifficultyIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bridge := NewBridge(f.engine, f.flags, f.catalog)
	defer bridge.Close()

	g, err := f.builder.DiaryGoal(ctx, "varrock", "Easy", 0)
	if err != nil {
		t.Fatalf("diary goal: %v", err)
	}
	if _, err := f.engine.AddGoal(ctx, g); err != nil {
		t.Fatalf("add: %v", err)
	}

	done, err := bridge.ToggleDiaryTask(ctx, "varrock", "EASY", 0)
	if err != nil || !done {
		t.Fatalf("toggle = %v, %v", done, err)
	}
	if f.engine.Has(g.ID) {
		t.Fatalf("goal %s not matched by an upper-case difficulty", g.ID)
	}
	if n := f.kv.setCount(flags.DiaryKey("varrock", "easy", 0)); n != 1 {
		t.Fatalf("lower-case flag written %d times, want 1", n)
	}
	if n := f.kv.setCount(flags.DiaryKey("varrock", "EASY", 0)); n != 0 {
		t.Fatalf("upper-case flag key written")
	}
}

func TestBridgeToggleRejectsUnknownItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bridge := NewBridge(f.engine, f.flags, f.catalog)
	defer bridge.Close()

	if _, err := bridge.ToggleDiaryTask(ctx, "varrock", "easy", 999); !errors.Is(err, catalog.ErrDiaryTaskNotFound) {
		t.Fatalf("expected ErrDiaryTaskNotFound, got %v", err)
	}
	if _, err := bridge.ToggleDiaryTask(ctx, "atlantis", "easy", 0); !errors.Is(err, catalog.ErrDiaryNotFound) {
		t.Fatalf("expected ErrDiaryNotFound, got %v", err)
	}
	if _, err := bridge.ToggleQuest(ctx, "not-a-quest"); !errors.Is(err, catalog.ErrQuestNotFound) {
		t.Fatalf("expected ErrQuestNotFound, got %v", err)
	}
	if n := f.kv.setCount(flags.DiaryKey("varrock", "easy", 999)); n != 0 {
		t.Fatalf("flag written for a task that does not exist")
	}
}
