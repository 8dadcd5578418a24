package localstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
)

func TestBoltStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Set(ctx, "quest_cooks-assistant_completed", []byte("true")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, "quest_cooks-assistant_completed")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "true" {
		t.Fatalf("value = %q", got)
	}
	if err := store.Delete(ctx, "quest_cooks-assistant_completed"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "quest_cooks-assistant_completed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestBoltStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	store, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(context.Background(), "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("get after reopen = %q, %v", got, err)
	}
}

func TestGoalsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	completed := created.Add(time.Hour)

	quest := model.NewGoal(model.QuestTarget{QuestID: "cooks-assistant"}, "Cook's Assistant", "Bake a cake", created)
	diary := model.NewGoal(model.DiaryTarget{DiaryID: "varrock", Difficulty: "easy", TaskIndex: 3}, "Varrock Achievement Diary - Easy", "Make some normal planks", created)
	diary.MarkCompleted(completed)
	skill := model.NewGoal(model.SkillTarget{Skill: "mining", Level: 60}, "Mining Level 60", "Train Mining to level 60", created)

	in := []*model.Goal{quest, diary, skill}
	if err := SaveGoals(ctx, store, in); err != nil {
		t.Fatalf("save goals: %v", err)
	}
	out, err := LoadGoals(ctx, store)
	if err != nil {
		t.Fatalf("load goals: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("loaded %d goals, want %d", len(out), len(in))
	}
	for i := range in {
		want, got := in[i], out[i]
		if got.ID != want.ID || got.Target != want.Target || got.Title != want.Title ||
			got.Description != want.Description || got.Completed != want.Completed ||
			!got.CreatedAt.Equal(want.CreatedAt) {
			t.Fatalf("goal %d mismatch: got %+v want %+v", i, got, want)
		}
		if (got.CompletedAt == nil) != (want.CompletedAt == nil) {
			t.Fatalf("goal %d completedAt mismatch", i)
		}
		if got.CompletedAt != nil && !got.CompletedAt.Equal(*want.CompletedAt) {
			t.Fatalf("goal %d completedAt = %v", i, got.CompletedAt)
		}
	}
}

func TestLoadGoalsMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	goals, err := LoadGoals(ctx, store)
	if err != nil || len(goals) != 0 {
		t.Fatalf("missing key: goals=%v err=%v", goals, err)
	}

	if err := store.Set(ctx, GoalsKey, []byte("{not json")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := LoadGoals(ctx, store); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}

	if err := store.Set(ctx, GoalsKey, []byte(`[{"id":"x","type":"spell"}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := LoadGoals(ctx, store); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for unknown type, got %v", err)
	}
}
