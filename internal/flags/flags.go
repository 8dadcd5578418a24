// Package flags records whether a quest or diary task has ever been
// completed, independent of whether the journal currently tracks it.
package flags

import (
	"context"
	"errors"
	"strconv"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/localstore"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
)

const completedValue = "true"

func QuestKey(questID string) string {
	return "quest_" + questID + "_completed"
}

func DiaryKey(diaryID, difficulty string, taskIndex int) string {
	return "diary_" + diaryID + "_" + difficulty + "_" + strconv.Itoa(taskIndex)
}

// Key returns the flag key for a target. Skill targets have no flag.
func Key(t model.Target) (string, bool) {
	switch t := t.(type) {
	case model.QuestTarget:
		return QuestKey(t.QuestID), true
	case model.DiaryTarget:
		return DiaryKey(t.DiaryID, t.Difficulty, t.TaskIndex), true
	default:
		return "", false
	}
}

type Store struct {
	kv localstore.Store
}

func New(kv localstore.Store) *Store {
	return &Store{kv: kv}
}

func (s *Store) Completed(ctx context.Context, t model.Target) (bool, error) {
	key, ok := Key(t)
	if !ok {
		return false, nil
	}
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, localstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(v) == completedValue, nil
}

// Mark sets the flag. It is a no-op for targets without a flag.
func (s *Store) Mark(ctx context.Context, t model.Target) error {
	key, ok := Key(t)
	if !ok {
		return nil
	}
	return s.kv.Set(ctx, key, []byte(completedValue))
}

func (s *Store) Clear(ctx context.Context, t model.Target) error {
	key, ok := Key(t)
	if !ok {
		return nil
	}
	return s.kv.Delete(ctx, key)
}

// Toggle flips the flag and returns the new state.
func (s *Store) Toggle(ctx context.Context, t model.Target) (bool, error) {
	done, err := s.Completed(ctx, t)
	if err != nil {
		return false, err
	}
	if done {
		return false, s.Clear(ctx, t)
	}
	return true, s.Mark(ctx, t)
}

// QuestCompleted adapts the store to catalog filters and progress views.
func (s *Store) QuestCompleted(ctx context.Context) func(questID string) bool {
	return func(questID string) bool {
		done, err := s.Completed(ctx, model.QuestTarget{QuestID: questID})
		return err == nil && done
	}
}
