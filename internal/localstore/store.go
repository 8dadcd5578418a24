package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
)

// Keys used by the journal in the local store.
const (
	GoalsKey      = "osrs-todo-goals"
	NotesKey      = "osrs-personal-notes"
	PlayerNameKey = "osrs_player_name"
	PlayerStatKey = "osrs_player_stats"
)

var (
	ErrNotFound = errors.New("key not found")
	ErrCorrupt  = errors.New("corrupt local data")
)

// Store is a durable key/value store for one machine.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// SaveGoals writes the full goal list under GoalsKey.
func SaveGoals(ctx context.Context, s Store, goals []*model.Goal) error {
	if goals == nil {
		goals = []*model.Goal{}
	}
	payload, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("marshal goals: %w", err)
	}
	return s.Set(ctx, GoalsKey, payload)
}

// LoadGoals reads the goal list. A missing key is an empty list; undecodable
// data is reported as ErrCorrupt.
func LoadGoals(ctx context.Context, s Store) ([]*model.Goal, error) {
	payload, err := s.Get(ctx, GoalsKey)
	if errors.Is(err, ErrNotFound) {
		return []*model.Goal{}, nil
	}
	if err != nil {
		return nil, err
	}

	var goals []*model.Goal
	if err := json.Unmarshal(payload, &goals); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	out := goals[:0]
	for _, g := range goals {
		if g != nil {
			out = append(out, g)
		}
	}
	return out, nil
}

// MemoryStore keeps values in a map. Used by tests and as the store when no
// file path is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}
