package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/repository"
)

// SQLStore keeps goals in the goals table. Changes made by other sessions
// are picked up by polling.
type SQLStore struct {
	repo         repository.GoalRepository
	pollInterval time.Duration
}

func NewSQLStore(repo repository.GoalRepository, pollInterval time.Duration) *SQLStore {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &SQLStore{repo: repo, pollInterval: pollInterval}
}

func (s *SQLStore) Save(ctx context.Context, userID string, goal *model.Goal) error {
	if err := checkIdentity("save", userID); err != nil {
		return err
	}
	return storageError("save", userID, s.repo.Upsert(ctx, userID, goal.Record()))
}

func (s *SQLStore) LoadAll(ctx context.Context, userID string) ([]*model.Goal, error) {
	if err := checkIdentity("load", userID); err != nil {
		return nil, err
	}

	records, err := s.repo.Goals(ctx, userID)
	if err != nil {
		return nil, storageError("load", userID, err)
	}

	goals := make([]*model.Goal, 0, len(records))
	for _, r := range records {
		g, err := r.Goal()
		if err != nil {
			slog.Warn("skipping undecodable remote goal", "error", err, "goal_id", r.ID, "user_id", userID)
			continue
		}
		goals = append(goals, g)
	}
	return goals, nil
}

func (s *SQLStore) Delete(ctx context.Context, userID, goalID string) error {
	if err := checkIdentity("delete", userID); err != nil {
		return err
	}
	err := s.repo.Delete(ctx, userID, goalID)
	if errors.Is(err, repository.ErrGoalNotFound) {
		return nil
	}
	return storageError("delete", userID, err)
}

// Subscribe polls the table and delivers the list whenever it differs from
// the previous delivery. The first delivery is immediate.
func (s *SQLStore) Subscribe(ctx context.Context, userID string) (<-chan []*model.Goal, error) {
	if err := checkIdentity("subscribe", userID); err != nil {
		return nil, err
	}

	ch := make(chan []*model.Goal, 1)
	go func() {
		defer close(ch)

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		var last []byte
		for {
			goals, err := s.LoadAll(ctx, userID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("remote goal poll failed", "error", err, "user_id", userID)
			} else if fp := fingerprint(goals); !bytes.Equal(fp, last) {
				last = fp
				select {
				case ch <- goals:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func fingerprint(goals []*model.Goal) []byte {
	data, err := json.Marshal(goals)
	if err != nil {
		return nil
	}
	return data
}
