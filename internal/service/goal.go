package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/repository"
)

var (
	ErrGoalIDMismatch = errors.New("goal id does not match its target")
	ErrGoalLimit      = errors.New("goal limit reached")
)

// MaxGoalsPerUser bounds the remote list of one identity.
const MaxGoalsPerUser = 1000

// GoalService exposes a user's remote goal list over the API.
type GoalService struct {
	repo repository.GoalRepository
}

func NewGoalService(repo repository.GoalRepository) *GoalService {
	return &GoalService{repo: repo}
}

// Goals returns the stored goals in creation order. Rows that no longer
// decode are skipped.
func (s *GoalService) Goals(ctx context.Context, userID string) ([]*model.Goal, error) {
	records, err := s.repo.Goals(ctx, userID)
	if err != nil {
		return nil, err
	}

	goals := make([]*model.Goal, 0, len(records))
	for _, r := range records {
		g, err := r.Goal()
		if err != nil {
			slog.Warn("skipping undecodable goal", "error", err, "goal_id", r.ID, "user_id", userID)
			continue
		}
		goals = append(goals, g)
	}
	return goals, nil
}

// Save upserts goal under goalID. The id must match the one derived from the
// goal's target.
func (s *GoalService) Save(ctx context.Context, userID, goalID string, goal *model.Goal) error {
	if goal.ID == "" {
		goal.ID = goalID
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now().UTC()
	}
	if goal.ID != goalID {
		return fmt.Errorf("%w: path %q, body %q", ErrGoalIDMismatch, goalID, goal.ID)
	}
	if err := goal.Validate(); err != nil {
		return err
	}

	count, err := s.repo.Count(ctx, userID)
	if err != nil {
		return err
	}
	if count >= MaxGoalsPerUser {
		return ErrGoalLimit
	}

	return s.repo.Upsert(ctx, userID, goal.Record())
}

// Delete removes a goal. Missing goals return repository.ErrGoalNotFound.
func (s *GoalService) Delete(ctx context.Context, userID, goalID string) error {
	return s.repo.Delete(ctx, userID, goalID)
}
