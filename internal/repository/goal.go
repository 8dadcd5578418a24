package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

const goalColumns = `id, user_id, type, title, description, category, original_id,
	difficulty, task_index, target_level, completed, completed_at, created_at`

type GoalRepository interface {
	Upsert(ctx context.Context, userID string, goal model.GoalRecord) error
	Goals(ctx context.Context, userID string) ([]model.GoalRecord, error)
	Count(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID, goalID string) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Upsert(ctx context.Context, userID string, goal model.GoalRecord) error {
	query := `INSERT INTO goals (` + goalColumns + `, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          ON CONFLICT (user_id, id) DO UPDATE SET
	              type = excluded.type,
	              title = excluded.title,
	              description = excluded.description,
	              category = excluded.category,
	              original_id = excluded.original_id,
	              difficulty = excluded.difficulty,
	              task_index = excluded.task_index,
	              target_level = excluded.target_level,
	              completed = excluded.completed,
	              completed_at = excluded.completed_at,
	              updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		userID,
		goal.Type,
		goal.Title,
		goal.Description,
		goal.Category,
		goal.OriginalID,
		goal.Difficulty,
		goal.TaskIndex,
		goal.TargetLevel,
		goal.Completed,
		goal.CompletedAt,
		goal.CreatedAt,
		time.Now(),
	)

	return err
}

func (r *goalRepository) Goals(ctx context.Context, userID string) ([]model.GoalRecord, error) {
	goals := []model.GoalRecord{}
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1 ORDER BY created_at ASC, id ASC`

	err := r.db.SelectContext(ctx, &goals, query, userID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) Count(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM goals WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	return count, err
}

func (r *goalRepository) Delete(ctx context.Context, userID, goalID string) error {
	query := `DELETE FROM goals WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, goalID, userID)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrGoalNotFound
	}

	return nil
}
