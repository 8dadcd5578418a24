package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/jmoiron/sqlx"
)

// ProgressRepository is the key/value sink for webhook progress events.
type ProgressRepository interface {
	Put(ctx context.Context, event *model.ProgressEvent) error
	ByPrefix(ctx context.Context, prefix string, limit int) ([]*model.ProgressEvent, error)
	ByPlayer(ctx context.Context, playerName string, limit int) ([]*model.ProgressEvent, error)
}

type progressRepository struct {
	db *sqlx.DB
}

func NewProgressRepository(db *sqlx.DB) ProgressRepository {
	return &progressRepository{db: db}
}

type progressRow struct {
	Key        string    `db:"key"`
	Kind       string    `db:"kind"`
	PlayerName string    `db:"player_name"`
	Source     string    `db:"source"`
	Payload    string    `db:"payload"`
	CreatedAt  time.Time `db:"created_at"`
}

func (row progressRow) event() (*model.ProgressEvent, error) {
	payload := map[string]any{}
	if row.Payload != "" {
		if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
			return nil, fmt.Errorf("decode payload for %s: %w", row.Key, err)
		}
	}
	return &model.ProgressEvent{
		Key:        row.Key,
		Kind:       row.Kind,
		PlayerName: row.PlayerName,
		Source:     row.Source,
		Payload:    payload,
		Timestamp:  row.CreatedAt,
	}, nil
}

func (r *progressRepository) Put(ctx context.Context, event *model.ProgressEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	query := `INSERT INTO progress_events (key, kind, player_name, source, payload, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (key) DO UPDATE SET
	              kind = excluded.kind,
	              player_name = excluded.player_name,
	              source = excluded.source,
	              payload = excluded.payload,
	              created_at = excluded.created_at`

	_, err = r.db.ExecContext(ctx, query,
		event.Key,
		event.Kind,
		event.PlayerName,
		event.Source,
		string(payload),
		event.Timestamp,
	)
	return err
}

func (r *progressRepository) ByPrefix(ctx context.Context, prefix string, limit int) ([]*model.ProgressEvent, error) {
	query := `SELECT key, kind, player_name, source, payload, created_at FROM progress_events
	          WHERE key LIKE $1 ESCAPE '\' ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, escapeLike(prefix)+"%", limitOrDefault(limit))
}

func (r *progressRepository) ByPlayer(ctx context.Context, playerName string, limit int) ([]*model.ProgressEvent, error) {
	query := `SELECT key, kind, player_name, source, payload, created_at FROM progress_events
	          WHERE player_name = $1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, playerName, limitOrDefault(limit))
}

func (r *progressRepository) list(ctx context.Context, query string, args ...any) ([]*model.ProgressEvent, error) {
	var rows []progressRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	events := make([]*model.ProgressEvent, 0, len(rows))
	for _, row := range rows {
		event, err := row.event()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
