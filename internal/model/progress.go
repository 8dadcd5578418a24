package model

import "time"

const (
	ProgressKindQuest = "quest"
	ProgressKindDiary = "diary"
	ProgressKindLevel = "level"
	ProgressKindEvent = "event"
)

// ProgressEvent is a third-party progress report accepted by the webhook
// sink. Key is <kind>:<playerName>:<eventIdentifier>.
type ProgressEvent struct {
	Key        string         `json:"key" db:"key"`
	Kind       string         `json:"kind" db:"kind"`
	PlayerName string         `json:"playerName" db:"player_name"`
	Source     string         `json:"source" db:"source"`
	Payload    map[string]any `json:"data" db:"-"`
	Timestamp  time.Time      `json:"timestamp" db:"created_at"`
}
