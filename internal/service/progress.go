package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/repository"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/storage"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/validation"
)

const progressSource = "runelite-webhook"

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Recorded is the outcome of a webhook event. Stored is false when the sink
// was unavailable; the event was still accepted.
type Recorded struct {
	Event  *model.ProgressEvent
	Stored bool
}

// ProgressService accepts progress events from game client plugins and
// writes them to a best-effort key/value sink.
type ProgressService struct {
	repo     repository.ProgressRepository
	storage  storage.Storage
	verifier *standardwebhooks.Webhook
	now      func() time.Time
}

// NewProgressService builds the sink. repo and store may be nil; an empty
// secret disables signature checks.
func NewProgressService(repo repository.ProgressRepository, store storage.Storage, webhookSecret string) (*ProgressService, error) {
	s := &ProgressService{repo: repo, storage: store, now: time.Now}
	if webhookSecret != "" {
		wh, err := standardwebhooks.NewWebhookRaw([]byte(webhookSecret))
		if err != nil {
			return nil, fmt.Errorf("failed to create webhook verifier: %w", err)
		}
		s.verifier = wh
	}
	return s, nil
}

// Verify checks the standard-webhooks signature headers when a secret is
// configured.
func (s *ProgressService) Verify(payload []byte, headers http.Header) error {
	if s.verifier == nil {
		return nil
	}
	if err := s.verifier.Verify(payload, headers); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

// RecordQuest stores a quest completion under quest:<player>:<quest>.
func (s *ProgressService) RecordQuest(ctx context.Context, data map[string]any) (*Recorded, error) {
	if err := require(data, "playerName", "questName"); err != nil {
		return nil, err
	}
	player, quest := str(data, "playerName"), str(data, "questName")

	payload := map[string]any{
		"playerName":  player,
		"questName":   quest,
		"completed":   boolOr(data, "completed", true),
		"timestamp":   s.timestamp(data),
		"source":      progressSource,
		"questPoints": valueOrNil(data, "questPoints"),
		"experience":  valueOrNil(data, "experience"),
		"screenshot":  s.screenshot(ctx, player, data),
	}
	return s.record(ctx, model.ProgressKindQuest, player, "quest:"+player+":"+quest, payload)
}

// RecordDiary stores a diary task under diary:<player>:<diary>:<task>.
func (s *ProgressService) RecordDiary(ctx context.Context, data map[string]any) (*Recorded, error) {
	if err := require(data, "playerName", "diaryName", "taskName"); err != nil {
		return nil, err
	}
	player, diary, task := str(data, "playerName"), str(data, "diaryName"), str(data, "taskName")

	difficulty := str(data, "difficulty")
	if difficulty == "" {
		difficulty = "unknown"
	}

	payload := map[string]any{
		"playerName": player,
		"diaryName":  diary,
		"taskName":   task,
		"difficulty": difficulty,
		"completed":  boolOr(data, "completed", true),
		"timestamp":  s.timestamp(data),
		"source":     progressSource,
		"experience": valueOrNil(data, "experience"),
		"screenshot": s.screenshot(ctx, player, data),
	}
	return s.record(ctx, model.ProgressKindDiary, player, "diary:"+player+":"+diary+":"+task, payload)
}

// RecordRuneLite handles the generic plugin endpoint. Quest, diary and
// level events are keyed like their dedicated endpoints; anything else is
// stored under event:<player>:<type>:<unix ms>.
func (s *ProgressService) RecordRuneLite(ctx context.Context, data map[string]any) (*Recorded, error) {
	if err := require(data, "playerName", "eventType"); err != nil {
		return nil, err
	}
	player, eventType := str(data, "playerName"), str(data, "eventType")

	switch eventType {
	case model.ProgressKindQuest:
		return s.RecordQuest(ctx, data)
	case model.ProgressKindDiary:
		return s.RecordDiary(ctx, data)
	case model.ProgressKindLevel:
		if err := require(data, "skill", "level"); err != nil {
			return nil, err
		}
		level, err := strconv.Atoi(str(data, "level"))
		if err != nil {
			return nil, &validation.FieldError{Field: "level", Message: "level must be a whole number"}
		}
		skill := str(data, "skill")
		payload := map[string]any{
			"playerName": player,
			"skill":      skill,
			"level":      level,
			"experience": valueOrNil(data, "experience"),
			"timestamp":  s.timestamp(data),
		}
		return s.record(ctx, model.ProgressKindLevel, player, "level:"+player+":"+skill, payload)
	}

	payload := make(map[string]any, len(data)+2)
	for k, v := range data {
		payload[k] = v
	}
	payload["timestamp"] = s.timestamp(data)
	payload["source"] = progressSource
	if _, ok := data["screenshot"]; ok {
		payload["screenshot"] = s.screenshot(ctx, player, data)
	}
	key := fmt.Sprintf("event:%s:%s:%d", player, eventType, s.now().UnixMilli())
	return s.record(ctx, model.ProgressKindEvent, player, key, payload)
}

// Events lists stored events for a player, optionally of a single kind.
func (s *ProgressService) Events(ctx context.Context, player, kind string, limit int) ([]*model.ProgressEvent, error) {
	if strings.TrimSpace(player) == "" {
		return nil, &validation.FieldError{Field: "player", Message: "Missing player parameter"}
	}
	if s.repo == nil {
		return []*model.ProgressEvent{}, nil
	}
	if kind != "" {
		return s.repo.ByPrefix(ctx, kind+":"+player+":", limit)
	}
	return s.repo.ByPlayer(ctx, player, limit)
}

func (s *ProgressService) record(ctx context.Context, kind, player, key string, payload map[string]any) (*Recorded, error) {
	event := &model.ProgressEvent{
		Key:        key,
		Kind:       kind,
		PlayerName: player,
		Source:     progressSource,
		Payload:    payload,
		Timestamp:  s.now().UTC(),
	}
	if ts, ok := payload["timestamp"].(string); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			event.Timestamp = t.UTC()
		}
	}

	if s.repo == nil {
		slog.Debug("progress sink not configured, event not stored", "key", key)
		return &Recorded{Event: event}, nil
	}
	if err := s.repo.Put(ctx, event); err != nil {
		slog.Error("failed to store progress event", "error", err, "key", key)
		return &Recorded{Event: event}, nil
	}

	slog.Info("progress event stored", "key", key, "kind", kind)
	return &Recorded{Event: event, Stored: true}, nil
}

func (s *ProgressService) timestamp(data map[string]any) string {
	if ts := str(data, "timestamp"); ts != "" {
		return ts
	}
	return s.now().UTC().Format(time.RFC3339)
}

// screenshot uploads an inline data URL to storage and returns its link.
// Plain URLs pass through; failures drop the screenshot.
func (s *ProgressService) screenshot(ctx context.Context, player string, data map[string]any) any {
	raw := str(data, "screenshot")
	if raw == "" {
		return nil
	}
	if !strings.HasPrefix(raw, "data:") {
		return raw
	}
	if s.storage == nil {
		slog.Debug("screenshot storage not configured, dropping inline screenshot", "player", player)
		return nil
	}

	_, encoded, ok := strings.Cut(raw, ",")
	if !ok {
		slog.Warn("malformed screenshot data url", "player", player)
		return nil
	}
	img, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		slog.Warn("failed to decode screenshot", "error", err, "player", player)
		return nil
	}
	contentType, err := validation.ValidateImage(img, validation.ScreenshotConstraints)
	if err != nil {
		slog.Warn("rejected screenshot", "error", err, "player", player)
		return nil
	}

	path := fmt.Sprintf("screenshots/%s/%s%s", player, uuid.New().String(), extension(contentType))
	if err := s.storage.Save(ctx, path, bytes.NewReader(img), contentType); err != nil {
		slog.Error("failed to upload screenshot", "error", err, "path", path)
		return nil
	}
	return s.storage.URL(ctx, path)
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func require(data map[string]any, fields ...string) error {
	var missing []string
	for _, f := range fields {
		if str(data, f) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &validation.FieldError{
		Field:   strings.Join(missing, ", "),
		Message: "Missing required fields: " + strings.Join(fields, ", "),
	}
}

// str reads a JSON or form value as a trimmed string.
func str(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func boolOr(data map[string]any, key string, def bool) bool {
	switch v := data[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func valueOrNil(data map[string]any, key string) any {
	v, ok := data[key]
	if !ok || v == "" {
		return nil
	}
	return v
}
