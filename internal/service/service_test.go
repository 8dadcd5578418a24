package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/db"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/repository"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/storage"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/validation"
	"github.com/jmoiron/sqlx"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := db.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

func TestAuthServiceRoundTrip(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)

	token, err := auth.GenerateJWT("user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	userID, err := auth.UserID(token)
	if err != nil || userID != "user-1" {
		t.Fatalf("user id = %q, %v", userID, err)
	}

	other := NewAuthService("other-secret", time.Hour)
	if _, err := other.UserID(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	expired := NewAuthService("secret", -time.Minute)
	old, err := expired.GenerateJWT("user-1")
	if err != nil {
		t.Fatalf("generate expired: %v", err)
	}
	if _, err := auth.UserID(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := auth.GenerateJWT(""); err == nil {
		t.Fatalf("empty user id accepted")
	}
}

func TestGoalService(t *testing.T) {
	ctx := context.Background()
	svc := NewGoalService(repository.NewGoalRepository(openTestDB(t)))

	g := model.NewGoal(model.QuestTarget{QuestID: "lost-city"}, "Lost City", "", time.Now())
	if err := svc.Save(ctx, "user-1", g.ID, g); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.Save(ctx, "user-1", "quest_other", g); !errors.Is(err, ErrGoalIDMismatch) {
		t.Fatalf("expected ErrGoalIDMismatch, got %v", err)
	}

	goals, err := svc.Goals(ctx, "user-1")
	if err != nil || len(goals) != 1 || goals[0].ID != "quest_lost-city" {
		t.Fatalf("goals = %v, %v", goals, err)
	}
	if goals, _ := svc.Goals(ctx, "user-2"); len(goals) != 0 {
		t.Fatalf("goals leaked across users: %v", goals)
	}

	if err := svc.Delete(ctx, "user-1", g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, "user-1", g.ID); !errors.Is(err, repository.ErrGoalNotFound) {
		t.Fatalf("expected ErrGoalNotFound, got %v", err)
	}
}

func newProgressService(t *testing.T, store *memoryStorage, secret string) (*ProgressService, repository.ProgressRepository) {
	t.Helper()
	repo := repository.NewProgressRepository(openTestDB(t))
	var objects storage.Storage
	if store != nil {
		objects = store
	}
	svc, err := NewProgressService(repo, objects, secret)
	if err != nil {
		t.Fatalf("new progress service: %v", err)
	}
	return svc, repo
}

func TestRecordQuestAndDiary(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProgressService(t, nil, "")

	rec, err := svc.RecordQuest(ctx, map[string]any{"playerName": "Zezima", "questName": "Cook's Assistant", "questPoints": 1.0})
	if err != nil || !rec.Stored {
		t.Fatalf("record quest = %+v, %v", rec, err)
	}
	if rec.Event.Key != "quest:Zezima:Cook's Assistant" || rec.Event.Payload["completed"] != true {
		t.Fatalf("quest event = %+v", rec.Event)
	}

	rec, err = svc.RecordDiary(ctx, map[string]any{"playerName": "Zezima", "diaryName": "Varrock", "taskName": "Mine iron"})
	if err != nil {
		t.Fatalf("record diary: %v", err)
	}
	if rec.Event.Key != "diary:Zezima:Varrock:Mine iron" || rec.Event.Payload["difficulty"] != "unknown" {
		t.Fatalf("diary event = %+v", rec.Event)
	}

	_, err = svc.RecordQuest(ctx, map[string]any{"playerName": "Zezima"})
	var fe *validation.FieldError
	if !errors.As(err, &fe) || !strings.Contains(fe.Message, "questName") {
		t.Fatalf("expected FieldError, got %v", err)
	}

	events, err := svc.Events(ctx, "Zezima", "quest", 0)
	if err != nil || len(events) != 1 {
		t.Fatalf("quest events = %v, %v", events, err)
	}
	events, err = svc.Events(ctx, "Zezima", "", 0)
	if err != nil || len(events) != 2 {
		t.Fatalf("all events = %v, %v", events, err)
	}
	if _, err := svc.Events(ctx, "", "", 0); !errors.As(err, &fe) {
		t.Fatalf("expected FieldError for missing player, got %v", err)
	}
}

func TestRecordRuneLite(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProgressService(t, nil, "")
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	rec, err := svc.RecordRuneLite(ctx, map[string]any{"playerName": "Zezima", "eventType": "level", "skill": "mining", "level": "60"})
	if err != nil || rec.Event.Key != "level:Zezima:mining" || rec.Event.Payload["level"] != 60 {
		t.Fatalf("level event = %+v, %v", rec, err)
	}

	if _, err := svc.RecordRuneLite(ctx, map[string]any{"playerName": "Zezima", "eventType": "level", "skill": "mining"}); err == nil {
		t.Fatalf("level event without level accepted")
	}

	rec, err = svc.RecordRuneLite(ctx, map[string]any{"playerName": "Zezima", "eventType": "death", "location": "Wilderness"})
	if err != nil || rec.Event.Key != "event:Zezima:death:1700000000000" || rec.Event.Payload["location"] != "Wilderness" {
		t.Fatalf("generic event = %+v, %v", rec, err)
	}

	rec, err = svc.RecordRuneLite(ctx, map[string]any{"playerName": "Zezima", "eventType": "quest", "questName": "Lost City"})
	if err != nil || rec.Event.Kind != model.ProgressKindQuest {
		t.Fatalf("quest via runelite = %+v, %v", rec, err)
	}
}

type failingProgressRepo struct{ repository.ProgressRepository }

func (failingProgressRepo) Put(ctx context.Context, event *model.ProgressEvent) error {
	return errors.New("sink unreachable")
}

func TestRecordSurvivesSinkFailure(t *testing.T) {
	svc, err := NewProgressService(failingProgressRepo{}, nil, "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec, err := svc.RecordQuest(context.Background(), map[string]any{"playerName": "Zezima", "questName": "Lost City"})
	if err != nil || rec.Stored {
		t.Fatalf("record = %+v, %v", rec, err)
	}
}

func TestVerifySignature(t *testing.T) {
	secret := "webhook-test-secret"
	svc, _ := newProgressService(t, nil, secret)

	payload := []byte(`{"playerName":"Zezima","questName":"Lost City"}`)
	signer, err := standardwebhooks.NewWebhookRaw([]byte(secret))
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	now := time.Now()
	signature, err := signer.Sign("msg_1", now, payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	headers := http.Header{}
	headers.Set("webhook-id", "msg_1")
	headers.Set("webhook-timestamp", strconv.FormatInt(now.Unix(), 10))
	headers.Set("webhook-signature", signature)

	if err := svc.Verify(payload, headers); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := svc.Verify([]byte(`{"tampered":true}`), headers); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	open, _ := newProgressService(t, nil, "")
	if err := open.Verify(payload, http.Header{}); err != nil {
		t.Fatalf("verification without secret: %v", err)
	}
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStorage) Save(ctx context.Context, path string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = data
	m.types[path] = contentType
	return nil
}

func (m *memoryStorage) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

func (m *memoryStorage) URL(ctx context.Context, path string) string {
	return "https://cdn.example/" + path
}

func TestScreenshotUpload(t *testing.T) {
	store := newMemoryStorage()
	svc, _ := newProgressService(t, store, "")

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	rec, err := svc.RecordQuest(context.Background(), map[string]any{
		"playerName": "Zezima", "questName": "Lost City", "screenshot": dataURL,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	link, _ := rec.Event.Payload["screenshot"].(string)
	if !strings.HasPrefix(link, "https://cdn.example/screenshots/Zezima/") || !strings.HasSuffix(link, ".png") {
		t.Fatalf("screenshot link = %q", link)
	}
	if len(store.objects) != 1 {
		t.Fatalf("stored objects = %d", len(store.objects))
	}

	rec, _ = svc.RecordQuest(context.Background(), map[string]any{
		"playerName": "Zezima", "questName": "Lost City", "screenshot": "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello")),
	})
	if rec.Event.Payload["screenshot"] != nil {
		t.Fatalf("non-image screenshot kept: %v", rec.Event.Payload["screenshot"])
	}

	rec, _ = svc.RecordQuest(context.Background(), map[string]any{
		"playerName": "Zezima", "questName": "Lost City", "screenshot": "https://imgur.example/a.png",
	})
	if rec.Event.Payload["screenshot"] != "https://imgur.example/a.png" {
		t.Fatalf("plain link not passed through: %v", rec.Event.Payload["screenshot"])
	}
}
