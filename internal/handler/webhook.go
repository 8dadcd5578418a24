package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/service"
)

var errUnsupportedContentType = errors.New("unsupported content type")

// WebhookHandler receives progress events from game client plugins.
type WebhookHandler struct {
	progressService *service.ProgressService
}

func NewWebhookHandler(progressService *service.ProgressService) *WebhookHandler {
	return &WebhookHandler{progressService: progressService}
}

func (h *WebhookHandler) Quest(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "Quest progress received", h.progressService.RecordQuest)
}

func (h *WebhookHandler) Diary(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "Diary progress received", h.progressService.RecordDiary)
}

func (h *WebhookHandler) RuneLite(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "", h.progressService.RecordRuneLite)
}

// Events lists stored events. Query: player (required), type.
func (h *WebhookHandler) Events(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	events, err := h.progressService.Events(r.Context(), q.Get("player"), q.Get("type"), limit)
	if err != nil {
		writeServiceError(w, r, "list progress events", err)
		return
	}

	data := make([]map[string]any, 0, len(events))
	for _, e := range events {
		data = append(data, e.Payload)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

type recordFunc func(ctx context.Context, data map[string]any) (*service.Recorded, error)

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request, message string, record recordFunc) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		slog.Error("failed to read webhook payload", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to read payload")
		return
	}
	defer func() {
		closeErr := r.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close request body", "error", closeErr)
		}
	}()

	if err := h.progressService.Verify(payload, r.Header); err != nil {
		slog.Warn("rejected webhook signature", "error", err, "path", r.URL.Path)
		writeServiceError(w, r, "verify webhook", err)
		return
	}

	data, err := decodeEvent(r.Header.Get("Content-Type"), payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := record(r.Context(), data)
	if err != nil {
		writeServiceError(w, r, "record progress event", err)
		return
	}

	if message == "" {
		message = rec.Event.Kind + " event processed"
		if eventType, ok := data["eventType"].(string); ok {
			message = eventType + " event processed"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": message,
		"data":    rec.Event.Payload,
		"stored":  rec.Stored,
	})
}

// decodeEvent reads a JSON object or a url-encoded form into a flat map.
func decodeEvent(contentType string, payload []byte) (map[string]any, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, errUnsupportedContentType
	}

	switch mediaType {
	case "application/json":
		var data map[string]any
		dec := json.NewDecoder(bytes.NewReader(payload))
		if err := dec.Decode(&data); err != nil || data == nil {
			return nil, errors.New("invalid JSON body")
		}
		return data, nil
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(payload))
		if err != nil {
			return nil, errors.New("invalid form body")
		}
		data := make(map[string]any, len(values))
		for k := range values {
			data[k] = values.Get(k)
		}
		return data, nil
	}
	return nil, errUnsupportedContentType
}
