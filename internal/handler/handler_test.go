package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/catalog"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/ctxkeys"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/db"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/osrs"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/repository"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/service"
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

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(openTestDB(t))
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCatalogLookups(t *testing.T) {
	c, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	h := NewCatalogHandler(c)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/catalog/quests", h.Quests)
	mux.HandleFunc("GET /api/catalog/quests/{id}", h.Quest)
	mux.HandleFunc("GET /api/catalog/potions", h.Potions)
	mux.HandleFunc("GET /api/catalog/potions/{id}", h.Potion)

	tests := []struct {
		path string
		want int
	}{
		{"/api/catalog/quests?search=cook", http.StatusOK},
		{"/api/catalog/quests/cooks-assistant", http.StatusOK},
		{"/api/catalog/quests/not-a-quest", http.StatusNotFound},
		{"/api/catalog/potions?level=3", http.StatusOK},
		{"/api/catalog/potions?level=abc", http.StatusBadRequest},
		{"/api/catalog/potions/attack-potion", http.StatusOK},
		{"/api/catalog/potions/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "text/csv")
			w.Write([]byte("1,2,3"))
		case "/missing":
			http.NotFound(w, r)
		case "/moved":
			http.Redirect(w, r, "/ok", http.StatusFound)
		case "/elsewhere":
			http.Redirect(w, r, "http://attacker.example/steal", http.StatusFound)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer upstream.Close()

	host := strings.TrimPrefix(upstream.URL, "http://")
	hostname, _, _ := strings.Cut(host, ":")
	h := NewProxyHandler([]string{hostname}, time.Second, "test-agent")

	call := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		path := "/api/proxy"
		if target != "" {
			path += "?url=" + url.QueryEscape(target)
		}
		h.Proxy(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	if rec := call(""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing url = %d", rec.Code)
	}
	if rec := call("::not a url"); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid url = %d", rec.Code)
	}
	if rec := call("https://example.com/x"); rec.Code != http.StatusForbidden {
		t.Errorf("disallowed domain = %d", rec.Code)
	}

	rec := call(upstream.URL + "/ok")
	if rec.Code != http.StatusOK || rec.Body.String() != "1,2,3" {
		t.Fatalf("ok = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "text/csv" || rec.Header().Get("Cache-Control") != "public, max-age=60" {
		t.Fatalf("headers = %v", rec.Header())
	}

	rec = call(upstream.URL + "/missing")
	if rec.Code != http.StatusNotFound || strings.TrimSpace(rec.Body.String()) != "PLAYER_NOT_FOUND" {
		t.Fatalf("missing = %d %q", rec.Code, rec.Body.String())
	}
	if rec := call(upstream.URL + "/down"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("upstream error = %d", rec.Code)
	}

	if rec := call(upstream.URL + "/moved"); rec.Code != http.StatusOK || rec.Body.String() != "1,2,3" {
		t.Fatalf("same-host redirect = %d %q", rec.Code, rec.Body.String())
	}
	if rec := call(upstream.URL + "/elsewhere"); rec.Code != http.StatusForbidden {
		t.Fatalf("redirect off the allow-list = %d, want 403", rec.Code)
	}
}

func TestPlayerLookup(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("player") == "Zezima" {
			w.Write([]byte("1,2277,4600000000\n1,99,200000000\n"))
			return
		}
		http.NotFound(w, r)
	}))
	defer upstream.Close()

	client := osrs.NewClient(osrs.Options{HiscoresURL: upstream.URL + "/hiscores?player="})
	h := NewPlayerHandler(client)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/players/{name}", h.Player)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/players/Zezima", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("found = %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/players/Nobody", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("not found = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/players/"+url.PathEscape("bad!name"), nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid name = %d", rec.Code)
	}
}

func TestCollectionLog(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/items.php":
			w.Write([]byte(`{"items":{"22106":"Jar of decay"}}`))
		case r.URL.Path == "/categories.php":
			w.Write([]byte(`{"vorkath":{},"zulrah":{}}`))
		case r.URL.Query().Get("player") == "Zezima":
			w.Write([]byte(`{"data":{"items":{"vorkath":[{"id":22106,"obtained":1}]}}}`))
		case r.URL.Query().Get("player") == "Busy":
			w.WriteHeader(http.StatusTooManyRequests)
		case r.URL.Query().Get("player") == "Fresh":
			w.Write([]byte(`{"data":{}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	h := NewPlayerHandler(osrs.NewClient(osrs.Options{CollectionLogURL: upstream.URL}))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/players/{name}/collection-log", h.CollectionLog)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/players/Zezima/collection-log?all=true", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("found = %d %s", rec.Code, rec.Body.String())
	}
	var cl struct {
		Obtained   int
		Total      int
		Categories []struct {
			Name  string
			Items []struct{ Name string }
		}
	}
	if err := json.NewDecoder(rec.Body).Decode(&cl); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cl.Obtained != 1 || len(cl.Categories) != 2 || cl.Categories[0].Items[0].Name != "Jar of decay" {
		t.Fatalf("collection log = %+v", cl)
	}

	for path, want := range map[string]int{
		"/api/players/Nobody/collection-log":     http.StatusNotFound,
		"/api/players/Fresh/collection-log":      http.StatusNotFound,
		"/api/players/Busy/collection-log":       http.StatusTooManyRequests,
		"/api/players/bad%21name/collection-log": http.StatusBadRequest,
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Errorf("%s = %d, want %d", path, rec.Code, want)
		}
	}
}

func newWebhookHandler(t *testing.T) *WebhookHandler {
	t.Helper()
	svc, err := service.NewProgressService(repository.NewProgressRepository(openTestDB(t)), nil, "")
	if err != nil {
		t.Fatalf("progress service: %v", err)
	}
	return NewWebhookHandler(svc)
}

func TestWebhookQuestJSONAndForm(t *testing.T) {
	h := newWebhookHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/quest", strings.NewReader(`{"playerName":"Zezima","questName":"Lost City"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Quest(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("json = %d %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["success"] != true || body["stored"] != true {
		t.Fatalf("body = %v", body)
	}

	form := url.Values{"playerName": {"Zezima"}, "diaryName": {"Varrock"}, "taskName": {"Mine iron"}}
	req = httptest.NewRequest(http.MethodPost, "/api/webhooks/diary", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.Diary(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("form = %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/webhooks/quest", strings.NewReader("playerName=x"))
	req.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	h.Quest(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("text/plain = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/webhooks/quest", strings.NewReader(`{"playerName":"Zezima"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.Quest(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing field = %d", rec.Code)
	}
	if body := decodeBody(t, rec); !strings.Contains(body["error"].(string), "questName") {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestWebhookRuneLiteListing(t *testing.T) {
	h := newWebhookHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/runelite", strings.NewReader(`{"playerName":"Zezima","eventType":"level","skill":"mining","level":60}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	h.RuneLite(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("runelite = %d %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["message"] != "level event processed" {
		t.Fatalf("message = %v", body["message"])
	}

	rec = httptest.NewRecorder()
	h.Events(rec, httptest.NewRequest(http.MethodGet, "/api/webhooks/runelite?player=Zezima&type=level", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	data, _ := decodeBody(t, rec)["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("listed %d events, want 1", len(data))
	}

	rec = httptest.NewRecorder()
	h.Events(rec, httptest.NewRequest(http.MethodGet, "/api/webhooks/runelite", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing player = %d", rec.Code)
	}
}

func TestGoalAPI(t *testing.T) {
	h := NewGoalHandler(service.NewGoalService(repository.NewGoalRepository(openTestDB(t))))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/goals", h.List)
	mux.HandleFunc("PUT /api/goals/{id}", h.Put)
	mux.HandleFunc("DELETE /api/goals/{id}", h.Delete)

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(ctxkeys.WithUserID(req.Context(), "user-1"))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(http.MethodPut, "/api/goals/skill_mining_60", `{"type":"skill","title":"Reach 60 Mining","originalId":"mining","targetLevel":60}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put = %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(http.MethodPut, "/api/goals/quest_other", `{"type":"quest","originalId":"lost-city"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mismatched id = %d", rec.Code)
	}

	rec = serve(http.MethodGet, "/api/goals", "")
	goals, _ := decodeBody(t, rec)["goals"].([]any)
	if len(goals) != 1 {
		t.Fatalf("goals = %v", goals)
	}

	if rec := serve(http.MethodDelete, "/api/goals/skill_mining_60", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	if rec := serve(http.MethodDelete, "/api/goals/skill_mining_60", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d", rec.Code)
	}
}
