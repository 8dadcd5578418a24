package osrs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/localstore"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/validation"
)

const sampleCSV = `12345,1500,30000000
100,99,13034431
-1,1,0
abc,xyz,-5
`

func TestParseHiscores(t *testing.T) {
	stats := ParseHiscores([]byte(sampleCSV))

	if len(stats) != len(HiscoreRows) {
		t.Fatalf("got %d rows, want %d", len(stats), len(HiscoreRows))
	}
	if s := stats["overall"]; s.Rank != 12345 || s.Level != 1500 || s.XP != 30000000 {
		t.Fatalf("overall = %+v", s)
	}
	if s := stats["attack"]; s.Level != 99 || s.XP != 13034431 {
		t.Fatalf("attack = %+v", s)
	}
	if s := stats["defence"]; s.Rank != -1 || s.Level != 1 || s.XP != 0 {
		t.Fatalf("unranked defence = %+v", s)
	}
	if s := stats["strength"]; s.Rank != -1 || s.Level != 1 || s.XP != 0 {
		t.Fatalf("invalid strength = %+v", s)
	}
	if s := stats["construction"]; s.Rank != -1 || s.Level != 1 || s.XP != 0 {
		t.Fatalf("missing construction = %+v", s)
	}
}

func TestXPForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  int64
	}{
		{0, 0},
		{1, 0},
		{2, 83},
		{10, 1154},
		{50, 101333},
		{99, 13034431},
		{120, 13034431},
	}
	for _, tt := range tests {
		if got := XPForLevel(tt.level); got != tt.want {
			t.Errorf("XPForLevel(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}

	if got := XPRemaining(100, 2); got != 0 {
		t.Errorf("XPRemaining past target = %d", got)
	}
	if got := XPRemaining(0, 2); got != 83 {
		t.Errorf("XPRemaining(0, 2) = %d", got)
	}
}

func TestLookupPlayerDirect(t *testing.T) {
	var gotPlayer, gotAgent string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPlayer = r.URL.Query().Get("player")
		gotAgent = r.UserAgent()
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer upstream.Close()

	client := NewClient(Options{HiscoresURL: upstream.URL + "/index_lite.ws?player=", UserAgent: "test-agent"})
	stats, err := client.LookupPlayer(context.Background(), "Iron Man")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if gotPlayer != "Iron Man" || gotAgent != "test-agent" {
		t.Fatalf("upstream saw player %q agent %q", gotPlayer, gotAgent)
	}
	if stats.Name != "Iron Man" || stats.Skills["attack"].Level != 99 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestLookupPlayerFallsBackToProxy(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<!DOCTYPE html><html>blocked, sorry</html>"))
	}))
	defer direct.Close()

	var forwarded string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded = r.URL.Query().Get("url")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer proxy.Close()

	target := direct.URL + "/index_lite.ws?player="
	client := NewClient(Options{HiscoresURL: target, Proxies: []string{proxy.URL + "/?url="}})

	if _, err := client.LookupPlayer(context.Background(), "zezima"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if forwarded != target+"zezima" {
		t.Fatalf("proxy got url %q", forwarded)
	}
}

func TestLookupPlayerNotFoundStopsChain(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		body   string
	}{
		{"404", http.StatusNotFound, "nope"},
		{"sentinel body", http.StatusOK, "PLAYER_NOT_FOUND"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer direct.Close()

			var proxyCalls atomic.Int32
			proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				proxyCalls.Add(1)
				_, _ = w.Write([]byte(sampleCSV))
			}))
			defer proxy.Close()

			client := NewClient(Options{HiscoresURL: direct.URL + "/?player=", Proxies: []string{proxy.URL + "/?url="}})
			_, err := client.LookupPlayer(context.Background(), "ghost")
			if !errors.Is(err, ErrPlayerNotFound) {
				t.Fatalf("expected ErrPlayerNotFound, got %v", err)
			}
			if proxyCalls.Load() != 0 {
				t.Fatalf("proxy called after not found")
			}
		})
	}
}

func TestLookupPlayerExhausted(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	client := NewClient(Options{
		HiscoresURL: failing.URL + "/?player=",
		Proxies:     []string{failing.URL + "/proxy/"},
	})
	_, err := client.LookupPlayer(context.Background(), "zezima")

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if len(exhausted.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(exhausted.Attempts))
	}
	if !strings.Contains(err.Error(), "all 2 sources failed") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestLookupPlayerValidatesName(t *testing.T) {
	client := NewClient(Options{HiscoresURL: "http://127.0.0.1:0/?player="})
	_, err := client.LookupPlayer(context.Background(), "way too long name")

	var fe *validation.FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldError, got %v", err)
	}
}

func TestSources(t *testing.T) {
	c := NewClient(Options{Proxies: []string{"https://a.example/?url=", "https://b.example/fetch/"}})
	got := c.sources("https://x.example/p?player=a b")
	want := []string{
		"https://x.example/p?player=a b",
		"https://a.example/?url=https%3A%2F%2Fx.example%2Fp%3Fplayer%3Da+b",
		"https://b.example/fetch/https://x.example/p?player=a b",
	}
	if len(got) != len(want) {
		t.Fatalf("sources = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("source %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStatsCache(t *testing.T) {
	ctx := context.Background()
	cache := NewStatsCache(localstore.NewMemoryStore())

	if _, err := cache.Load(ctx); !errors.Is(err, localstore.ErrNotFound) {
		t.Fatalf("empty cache: %v", err)
	}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer upstream.Close()
	client := NewClient(Options{HiscoresURL: upstream.URL + "/?player="})

	if _, err := cache.Lookup(ctx, client, "zezima"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	stats, ok := cache.Cached(ctx)
	if !ok || stats.Name != "zezima" || stats.Skills["attack"].Level != 99 {
		t.Fatalf("cached = %+v, %v", stats, ok)
	}
}
