package osrs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const sampleCollectionLog = `{"data":{
	"player_name_with_capitalization":"Lynx Titan",
	"items":{
		"vorkath":[{"id":22106,"count":1,"obtained":1},{"id":21907,"count":0,"obtained":0}],
		"barrows":[{"id":4708,"name":"Ahrim's hood","count":2,"obtained":true}],
		"broken":"not a list"
	}
}}`

func newTempleServer(t *testing.T, logBody string, logStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var itemCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/collection-log/player_collection_log.php":
			w.WriteHeader(logStatus)
			_, _ = w.Write([]byte(logBody))
		case "/api/collection-log/items.php":
			itemCalls.Add(1)
			_, _ = w.Write([]byte(`{"items":{"22106":"Jar of decay","21907":"Vorki","oops":"ignored"}}`))
		case "/api/collection-log/categories.php":
			_, _ = w.Write([]byte(`{"vorkath":{},"barrows":{},"zulrah":{}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &itemCalls
}

func TestLookupCollectionLog(t *testing.T) {
	srv, itemCalls := newTempleServer(t, sampleCollectionLog, http.StatusOK)
	client := NewClient(Options{CollectionLogURL: srv.URL + "/api/collection-log/"})

	cl, err := client.LookupCollectionLog(context.Background(), "lynx titan")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if cl.Player != "Lynx Titan" {
		t.Fatalf("player = %q", cl.Player)
	}
	if len(cl.Categories) != 2 || cl.Categories[0].Name != "barrows" || cl.Categories[1].Name != "vorkath" {
		t.Fatalf("categories = %+v", cl.Categories)
	}
	if cl.Obtained != 2 || cl.Total != 3 || cl.Percent() != 67 {
		t.Fatalf("totals = %d/%d (%d%%)", cl.Obtained, cl.Total, cl.Percent())
	}
	if cl.CompletedCategories() != 1 {
		t.Fatalf("completed categories = %d", cl.CompletedCategories())
	}

	vorkath := cl.Categories[1]
	if vorkath.Items[0].Name != "Jar of decay" || !vorkath.Items[0].Obtained || vorkath.Items[1].Obtained {
		t.Fatalf("vorkath items = %+v %+v", vorkath.Items[0], vorkath.Items[1])
	}
	if got := cl.Categories[0].Items[0].Name; got != "Ahrim's hood" {
		t.Fatalf("name from log = %q", got)
	}

	if _, err := client.LookupCollectionLog(context.Background(), "lynx titan"); err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if itemCalls.Load() != 1 {
		t.Fatalf("items fetched %d times, want 1", itemCalls.Load())
	}
	if got := client.ItemName(22106); got != "Jar of decay" {
		t.Fatalf("ItemName = %q", got)
	}
	if got := client.ItemName(1); got != "Item 1" {
		t.Fatalf("unknown ItemName = %q", got)
	}

	if err := client.IncludeEmptyCategories(context.Background(), cl); err != nil {
		t.Fatalf("IncludeEmptyCategories: %v", err)
	}
	if len(cl.Categories) != 3 || cl.Categories[2].Name != "zulrah" || len(cl.Categories[2].Items) != 0 {
		t.Fatalf("with empty categories = %+v", cl.Categories)
	}
}

func TestLookupCollectionLogServerTotals(t *testing.T) {
	body := `[{"total_collections_available":1477,"total_collections_finished":300,"items":{"vorkath":[]}}]`
	srv, _ := newTempleServer(t, body, http.StatusOK)
	client := NewClient(Options{CollectionLogURL: srv.URL + "/api/collection-log"})

	cl, err := client.LookupCollectionLog(context.Background(), "zezima")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if cl.Player != "zezima" || cl.Total != 1477 || cl.Obtained != 300 {
		t.Fatalf("log = %+v", cl)
	}
}

func TestLookupCollectionLogErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found", http.StatusNotFound, "", ErrPlayerNotFound},
		{"not synced", http.StatusOK, `{"data":{"player":"zezima"}}`, ErrCollectionLogNotSynced},
		{"empty list", http.StatusOK, `[]`, ErrCollectionLogNotSynced},
		{"rate limited", http.StatusTooManyRequests, "", ErrRateLimited},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTempleServer(t, tc.body, tc.status)
			client := NewClient(Options{CollectionLogURL: srv.URL + "/api/collection-log"})
			_, err := client.LookupCollectionLog(context.Background(), "zezima")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLookupCollectionLogFallsBackToProxy(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<!DOCTYPE html><html>cloudflare</html>"))
	}))
	defer direct.Close()
	temple, _ := newTempleServer(t, sampleCollectionLog, http.StatusOK)

	var forwarded atomic.Int32
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded.Add(1)
		target := r.URL.Query().Get("url")
		resp, err := http.Get(temple.URL + target[len(direct.URL):])
		if err != nil {
			t.Errorf("proxy get: %v", err)
			return
		}
		defer resp.Body.Close()
		w.WriteHeader(resp.StatusCode)
		_, _ = io.Copy(w, resp.Body)
	}))
	defer proxy.Close()

	client := NewClient(Options{
		CollectionLogURL: direct.URL + "/api/collection-log",
		Proxies:          []string{proxy.URL + "/?url="},
	})
	cl, err := client.LookupCollectionLog(context.Background(), "lynx titan")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if forwarded.Load() < 2 || cl.Categories[1].Items[0].Name != "Jar of decay" {
		t.Fatalf("forwarded %d, log = %+v", forwarded.Load(), cl.Categories)
	}
}

func TestItemsFailureIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/player_collection_log.php" {
			_, _ = w.Write([]byte(`{"items":{"vorkath":[{"id":22106,"obtained":1}]}}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(Options{CollectionLogURL: srv.URL})
	cl, err := client.LookupCollectionLog(context.Background(), "zezima")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got := cl.Categories[0].Items[0].Name; got != "Item 22106" {
		t.Fatalf("fallback name = %q", got)
	}
	if _, err := client.Items(context.Background()); err == nil {
		t.Fatal("expected Items to report the upstream failure")
	}
}
