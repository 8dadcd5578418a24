package osrs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/validation"
)

var ErrCollectionLogNotSynced = errors.New("no collection log data found, the player may not have synced it with TempleOSRS yet")

type templeLog struct {
	DisplayName string                     `json:"player_name_with_capitalization"`
	Available   int                        `json:"total_collections_available"`
	Finished    int                        `json:"total_collections_finished"`
	Items       map[string]json.RawMessage `json:"items"`
}

type templeItem struct {
	ID       int        `json:"id"`
	Name     string     `json:"name"`
	Count    int        `json:"count"`
	Obtained templeFlag `json:"obtained"`
}

// templeFlag accepts both booleans and 0/1.
type templeFlag bool

func (f *templeFlag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*f = true
	case "false", "0", "null", `""`:
		*f = false
	default:
		return fmt.Errorf("invalid obtained flag %s", data)
	}
	return nil
}

// itemNames caches the TempleOSRS item table after the first successful load.
type itemNames struct {
	mu    sync.Mutex
	names map[int]string
}

// LookupCollectionLog fetches a player's collection log from TempleOSRS.
// Item names come from the cached item table when it can be loaded; a
// failure there only degrades names to "Item <id>".
func (c *Client) LookupCollectionLog(ctx context.Context, name string) (*model.CollectionLog, error) {
	if err := validation.ValidatePlayerName(name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	target := c.collectionLogURL + "/player_collection_log.php?player=" + url.QueryEscape(name)
	body, err := c.fetch(ctx, fmt.Sprintf("collection log %q", name), target, acceptCollectionLog)
	if err != nil {
		return nil, err
	}

	raw, err := decodeCollectionLog(body)
	if err != nil {
		return nil, err
	}

	names, err := c.loadItems(ctx)
	if err != nil {
		slog.Warn("collection log item names unavailable", "error", err)
	}
	return buildCollectionLog(name, raw, names), nil
}

// Items returns a copy of the TempleOSRS item id to name table.
func (c *Client) Items(ctx context.Context) (map[int]string, error) {
	names, err := c.loadItems(ctx)
	if err != nil {
		return nil, err
	}
	return maps.Clone(names), nil
}

// ItemName resolves id against the cached item table without fetching it.
func (c *Client) ItemName(id int) string {
	c.items.mu.Lock()
	defer c.items.mu.Unlock()
	if name, ok := c.items.names[id]; ok {
		return name
	}
	return "Item " + strconv.Itoa(id)
}

func (c *Client) loadItems(ctx context.Context) (map[int]string, error) {
	c.items.mu.Lock()
	defer c.items.mu.Unlock()
	if c.items.names != nil {
		return c.items.names, nil
	}

	body, err := c.fetch(ctx, "collection log items", c.collectionLogURL+"/items.php", acceptTemple)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Items map[string]string `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}

	names := make(map[int]string, len(resp.Items))
	for key, name := range resp.Items {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		names[id] = name
	}
	c.items.names = names
	slog.Debug("collection log items loaded", "count", len(names))
	return names, nil
}

// Categories lists the collection log categories TempleOSRS tracks, sorted.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	body, err := c.fetch(ctx, "collection log categories", c.collectionLogURL+"/categories.php", acceptTemple)
	if err != nil {
		return nil, err
	}
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return slices.Sorted(maps.Keys(resp)), nil
}

// IncludeEmptyCategories adds every known category the player has no
// entries for, so the log lists the full set.
func (c *Client) IncludeEmptyCategories(ctx context.Context, cl *model.CollectionLog) error {
	known, err := c.Categories(ctx)
	if err != nil {
		return err
	}
	for _, name := range known {
		if !slices.ContainsFunc(cl.Categories, func(cat *model.CollectionLogCategory) bool { return cat.Name == name }) {
			cl.Categories = append(cl.Categories, &model.CollectionLogCategory{Name: name, Items: []*model.CollectionLogItem{}})
		}
	}
	sortCategories(cl.Categories)
	return nil
}

func acceptCollectionLog(status int, body []byte) error {
	if status == http.StatusNotFound {
		return ErrPlayerNotFound
	}
	return acceptTemple(status, body)
}

func acceptTemple(status int, body []byte) error {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status != http.StatusOK:
		return fmt.Errorf("unexpected status %d", status)
	case !json.Valid(body):
		return errInvalidBody
	}
	return nil
}

// decodeCollectionLog unwraps the optional "data" envelope and a one-element
// array before reading the log.
func decodeCollectionLog(body []byte) (*templeLog, error) {
	payload := bytes.TrimSpace(body)
	if len(payload) == 0 {
		return nil, errInvalidBody
	}

	if payload[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
		}
		if data := bytes.TrimSpace(envelope.Data); len(data) > 0 && (data[0] == '{' || data[0] == '[') {
			payload = data
		}
	}
	if payload[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(payload, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
		}
		if len(list) == 0 {
			return nil, ErrCollectionLogNotSynced
		}
		payload = list[0]
	}

	var raw templeLog
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if len(raw.Items) == 0 {
		return nil, ErrCollectionLogNotSynced
	}
	return &raw, nil
}

func buildCollectionLog(name string, raw *templeLog, names map[int]string) *model.CollectionLog {
	cl := &model.CollectionLog{Player: name, FetchedAt: time.Now()}
	if raw.DisplayName != "" {
		cl.Player = raw.DisplayName
	}

	for category, data := range raw.Items {
		var items []templeItem
		if err := json.Unmarshal(data, &items); err != nil {
			slog.Debug("skipping collection log category", "category", category, "error", err)
			continue
		}

		cat := &model.CollectionLogCategory{Name: category, Items: make([]*model.CollectionLogItem, 0, len(items))}
		for _, it := range items {
			item := &model.CollectionLogItem{
				ID:       it.ID,
				Name:     it.Name,
				Count:    it.Count,
				Obtained: bool(it.Obtained),
			}
			if n, ok := names[it.ID]; ok {
				item.Name = n
			} else if item.Name == "" {
				item.Name = "Item " + strconv.Itoa(it.ID)
			}
			if item.Obtained {
				cat.Obtained++
			}
			cat.Items = append(cat.Items, item)
		}
		cl.Categories = append(cl.Categories, cat)
		cl.Obtained += cat.Obtained
		cl.Total += len(cat.Items)
	}
	sortCategories(cl.Categories)

	// TempleOSRS totals cover categories the player has not opened in game.
	if raw.Available > 0 && raw.Finished > 0 {
		cl.Total, cl.Obtained = raw.Available, raw.Finished
	}
	return cl
}

func sortCategories(cats []*model.CollectionLogCategory) {
	slices.SortFunc(cats, func(a, b *model.CollectionLogCategory) int {
		return strings.Compare(a.Name, b.Name)
	})
}
