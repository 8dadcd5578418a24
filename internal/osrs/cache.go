package osrs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/localstore"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
)

// StatsCache keeps the last looked-up player in the local store.
type StatsCache struct {
	kv localstore.Store
}

func NewStatsCache(kv localstore.Store) *StatsCache {
	return &StatsCache{kv: kv}
}

func (c *StatsCache) Save(ctx context.Context, stats *model.PlayerStats) error {
	payload, err := json.Marshal(stats.Skills)
	if err != nil {
		return fmt.Errorf("marshal player stats: %w", err)
	}
	if err := c.kv.Set(ctx, localstore.PlayerNameKey, []byte(stats.Name)); err != nil {
		return err
	}
	return c.kv.Set(ctx, localstore.PlayerStatKey, payload)
}

// Load returns the cached player, or localstore.ErrNotFound if none is cached.
func (c *StatsCache) Load(ctx context.Context) (*model.PlayerStats, error) {
	name, err := c.kv.Get(ctx, localstore.PlayerNameKey)
	if err != nil {
		return nil, err
	}
	payload, err := c.kv.Get(ctx, localstore.PlayerStatKey)
	if err != nil {
		return nil, err
	}

	stats := &model.PlayerStats{Name: string(name)}
	if err := json.Unmarshal(payload, &stats.Skills); err != nil {
		return nil, fmt.Errorf("%w: %v", localstore.ErrCorrupt, err)
	}
	return stats, nil
}

// Lookup fetches a player and caches the result.
func (c *StatsCache) Lookup(ctx context.Context, client *Client, name string) (*model.PlayerStats, error) {
	stats, err := client.LookupPlayer(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := c.Save(ctx, stats); err != nil {
		return stats, fmt.Errorf("cache player stats: %w", err)
	}
	return stats, nil
}

// Cached returns the cached player. Corrupt entries count as absent.
func (c *StatsCache) Cached(ctx context.Context) (*model.PlayerStats, bool) {
	stats, err := c.Load(ctx)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			slog.Warn("ignoring cached player stats", "error", err)
		}
		return nil, false
	}
	return stats, true
}
