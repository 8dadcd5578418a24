package osrs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/validation"
)

// HiscoreRows is the row order of the hiscores CSV.
var HiscoreRows = []string{
	"overall", "attack", "defence", "strength", "hitpoints", "ranged", "prayer", "magic",
	"cooking", "woodcutting", "fletching", "fishing", "firemaking", "crafting", "smithing",
	"mining", "herblore", "agility", "thieving", "slayer", "farming", "runecraft", "hunter", "construction",
}

// LookupPlayer fetches and parses the hiscores of a single player.
func (c *Client) LookupPlayer(ctx context.Context, name string) (*model.PlayerStats, error) {
	if err := validation.ValidatePlayerName(name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	body, err := c.fetch(ctx, fmt.Sprintf("player %q", name), c.hiscoresURL+url.QueryEscape(name), acceptHiscores)
	if err != nil {
		return nil, err
	}

	return &model.PlayerStats{
		Name:      name,
		Skills:    ParseHiscores(body),
		FetchedAt: time.Now(),
	}, nil
}

func acceptHiscores(status int, body []byte) error {
	if status == http.StatusNotFound || strings.TrimSpace(string(body)) == "PLAYER_NOT_FOUND" {
		return ErrPlayerNotFound
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status %d", status)
	}
	text := string(body)
	if !strings.Contains(text, ",") || strings.Contains(text, "<!DOCTYPE") {
		return errInvalidBody
	}
	return nil
}

// ParseHiscores reads the hiscores CSV. It never fails: unparseable values
// fall back to rank -1, level 1 and xp 0, and missing rows get all three.
func ParseHiscores(data []byte) map[string]model.SkillStat {
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	stats := make(map[string]model.SkillStat, len(HiscoreRows))

	for i, skill := range HiscoreRows {
		stat := model.SkillStat{Rank: -1, Level: 1, XP: 0}
		if i < len(lines) {
			parts := strings.Split(strings.TrimSpace(lines[i]), ",")
			if rank, ok := field(parts, 0); ok && rank >= 1 {
				stat.Rank = int(rank)
			}
			if level, ok := field(parts, 1); ok && level >= 1 {
				stat.Level = int(level)
			}
			if xp, ok := field(parts, 2); ok && xp >= 0 {
				stat.XP = xp
			}
		}
		stats[skill] = stat
	}
	return stats
}

func field(parts []string, i int) (int64, bool) {
	if i >= len(parts) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(parts[i]), 10, 64)
	return n, err == nil
}
