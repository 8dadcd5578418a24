package model

import "time"

// SkillStat is one hiscores row.
type SkillStat struct {
	Rank  int   `json:"rank"`
	Level int   `json:"level"`
	XP    int64 `json:"xp"`
}

type PlayerStats struct {
	Name      string               `json:"name"`
	Skills    map[string]SkillStat `json:"skills"`
	FetchedAt time.Time            `json:"fetchedAt"`
}

// Level returns the player's level in skill, if known.
func (p *PlayerStats) Level(skill string) (int, bool) {
	if p == nil {
		return 0, false
	}
	s, ok := p.Skills[skill]
	if !ok {
		return 0, false
	}
	return s.Level, true
}

// XP returns the player's experience in skill, if known.
func (p *PlayerStats) XP(skill string) (int64, bool) {
	if p == nil {
		return 0, false
	}
	s, ok := p.Skills[skill]
	if !ok {
		return 0, false
	}
	return s.XP, true
}

type GroupMember struct {
	Name         string               `json:"name"`
	OriginalName string               `json:"originalName"`
	TotalLevel   int                  `json:"totalLevel"`
	TotalXP      int64                `json:"totalXp"`
	Skills       map[string]SkillStat `json:"skills"`
}

type Group struct {
	Name    string         `json:"groupName"`
	Members []*GroupMember `json:"members"`
}

type CollectionLogItem struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Obtained bool   `json:"obtained"`
}

type CollectionLogCategory struct {
	Name     string               `json:"name"`
	Items    []*CollectionLogItem `json:"items"`
	Obtained int                  `json:"obtained"`
}

// Complete reports whether every item in a non-empty category is obtained.
func (c *CollectionLogCategory) Complete() bool {
	return len(c.Items) > 0 && c.Obtained == len(c.Items)
}

// CollectionLog is a player's synced collection log, categories sorted by name.
type CollectionLog struct {
	Player     string                   `json:"player"`
	Categories []*CollectionLogCategory `json:"categories"`
	Obtained   int                      `json:"obtained"`
	Total      int                      `json:"total"`
	FetchedAt  time.Time                `json:"fetchedAt"`
}

// Percent is the share of obtained items, rounded to the nearest whole number.
func (l *CollectionLog) Percent() int {
	if l.Total == 0 {
		return 0
	}
	return (l.Obtained*100 + l.Total/2) / l.Total
}

func (l *CollectionLog) CompletedCategories() int {
	n := 0
	for _, c := range l.Categories {
		if c.Complete() {
			n++
		}
	}
	return n
}
