package catalog

import (
	"embed"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

var (
	ErrQuestNotFound     = errors.New("quest not found")
	ErrDiaryNotFound     = errors.New("diary not found")
	ErrDiaryTaskNotFound = errors.New("diary task not found")
)

// Difficulties of diary tiers, in order.
var DiaryDifficulties = []string{"easy", "medium", "hard", "elite"}

// QuestDifficulties in ascending order.
var QuestDifficulties = []string{"novice", "intermediate", "experienced", "master", "grandmaster"}

type Quest struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Difficulty    string   `yaml:"difficulty" json:"difficulty"`
	Description   string   `yaml:"description" json:"description"`
	Requirements  []string `yaml:"requirements" json:"requirements"`
	Rewards       []string `yaml:"rewards" json:"rewards"`
	Guide         string   `yaml:"guide" json:"guide,omitempty"`
	WikiURL       string   `yaml:"wiki_url" json:"wikiUrl,omitempty"`
	QuestPoints   int      `yaml:"quest_points" json:"questPoints"`
	Members       bool     `yaml:"members" json:"members"`
	Length        string   `yaml:"length" json:"length,omitempty"`
	StartLocation string   `yaml:"start_location" json:"startLocation,omitempty"`
	Miniquest     bool     `yaml:"miniquest" json:"miniquest"`
}

type DiaryTask struct {
	Description string `yaml:"description" json:"description"`
	Guide       string `yaml:"guide" json:"guide,omitempty"`
}

type DiaryTier struct {
	Description  string      `yaml:"description" json:"description"`
	Requirements []string    `yaml:"requirements" json:"requirements"`
	Rewards      []string    `yaml:"rewards" json:"rewards"`
	Tasks        []DiaryTask `yaml:"tasks" json:"tasks"`
}

type Diary struct {
	ID          string                `yaml:"id" json:"id"`
	Name        string                `yaml:"name" json:"name"`
	Description string                `yaml:"description" json:"description"`
	Region      string                `yaml:"region" json:"region"`
	Tiers       map[string]*DiaryTier `yaml:"tiers" json:"tiers"`
}

// Tier returns the tier for difficulty, if the diary has one.
func (d *Diary) Tier(difficulty string) (*DiaryTier, bool) {
	t, ok := d.Tiers[strings.ToLower(difficulty)]
	return t, ok
}

// Difficulties lists the tiers present, in canonical order.
func (d *Diary) Difficulties() []string {
	var out []string
	for _, diff := range DiaryDifficulties {
		if _, ok := d.Tiers[diff]; ok {
			out = append(out, diff)
		}
	}
	return out
}

type Ingredient struct {
	Name     string `yaml:"name" json:"name"`
	Quantity int    `yaml:"quantity" json:"quantity"`
}

type Potion struct {
	ID         string       `yaml:"id" json:"id"`
	Name       string       `yaml:"name" json:"name"`
	Level      int          `yaml:"level" json:"level"`
	XP         float64      `yaml:"xp" json:"xp"`
	Primary    Ingredient   `yaml:"primary" json:"primary"`
	Secondary  Ingredient   `yaml:"secondary" json:"secondary"`
	Additional []Ingredient `yaml:"additional" json:"additional,omitempty"`
	Category   string       `yaml:"category" json:"category"`
	Effect     string       `yaml:"effect" json:"effect"`
}

type Monster struct {
	ID        string   `yaml:"id" json:"id"`
	Name      string   `yaml:"name" json:"name"`
	Locations []string `yaml:"locations" json:"locations"`
}

type Location struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Type         string   `yaml:"type" json:"type"`
	Region       string   `yaml:"region" json:"region"`
	Requirements []string `yaml:"requirements" json:"requirements"`
	Monsters     []string `yaml:"monsters" json:"monsters"`
	Teleports    []string `yaml:"teleports" json:"teleports"`
	CombatLevel  int      `yaml:"combat_level" json:"combatLevel"`
	SlayerOnly   bool     `yaml:"slayer_only" json:"slayerOnly"`
}

// Catalog is the read-only reference data. It is never mutated after Load
// and is safe for concurrent use.
type Catalog struct {
	quests    []*Quest
	diaries   []*Diary
	potions   []*Potion
	monsters  []*Monster
	locations []*Location

	questByID    map[string]*Quest
	diaryByID    map[string]*Diary
	potionByID   map[string]*Potion
	monsterByID  map[string]*Monster
	locationByID map[string]*Location
}

// Load reads the embedded datasets.
func Load() (*Catalog, error) {
	c := &Catalog{}

	var quests struct {
		Quests []*Quest `yaml:"quests"`
	}
	var diaries struct {
		Diaries []*Diary `yaml:"diaries"`
	}
	var potions struct {
		Potions []*Potion `yaml:"potions"`
	}
	var monsters struct {
		Monsters []*Monster `yaml:"monsters"`
	}
	var locations struct {
		Locations []*Location `yaml:"locations"`
	}

	files := []struct {
		name string
		out  any
	}{
		{"data/quests.yaml", &quests},
		{"data/diaries.yaml", &diaries},
		{"data/potions.yaml", &potions},
		{"data/monsters.yaml", &monsters},
		{"data/locations.yaml", &locations},
	}
	for _, f := range files {
		data, err := dataFS.ReadFile(f.name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.name, err)
		}
		if err := yaml.Unmarshal(data, f.out); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", f.name, err)
		}
	}

	c.quests = quests.Quests
	c.diaries = diaries.Diaries
	c.potions = potions.Potions
	c.monsters = monsters.Monsters
	c.locations = locations.Locations
	c.index()

	return c, nil
}

// New builds a catalog from in-memory data.
func New(quests []*Quest, diaries []*Diary) *Catalog {
	c := &Catalog{quests: quests, diaries: diaries}
	c.index()
	return c
}

func (c *Catalog) index() {
	c.questByID = make(map[string]*Quest, len(c.quests))
	for _, q := range c.quests {
		if q.QuestPoints == 0 && !q.Miniquest {
			q.QuestPoints = 1
		}
		c.questByID[q.ID] = q
	}
	c.diaryByID = make(map[string]*Diary, len(c.diaries))
	for _, d := range c.diaries {
		c.diaryByID[d.ID] = d
	}
	c.potionByID = make(map[string]*Potion, len(c.potions))
	for _, p := range c.potions {
		c.potionByID[p.ID] = p
	}
	c.monsterByID = make(map[string]*Monster, len(c.monsters))
	for _, m := range c.monsters {
		c.monsterByID[m.ID] = m
	}
	c.locationByID = make(map[string]*Location, len(c.locations))
	for _, l := range c.locations {
		c.locationByID[l.ID] = l
	}
}

func (c *Catalog) Quest(id string) (*Quest, error) {
	q, ok := c.questByID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrQuestNotFound, id)
	}
	return q, nil
}

func (c *Catalog) Diary(id string) (*Diary, error) {
	d, ok := c.diaryByID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDiaryNotFound, id)
	}
	return d, nil
}

func (c *Catalog) Diaries() []*Diary {
	return slices.Clone(c.diaries)
}

// DiaryTask looks up one task of a diary tier.
func (c *Catalog) DiaryTask(id, difficulty string, index int) (*Diary, *DiaryTask, error) {
	d, err := c.Diary(id)
	if err != nil {
		return nil, nil, err
	}
	tier, ok := d.Tier(difficulty)
	if !ok || index < 0 || index >= len(tier.Tasks) {
		return nil, nil, fmt.Errorf("%w: %s/%s/%d", ErrDiaryTaskNotFound, id, difficulty, index)
	}
	return d, &tier.Tasks[index], nil
}

func (c *Catalog) Potion(id string) (*Potion, bool) {
	p, ok := c.potionByID[id]
	return p, ok
}

// Potions returns potions makeable at or below maxLevel, ordered by level.
// A maxLevel of zero returns every potion.
func (c *Catalog) Potions(maxLevel int) []*Potion {
	var out []*Potion
	for _, p := range c.potions {
		if maxLevel > 0 && p.Level > maxLevel {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

func (c *Catalog) Monster(id string) (*Monster, bool) {
	m, ok := c.monsterByID[id]
	return m, ok
}

func (c *Catalog) Monsters() []*Monster {
	return slices.Clone(c.monsters)
}

func (c *Catalog) Location(id string) (*Location, bool) {
	l, ok := c.locationByID[id]
	return l, ok
}

// Locations returns locations in region, or all of them for an empty region.
func (c *Catalog) Locations(region string) []*Location {
	var out []*Location
	for _, l := range c.locations {
		if region != "" && !strings.EqualFold(l.Region, region) {
			continue
		}
		out = append(out, l)
	}
	return out
}
