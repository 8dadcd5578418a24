package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

type GoalType string

const (
	GoalTypeQuest GoalType = "quest"
	GoalTypeDiary GoalType = "diary"
	GoalTypeSkill GoalType = "skill"
)

const (
	CategoryQuests = "Quests"
	CategoryTasks  = "Tasks"
	CategorySkills = "Skills"
	CategoryOther  = "Other"
)

// Categories is the display order of goal groups.
var Categories = []string{CategoryQuests, CategoryTasks, CategorySkills, CategoryOther}

var (
	ErrUnknownGoalType = errors.New("unknown goal type")
	ErrInvalidGoal     = errors.New("invalid goal")
)

// Target identifies the catalog item a goal tracks.
// It is one of QuestTarget, DiaryTarget or SkillTarget.
type Target interface {
	Type() GoalType
	OriginalID() string
	isTarget()
}

type QuestTarget struct {
	QuestID string
}

type DiaryTarget struct {
	DiaryID    string
	Difficulty string
	TaskIndex  int
}

type SkillTarget struct {
	Skill string
	Level int
}

func (QuestTarget) Type() GoalType { return GoalTypeQuest }
func (DiaryTarget) Type() GoalType { return GoalTypeDiary }
func (SkillTarget) Type() GoalType { return GoalTypeSkill }

func (t QuestTarget) OriginalID() string { return t.QuestID }
func (t DiaryTarget) OriginalID() string { return t.DiaryID }
func (t SkillTarget) OriginalID() string { return t.Skill }

func (QuestTarget) isTarget() {}
func (DiaryTarget) isTarget() {}
func (SkillTarget) isTarget() {}

// GoalID derives the natural key of a goal from its target.
func GoalID(t Target) string {
	switch t := t.(type) {
	case QuestTarget:
		return "quest_" + t.QuestID
	case DiaryTarget:
		return "diary_" + t.DiaryID + "_" + t.Difficulty + "_" + strconv.Itoa(t.TaskIndex)
	case SkillTarget:
		return "skill_" + t.Skill + "_" + strconv.Itoa(t.Level)
	default:
		return ""
	}
}

// CategoryOf returns the display group for a target.
func CategoryOf(t Target) string {
	switch t.(type) {
	case QuestTarget:
		return CategoryQuests
	case DiaryTarget:
		return CategoryTasks
	case SkillTarget:
		return CategorySkills
	default:
		return CategoryOther
	}
}

func validateTarget(t Target) error {
	switch t := t.(type) {
	case QuestTarget:
		if t.QuestID == "" {
			return fmt.Errorf("%w: quest id is required", ErrInvalidGoal)
		}
	case DiaryTarget:
		if t.DiaryID == "" || t.Difficulty == "" {
			return fmt.Errorf("%w: diary id and difficulty are required", ErrInvalidGoal)
		}
		if t.TaskIndex < 0 {
			return fmt.Errorf("%w: task index must not be negative", ErrInvalidGoal)
		}
	case SkillTarget:
		if t.Skill == "" {
			return fmt.Errorf("%w: skill is required", ErrInvalidGoal)
		}
		if t.Level < 1 || t.Level > 99 {
			return fmt.Errorf("%w: target level must be between 1 and 99", ErrInvalidGoal)
		}
	case nil:
		return fmt.Errorf("%w: target is required", ErrInvalidGoal)
	default:
		return ErrUnknownGoalType
	}
	return nil
}

// Goal is a journal entry tracking a quest, a diary task or a skill level.
type Goal struct {
	ID          string
	Target      Target
	Title       string
	Description string
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
}

func NewGoal(target Target, title, description string, createdAt time.Time) *Goal {
	return &Goal{
		ID:          GoalID(target),
		Target:      target,
		Title:       title,
		Description: description,
		CreatedAt:   createdAt,
	}
}

func (g *Goal) Type() GoalType {
	if g.Target == nil {
		return ""
	}
	return g.Target.Type()
}

func (g *Goal) Category() string {
	return CategoryOf(g.Target)
}

// Validate checks that the goal has a well-formed target and that its id
// matches the one derived from the target.
func (g *Goal) Validate() error {
	if err := validateTarget(g.Target); err != nil {
		return err
	}
	if g.ID != GoalID(g.Target) {
		return fmt.Errorf("%w: id %q does not match target", ErrInvalidGoal, g.ID)
	}
	return nil
}

// MarkCompleted sets the completion fields.
func (g *Goal) MarkCompleted(at time.Time) {
	g.Completed = true
	g.CompletedAt = &at
}

func (g *Goal) Clone() *Goal {
	c := *g
	if g.CompletedAt != nil {
		at := *g.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// GoalRecord is the flat wire shape shared by the local store, SQL rows and
// Firestore documents.
type GoalRecord struct {
	ID          string     `json:"id" db:"id" firestore:"id"`
	UserID      string     `json:"-" db:"user_id" firestore:"-"`
	Type        GoalType   `json:"type" db:"type" firestore:"type"`
	Title       string     `json:"title" db:"title" firestore:"title"`
	Description string     `json:"description" db:"description" firestore:"description"`
	Category    string     `json:"category" db:"category" firestore:"category"`
	OriginalID  string     `json:"originalId" db:"original_id" firestore:"originalId"`
	Difficulty  *string    `json:"difficulty,omitempty" db:"difficulty" firestore:"difficulty,omitempty"`
	TaskIndex   *int       `json:"taskIndex,omitempty" db:"task_index" firestore:"taskIndex,omitempty"`
	TargetLevel *int       `json:"targetLevel,omitempty" db:"target_level" firestore:"targetLevel,omitempty"`
	Completed   bool       `json:"completed" db:"completed" firestore:"completed"`
	CompletedAt *time.Time `json:"completedAt" db:"completed_at" firestore:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at" firestore:"createdAt"`
}

func (g *Goal) Record() GoalRecord {
	r := GoalRecord{
		ID:          g.ID,
		Type:        g.Type(),
		Title:       g.Title,
		Description: g.Description,
		Category:    g.Category(),
		Completed:   g.Completed,
		CompletedAt: g.CompletedAt,
		CreatedAt:   g.CreatedAt,
	}
	switch t := g.Target.(type) {
	case QuestTarget:
		r.OriginalID = t.QuestID
	case DiaryTarget:
		r.OriginalID = t.DiaryID
		difficulty := t.Difficulty
		index := t.TaskIndex
		r.Difficulty = &difficulty
		r.TaskIndex = &index
	case SkillTarget:
		r.OriginalID = t.Skill
		level := t.Level
		r.TargetLevel = &level
	}
	return r
}

// Goal converts a record back into a Goal. The stored id is kept as is so
// that deletes address the same document; an empty id is derived.
func (r GoalRecord) Goal() (*Goal, error) {
	var target Target
	switch r.Type {
	case GoalTypeQuest:
		target = QuestTarget{QuestID: r.OriginalID}
	case GoalTypeDiary:
		if r.Difficulty == nil || r.TaskIndex == nil {
			return nil, fmt.Errorf("%w: diary goal %q missing difficulty or task index", ErrInvalidGoal, r.ID)
		}
		target = DiaryTarget{DiaryID: r.OriginalID, Difficulty: *r.Difficulty, TaskIndex: *r.TaskIndex}
	case GoalTypeSkill:
		if r.TargetLevel == nil {
			return nil, fmt.Errorf("%w: skill goal %q missing target level", ErrInvalidGoal, r.ID)
		}
		target = SkillTarget{Skill: r.OriginalID, Level: *r.TargetLevel}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGoalType, r.Type)
	}

	if err := validateTarget(target); err != nil {
		return nil, err
	}

	id := r.ID
	if id == "" {
		id = GoalID(target)
	}

	return &Goal{
		ID:          id,
		Target:      target,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		CompletedAt: r.CompletedAt,
		CreatedAt:   r.CreatedAt,
	}, nil
}

func (g *Goal) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Record())
}

func (g *Goal) UnmarshalJSON(data []byte) error {
	var r GoalRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	decoded, err := r.Goal()
	if err != nil {
		return err
	}
	*g = *decoded
	return nil
}
