package catalog

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Skills are the trainable skills in hiscores order, without overall.
var Skills = []string{
	"attack", "defence", "strength", "hitpoints", "ranged", "prayer",
	"magic", "cooking", "woodcutting", "fletching", "fishing", "firemaking",
	"crafting", "smithing", "mining", "herblore", "agility", "thieving",
	"slayer", "farming", "runecraft", "hunter", "construction",
}

func IsSkill(name string) bool {
	return slices.Contains(Skills, strings.ToLower(name))
}

var skillRequirement = regexp.MustCompile(`^(\d+)\s+([A-Za-z]+)(?:\s*\(.*\))?$`)

// ParseSkillRequirement reads requirement strings such as "10 Mining" or
// "10 Mining (can be boosted)".
// Anything else (quest names, combat level notes) is not a skill requirement.
func ParseSkillRequirement(req string) (skill string, level int, ok bool) {
	m := skillRequirement.FindStringSubmatch(strings.TrimSpace(req))
	if m == nil {
		return "", 0, false
	}
	skill = strings.ToLower(m[2])
	if skill == "runecrafting" {
		skill = "runecraft"
	}
	if !IsSkill(skill) {
		return "", 0, false
	}
	level, err := strconv.Atoi(m[1])
	if err != nil {
		return "", 0, false
	}
	return skill, level, true
}
