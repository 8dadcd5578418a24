package osrs

import "math"

const MaxLevel = 99

// XPForLevel returns the experience needed to reach level.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	var points float64
	for i := 1; i < level; i++ {
		points += math.Floor(float64(i) + 300*math.Pow(2, float64(i)/7))
	}
	return int64(math.Floor(points / 4))
}

// XPRemaining is the experience still needed to go from xp to level.
func XPRemaining(xp int64, level int) int64 {
	if need := XPForLevel(level) - xp; need > 0 {
		return need
	}
	return 0
}
