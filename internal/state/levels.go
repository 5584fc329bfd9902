package state

import "math"

// Level is one rung of the XP ladder.
type Level struct {
	Threshold int
	Name      string
}

// Levels is the ordered XP threshold table. The player's level is the
// 1-based index of the largest threshold at or below their XP.
var Levels = []Level{
	{0, "Vibe Initiate"},
	{100, "Prompt Whisperer"},
	{500, "Vibe Architect"},
	{1500, "Flow State Master"},
	{5000, "Claude Sensei"},
	{10000, "Code Whisperer"},
	{20000, "Vibe Lord"},
	{35000, "Zen Master"},
	{50000, "Transcendent"},
	{75000, "Singularity"},
}

// MaxThreshold is returned by NextLevelXP at the top of the ladder.
const MaxThreshold = math.MaxInt32

// LevelForXP returns the 1-based level and its name for the given XP,
// scanning the threshold table from the top down.
func LevelForXP(xp int) (int, string) {
	for i := len(Levels) - 1; i >= 0; i-- {
		if xp >= Levels[i].Threshold {
			return i + 1, Levels[i].Name
		}
	}
	return 1, Levels[0].Name
}

// NextLevelXP returns the XP threshold of the level after the given one,
// or MaxThreshold when the ladder is maxed out.
func NextLevelXP(level int) int {
	if level < 0 || level >= len(Levels) {
		return MaxThreshold
	}
	return Levels[level].Threshold
}

// Progress returns (xp gained inside the current level, xp span of the
// current level). Used by the status line and toast bar.
func Progress(level, xp int) (inLevel, span int) {
	prev := 0
	if level >= 1 && level <= len(Levels) {
		prev = Levels[level-1].Threshold
	}
	next := NextLevelXP(level)
	if next == MaxThreshold {
		return xp - prev, MaxThreshold
	}
	return xp - prev, next - prev
}
