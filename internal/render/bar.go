package render

import (
	"strings"

	"github.com/dotcommander/kudos/internal/state"
)

// XPBar renders a fixed-width progress bar of filled/empty blocks.
func XPBar(current, span, width int) string {
	ratio := 1.0
	if span > 0 {
		ratio = float64(current) / float64(span)
	}
	filled := int(ratio*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// ProgressBar returns the XP bar for the player's current level.
func ProgressBar(s *state.State, width int) string {
	inLevel, span := state.Progress(s.Level, s.XP)
	if span == state.MaxThreshold {
		return strings.Repeat("█", width)
	}
	return XPBar(inLevel, span, width)
}
