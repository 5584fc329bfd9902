// Package celebrate decides how intensely to celebrate an event. Decide is a
// pure function over (event, pre-mutation state, config); the daemon applies
// post-decision upgrades (streak and session milestones) after mutating state.
package celebrate

import (
	"strings"

	"github.com/dotcommander/kudos/internal/app"
	"github.com/dotcommander/kudos/internal/models"
	"github.com/dotcommander/kudos/internal/state"
)

// XP awarded per intensity before the streak bonus.
const (
	xpMini   = 5
	xpMedium = 25
	xpEpic   = 100
)

// streakBonusDays is the streak length at which XP doubles.
const streakBonusDays = 5

// Decide returns the base celebration intensity for an event.
// The state must be the pre-mutation snapshot: the breakthrough rule compares
// against the exit status recorded before this event.
func Decide(e models.Event, s *state.State, cfg app.Settings) models.Intensity {
	// Custom triggers beat every built-in rule.
	if e.Kind == models.EventPostToolUse {
		if cmd := e.CommandText(); cmd != "" {
			for _, trigger := range cfg.Triggers.Custom {
				if trigger.Pattern != "" && strings.Contains(cmd, trigger.Pattern) {
					return trigger.Intensity
				}
			}
		}
	}

	if e.Kind == models.EventPostToolUse && e.Tool != "" {
		switch e.Tool {
		case models.ToolBash:
			code, ok := e.ExitCode()
			if !ok {
				code = -1
			}
			prevFailed := s.LastBashExit != nil && *s.LastBashExit != 0
			if code == 0 && prevFailed {
				return cfg.Intensity.Breakthrough
			}
			if code == 0 {
				return cfg.Intensity.Routine
			}
			return models.IntensityOff
		case models.ToolWrite, models.ToolEdit, models.ToolRead:
			return cfg.Intensity.Routine
		}
	}

	switch e.Kind {
	case models.EventTaskCompleted, models.EventGitCommit, models.EventSessionEnd:
		return cfg.Intensity.Milestone
	case models.EventGitPush:
		return cfg.Intensity.Breakthrough
	case models.EventPostToolUseFailure:
		return models.IntensityOff
	default:
		return cfg.Intensity.Routine
	}
}

// XPForIntensity returns the base XP award for an intensity.
func XPForIntensity(i models.Intensity) int {
	switch i {
	case models.IntensityMini:
		return xpMini
	case models.IntensityMedium:
		return xpMedium
	case models.IntensityEpic:
		return xpEpic
	default:
		return 0
	}
}

// XPForEvent applies the 2x streak bonus when the commit streak is at or
// above five days.
func XPForEvent(i models.Intensity, s *state.State) int {
	base := XPForIntensity(i)
	if base > 0 && s.CommitStreakDays >= streakBonusDays {
		return base * 2
	}
	return base
}
