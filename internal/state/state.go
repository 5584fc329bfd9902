// Package state holds the durable progress record: XP, levels, commit
// streaks, unlocked achievements and tool usage. One instance lives for the
// daemon's lifetime; the daemon mutates it under its own lock and flushes it
// to disk after every processed event.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DateLayout is the calendar-date form of LastCommitDate (no time of day).
const DateLayout = "2006-01-02"

// DefaultStreakMilestones are the streak lengths that trigger an epic
// celebration unless overridden in config.
var DefaultStreakMilestones = []int{5, 10, 25, 100}

// State is the durable progress snapshot. Serialized as pretty JSON.
type State struct {
	XP                   int             `json:"xp"`
	Level                int             `json:"level"`
	LevelName            string          `json:"level_name"`
	CommitsTotal         int             `json:"commits_total"`
	CommitStreakDays     int             `json:"commit_streak_days"`
	LastCommitDate       string          `json:"last_commit_date,omitempty"`
	SessionsTotal        int             `json:"sessions_total"`
	AchievementsUnlocked []string        `json:"achievements_unlocked"`
	ToolsUsed            map[string]bool `json:"tools_used"`
	LastEventAt          *time.Time      `json:"last_event_at,omitempty"`
	LastBashExit         *int            `json:"last_bash_exit,omitempty"`
}

// New returns the zero-progress state.
func New() *State {
	level, name := LevelForXP(0)
	return &State{
		Level:                level,
		LevelName:            name,
		AchievementsUnlocked: []string{},
		ToolsUsed:            map[string]bool{},
	}
}

// CommitResult reports what RecordCommit observed.
type CommitResult struct {
	FirstToday bool
	// StreakMilestone is set when the streak changed and landed exactly on
	// one of the milestones.
	StreakMilestone int
	HitMilestone    bool
}

// AddXP adds the amount and recomputes the cached level.
func (s *State) AddXP(amount int) {
	s.XP += amount
	s.Level, s.LevelName = LevelForXP(s.XP)
}

// RecordCommit counts a commit and maintains the calendar-day streak: the
// first commit of a day extends the streak when the previous commit day was
// exactly yesterday, resets it to 1 on any gap, and leaves it alone for
// repeat commits on the same day.
func (s *State) RecordCommit(now time.Time, milestones []int) CommitResult {
	s.CommitsTotal++
	today := now.Format(DateLayout)
	firstToday := s.LastCommitDate != today
	oldStreak := s.CommitStreakDays

	if firstToday {
		yesterday := now.AddDate(0, 0, -1).Format(DateLayout)
		if s.LastCommitDate == yesterday {
			s.CommitStreakDays++
		} else {
			s.CommitStreakDays = 1
		}
		s.LastCommitDate = today
	}

	res := CommitResult{FirstToday: firstToday}
	if s.CommitStreakDays != oldStreak {
		for _, m := range milestones {
			if s.CommitStreakDays == m {
				res.StreakMilestone = m
				res.HitMilestone = true
				break
			}
		}
	}
	return res
}

// RecordToolUse adds the tool to the used set; reports whether it was new.
func (s *State) RecordToolUse(name string) bool {
	if s.ToolsUsed == nil {
		s.ToolsUsed = map[string]bool{}
	}
	if s.ToolsUsed[name] {
		return false
	}
	s.ToolsUsed[name] = true
	return true
}

// HasTool reports membership in the tools-used set.
func (s *State) HasTool(name string) bool {
	return s.ToolsUsed[name]
}

// Unlocked reports whether the achievement id is already recorded.
func (s *State) Unlocked(id string) bool {
	for _, a := range s.AchievementsUnlocked {
		if a == id {
			return true
		}
	}
	return false
}

// UnlockAchievement appends the id once; reports whether it was new.
func (s *State) UnlockAchievement(id string) bool {
	if s.Unlocked(id) {
		return false
	}
	s.AchievementsUnlocked = append(s.AchievementsUnlocked, id)
	return true
}

// Clone returns a deep copy, safe to hand to the renderer after the daemon
// releases its lock.
func (s *State) Clone() *State {
	c := *s
	c.AchievementsUnlocked = append([]string(nil), s.AchievementsUnlocked...)
	c.ToolsUsed = make(map[string]bool, len(s.ToolsUsed))
	for k, v := range s.ToolsUsed {
		c.ToolsUsed[k] = v
	}
	if s.LastEventAt != nil {
		t := *s.LastEventAt
		c.LastEventAt = &t
	}
	if s.LastBashExit != nil {
		n := *s.LastBashExit
		c.LastBashExit = &n
	}
	return &c
}

// Load reads state from path. A missing or unreadable file yields the
// zero-progress default rather than an error: losing celebration history is
// preferable to refusing to start.
func Load(path string) *State {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from our own data dir
	if err != nil {
		return New()
	}
	s := New()
	if err := json.Unmarshal(data, s); err != nil {
		return New()
	}
	if s.ToolsUsed == nil {
		s.ToolsUsed = map[string]bool{}
	}
	if s.AchievementsUnlocked == nil {
		s.AchievementsUnlocked = []string{}
	}
	// Level is a cache over XP; recompute in case the file was hand-edited.
	s.Level, s.LevelName = LevelForXP(s.XP)
	return s
}

// Save writes the state atomically (temp file + rename) so a crash mid-write
// never truncates the previous snapshot.
func (s *State) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
