// Package achievements holds the static registry of one-time unlocks and the
// evaluator that filters newly-qualifying entries against already-unlocked
// state. Registry order is the tie-break when several unlock on one event:
// the first result becomes the label for the celebration.
package achievements

import (
	"strings"

	"github.com/dotcommander/kudos/internal/models"
	"github.com/dotcommander/kudos/internal/state"
)

// Achievement is a compiled-in unlock definition.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry is the fixed ordered achievement list.
var Registry = []Achievement{
	// Commits
	{"first_commit", "First Commit", "Made your first git commit"},
	{"commit_10", "Getting Committed", "10 commits total"},
	{"commit_50", "Commit Machine", "50 commits total"},
	{"commit_100", "Centurion", "100 commits total"},
	// Streaks
	{"streak_5", "On a Roll", "5-day commit streak"},
	{"streak_10", "Unstoppable", "10-day commit streak"},
	{"streak_25", "Dedicated", "25-day commit streak"},
	// Push
	{"first_push", "Shipped It", "First git push"},
	// Breakthrough
	{"test_whisperer", "Test Whisperer", "Fixed a failing bash command"},
	// Tools
	{"tool_explorer", "Tool Explorer", "Used 5 different tools"},
	{"tool_master", "Tool Master", "Used 10 different tools"},
	// Levels
	{"level_2", "Prompt Whisperer", "Reached level 2"},
	{"level_3", "Vibe Architect", "Reached level 3"},
	{"level_4", "Flow State Master", "Reached level 4"},
	{"level_5", "Claude Sensei", "Reached level 5"},
	// Claude Code basics
	{"first_subagent", "Delegator", "Spawned a subagent with Task tool"},
	{"web_surfer", "Web Surfer", "Used WebSearch"},
	{"researcher", "Deep Researcher", "Used WebFetch"},
	{"mcp_pioneer", "MCP Pioneer", "Used an MCP tool"},
	// Claude Code advanced
	{"notebook_scientist", "Data Scientist", "Used NotebookEdit"},
	{"todo_master", "Organized", "Used TodoWrite"},
	{"first_skill", "Skilled Up", "Invoked a skill or slash command"},
	{"first_team", "Team Player", "Created an agent team"},
	{"team_communicator", "Team Lead", "Sent a message to a teammate"},
}

// Lookup returns the registry entry for an id.
func Lookup(id string) (Achievement, bool) {
	for _, a := range Registry {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// Check returns the achievements newly unlocked by this event, in registry
// order. The state must already carry this event's counter updates; the
// caller passes prevBashExit captured before mutation so the breakthrough
// predicate sees the exit status that was current when the event arrived.
func Check(s *state.State, e models.Event, prevBashExit *int) []Achievement {
	var unlocked []Achievement
	for _, a := range Registry {
		if s.Unlocked(a.ID) {
			continue
		}
		if qualifies(a.ID, s, e, prevBashExit) {
			unlocked = append(unlocked, a)
		}
	}
	return unlocked
}

func qualifies(id string, s *state.State, e models.Event, prevBashExit *int) bool {
	switch id {
	case "first_commit":
		return s.CommitsTotal >= 1
	case "commit_10":
		return s.CommitsTotal >= 10
	case "commit_50":
		return s.CommitsTotal >= 50
	case "commit_100":
		return s.CommitsTotal >= 100
	case "streak_5":
		return s.CommitStreakDays >= 5
	case "streak_10":
		return s.CommitStreakDays >= 10
	case "streak_25":
		return s.CommitStreakDays >= 25
	case "first_push":
		return e.Kind == models.EventGitPush
	case "test_whisperer":
		return e.IsBashSuccess() && prevBashExit != nil && *prevBashExit != 0
	case "tool_explorer":
		return len(s.ToolsUsed) >= 5
	case "tool_master":
		return len(s.ToolsUsed) >= 10
	case "level_2":
		return s.Level >= 2
	case "level_3":
		return s.Level >= 3
	case "level_4":
		return s.Level >= 4
	case "level_5":
		return s.Level >= 5
	case "first_subagent":
		return s.HasTool("Task")
	case "web_surfer":
		return s.HasTool("WebSearch")
	case "researcher":
		return s.HasTool("WebFetch")
	case "mcp_pioneer":
		for tool := range s.ToolsUsed {
			if strings.HasPrefix(tool, "mcp__") {
				return true
			}
		}
		return false
	case "notebook_scientist":
		return s.HasTool("NotebookEdit")
	case "todo_master":
		return s.HasTool("TodoWrite")
	case "first_skill":
		return s.HasTool("Skill")
	case "first_team":
		return s.HasTool("TeamCreate")
	case "team_communicator":
		return s.HasTool("SendMessage")
	}
	return false
}
