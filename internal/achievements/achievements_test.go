package achievements

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/kudos/internal/models"
	"github.com/dotcommander/kudos/internal/state"
)

func ev(kind models.EventKind, tool string) models.Event {
	return models.Event{Kind: kind, Tool: tool, SessionID: "s", TTYPath: "/dev/null"}
}

func ids(list []Achievement) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestRegistryHas24Achievements(t *testing.T) {
	require.Len(t, Registry, 24)
}

func TestRegistryEntriesAreComplete(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range Registry {
		require.NotEmpty(t, a.ID)
		require.NotEmpty(t, a.Name)
		require.NotEmpty(t, a.Description)
		require.False(t, seen[a.ID], "duplicate id %s", a.ID)
		seen[a.ID] = true
	}
}

func TestFirstCommitUnlocks(t *testing.T) {
	s := state.New()
	s.CommitsTotal = 1

	unlocked := Check(s, ev(models.EventGitCommit, ""), nil)
	require.Contains(t, ids(unlocked), "first_commit")
}

func TestStreak5UnlocksAtFiveDays(t *testing.T) {
	s := state.New()
	s.CommitStreakDays = 5

	unlocked := Check(s, ev(models.EventGitCommit, ""), nil)
	require.Contains(t, ids(unlocked), "streak_5")
}

func TestAlreadyUnlockedNeverReturnedAgain(t *testing.T) {
	s := state.New()
	s.CommitsTotal = 1
	s.UnlockAchievement("first_commit")

	unlocked := Check(s, ev(models.EventGitCommit, ""), nil)
	require.NotContains(t, ids(unlocked), "first_commit")

	// Repeated evaluation with unchanged state stays empty for that id.
	unlocked = Check(s, ev(models.EventGitCommit, ""), nil)
	require.NotContains(t, ids(unlocked), "first_commit")
}

func TestFirstPushUnlocksOnPushEvent(t *testing.T) {
	s := state.New()
	unlocked := Check(s, ev(models.EventGitPush, ""), nil)
	require.Contains(t, ids(unlocked), "first_push")

	unlocked = Check(s, ev(models.EventGitCommit, ""), nil)
	require.NotContains(t, ids(unlocked), "first_push")
}

func TestTestWhisperer_RequiresRecordedFailureBeforeSuccess(t *testing.T) {
	s := state.New()
	e := models.Event{
		Kind: models.EventPostToolUse, Tool: models.ToolBash,
		SessionID: "s", TTYPath: "/dev/null",
		Metadata: map[string]any{"exit_code": float64(0)},
	}

	prevFail := 2
	unlocked := Check(s, e, &prevFail)
	require.Contains(t, ids(unlocked), "test_whisperer")
}

func TestTestWhisperer_FirstEverSuccessDoesNotUnlock(t *testing.T) {
	s := state.New()
	e := models.Event{
		Kind: models.EventPostToolUse, Tool: models.ToolBash,
		SessionID: "s", TTYPath: "/dev/null",
		Metadata: map[string]any{"exit_code": float64(0)},
	}

	// No prior exit status recorded.
	unlocked := Check(s, e, nil)
	require.NotContains(t, ids(unlocked), "test_whisperer")

	// Prior success is not a recovery either.
	prevOK := 0
	unlocked = Check(s, e, &prevOK)
	require.NotContains(t, ids(unlocked), "test_whisperer")
}

func TestToolExplorerAtFiveTools(t *testing.T) {
	s := state.New()
	for _, tool := range []string{"Bash", "Read", "Write", "Glob", "Task"} {
		s.RecordToolUse(tool)
	}

	unlocked := Check(s, ev(models.EventPostToolUse, "Task"), nil)
	require.Contains(t, ids(unlocked), "tool_explorer")
	require.NotContains(t, ids(unlocked), "tool_master")
}

func TestFirstSubagentUnlocksOnTaskTool(t *testing.T) {
	s := state.New()
	s.RecordToolUse("Task")

	unlocked := Check(s, ev(models.EventPostToolUse, "Task"), nil)
	require.Contains(t, ids(unlocked), "first_subagent")
}

func TestMCPPioneerMatchesPrefix(t *testing.T) {
	s := state.New()
	s.RecordToolUse("mcp__github__search")

	unlocked := Check(s, ev(models.EventPostToolUse, "mcp__github__search"), nil)
	require.Contains(t, ids(unlocked), "mcp_pioneer")
}

func TestLevelAchievements(t *testing.T) {
	s := state.New()
	s.AddXP(100) // level 2

	unlocked := Check(s, ev(models.EventTaskCompleted, ""), nil)
	require.Contains(t, ids(unlocked), "level_2")
	require.NotContains(t, ids(unlocked), "level_3")
}

func TestCheckReturnsRegistryOrder(t *testing.T) {
	s := state.New()
	s.CommitsTotal = 10
	s.CommitStreakDays = 5

	unlocked := ids(Check(s, ev(models.EventGitCommit, ""), nil))
	// first_commit precedes commit_10 precedes streak_5, as in the registry.
	require.Equal(t, []string{"first_commit", "commit_10", "streak_5"}, unlocked)
}

func TestLookup(t *testing.T) {
	a, ok := Lookup("first_commit")
	require.True(t, ok)
	require.Equal(t, "First Commit", a.Name)

	_, ok = Lookup("nope")
	require.False(t, ok)
}
