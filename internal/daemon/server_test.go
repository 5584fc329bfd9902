package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/kudos/internal/app"
	"github.com/dotcommander/kudos/internal/audio"
	"github.com/dotcommander/kudos/internal/history"
	"github.com/dotcommander/kudos/internal/models"
	"github.com/dotcommander/kudos/internal/render"
	"github.com/dotcommander/kudos/internal/state"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	settings := app.DefaultSettings()
	settings.Audio.Enabled = false

	renderer := render.New(settings.Visual, render.NewCoordinator(render.DefaultCooldown))
	player := audio.NewPlayer(settings.Audio, filepath.Join(dir, "sounds"))

	return New(settings,
		filepath.Join(dir, "kudos.sock"),
		filepath.Join(dir, "state.json"),
		renderer, player, nil)
}

func bashEvent(exitCode int, command string) models.Event {
	return models.Event{
		Kind:      models.EventPostToolUse,
		Tool:      models.ToolBash,
		SessionID: "sess-1",
		Metadata:  map[string]any{"exit_code": float64(exitCode), "command": command},
	}
}

func TestApplyEvent_FreshCommit(t *testing.T) {
	s := newTestServer(t)

	out := s.applyEvent(models.Event{Kind: models.EventGitCommit, SessionID: "sess-1"})

	// A commit is a milestone and first_commit unlocks.
	require.Equal(t, models.IntensityMedium, out.intensity)
	require.Equal(t, 25, out.xpAwarded)
	require.Equal(t, 1, out.snapshot.CommitsTotal)
	require.Equal(t, 1, out.snapshot.CommitStreakDays)
	require.Len(t, out.unlocked, 1)
	require.Equal(t, "first_commit", out.unlocked[0].ID)
	require.False(t, out.streakMilestone)

	// Durable state hit the disk.
	loaded := state.Load(s.statePath)
	require.Equal(t, 25, loaded.XP)
	require.Equal(t, 1, loaded.CommitsTotal)
}

func TestApplyEvent_StreakMilestoneGoesEpic(t *testing.T) {
	s := newTestServer(t)
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.state.CommitStreakDays = 4
	s.state.CommitsTotal = 4
	s.state.LastCommitDate = now.AddDate(0, 0, -1).Format(state.DateLayout)
	s.state.UnlockAchievement("first_commit")

	out := s.applyEvent(models.Event{Kind: models.EventGitCommit, SessionID: "sess-1"})

	require.Equal(t, models.IntensityEpic, out.intensity)
	require.True(t, out.streakMilestone)
	require.Equal(t, 5, out.snapshot.CommitStreakDays)
	// Epic base 100, doubled by the five-day streak bonus.
	require.Equal(t, 200, out.xpAwarded)
	require.Contains(t, out.snapshot.AchievementsUnlocked, "streak_5")
}

func TestApplyEvent_BashRecoveryIsBreakthrough(t *testing.T) {
	s := newTestServer(t)

	out := s.applyEvent(bashEvent(2, "go test ./..."))
	require.Equal(t, models.IntensityOff, out.intensity)
	require.Zero(t, out.xpAwarded)
	require.NotNil(t, out.snapshot.LastBashExit)
	require.Equal(t, 2, *out.snapshot.LastBashExit)

	out = s.applyEvent(bashEvent(0, "go test ./..."))
	require.Equal(t, models.IntensityEpic, out.intensity)
	require.Equal(t, 100, out.xpAwarded)
	require.Contains(t, out.snapshot.AchievementsUnlocked, "test_whisperer")
	require.Equal(t, 0, *out.snapshot.LastBashExit)
}

func TestApplyEvent_SuccessAfterSuccessIsRoutine(t *testing.T) {
	s := newTestServer(t)

	s.applyEvent(bashEvent(0, "ls"))
	out := s.applyEvent(bashEvent(0, "ls"))

	// Routine defaults to off: no XP, no celebration, but the tool counts.
	require.Equal(t, models.IntensityOff, out.intensity)
	require.Zero(t, out.xpAwarded)
	require.True(t, out.snapshot.HasTool(models.ToolBash))
}

func TestApplyEvent_CustomTriggerWins(t *testing.T) {
	s := newTestServer(t)
	s.settings.Triggers.Custom = []app.CustomTrigger{
		{Name: "deploy", Pattern: "make deploy", Intensity: models.IntensityEpic},
	}

	out := s.applyEvent(bashEvent(0, "make deploy PROD=1"))
	require.Equal(t, models.IntensityEpic, out.intensity)
	require.Equal(t, 100, out.xpAwarded)
}

func TestApplyEvent_SessionEndWithCommitsGoesEpic(t *testing.T) {
	s := newTestServer(t)

	s.applyEvent(models.Event{Kind: models.EventGitCommit, SessionID: "sess-1"})
	out := s.applyEvent(models.Event{Kind: models.EventSessionEnd, SessionID: "sess-1"})

	require.Equal(t, models.IntensityEpic, out.intensity)
	require.Equal(t, 1, out.snapshot.SessionsTotal)
	require.Zero(t, s.tracker.Active())
}

func TestApplyEvent_SessionEndWithoutCommits(t *testing.T) {
	s := newTestServer(t)

	s.applyEvent(bashEvent(0, "ls"))
	out := s.applyEvent(models.Event{Kind: models.EventSessionEnd, SessionID: "sess-1"})

	// Plain session end is a milestone, nothing more.
	require.Equal(t, models.IntensityMedium, out.intensity)
	require.Equal(t, 1, out.snapshot.SessionsTotal)
}

func TestApplyEvent_DurationMilestoneUpgrades(t *testing.T) {
	s := newTestServer(t)
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	now := start
	s.now = func() time.Time { return now }
	s.tracker.now = func() time.Time { return now }

	s.applyEvent(bashEvent(0, "ls"))

	now = start.Add(61 * time.Minute)
	out := s.applyEvent(bashEvent(0, "ls"))
	// Routine off, upgraded to medium by the one-hour session milestone.
	require.Equal(t, models.IntensityMedium, out.intensity)
	require.Equal(t, 25, out.xpAwarded)
}

func TestApplyEvent_AchievementUpgradesToMedium(t *testing.T) {
	s := newTestServer(t)

	// Tool explorer unlocks at five distinct tools.
	s.applyEvent(models.Event{Kind: models.EventPostToolUse, Tool: models.ToolRead, SessionID: "s"})
	s.applyEvent(models.Event{Kind: models.EventPostToolUse, Tool: models.ToolWrite, SessionID: "s"})
	s.applyEvent(models.Event{Kind: models.EventPostToolUse, Tool: models.ToolEdit, SessionID: "s"})
	s.applyEvent(models.Event{Kind: models.EventPostToolUse, Tool: "Glob", SessionID: "s"})
	out := s.applyEvent(bashEvent(0, "ls"))

	require.Contains(t, out.snapshot.AchievementsUnlocked, "tool_explorer")
	// The unlock raises the celebration but XP stays with the decided
	// intensity (routine, off by default).
	require.Equal(t, models.IntensityMedium, out.intensity)
	require.Zero(t, out.xpAwarded)
}

func TestApplyEvent_FailureEventIsSilent(t *testing.T) {
	s := newTestServer(t)

	out := s.applyEvent(models.Event{Kind: models.EventPostToolUseFailure, Tool: models.ToolBash, SessionID: "s"})
	require.Equal(t, models.IntensityOff, out.intensity)
	require.Zero(t, out.xpAwarded)
}

func TestRecord_WritesLedgerRow(t *testing.T) {
	s := newTestServer(t)
	db, err := history.OpenPath(filepath.Join(t.TempDir(), "kudos.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	s.db = db

	e := models.Event{Kind: models.EventGitCommit, SessionID: "sess-1"}
	out := s.applyEvent(e)
	s.record(e, out)

	rows, err := history.Recent(db, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "GitCommit", rows[0].Kind)
	require.Equal(t, "medium", rows[0].Intensity)
	require.Equal(t, 25, rows[0].XPAwarded)
	require.Equal(t, "first_commit", rows[0].Achievement)
}

func TestRecord_SkipsSilentOutcomes(t *testing.T) {
	s := newTestServer(t)
	db, err := history.OpenPath(filepath.Join(t.TempDir(), "kudos.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	s.db = db

	e := bashEvent(1, "false")
	out := s.applyEvent(e)
	s.record(e, out)

	n, err := history.Count(db)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestServer_SocketRoundTrip(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Wait for the socket to appear.
	require.Eventually(t, func() bool {
		_, err := os.Stat(s.socketPath)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	// Fire an event.
	conn, err := net.Dial("unix", s.socketPath)
	require.NoError(t, err)
	_, err = conn.Write([]byte(`{"event":"GitCommit","session_id":"sess-1"}` + "\n"))
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	// The event is fire-and-forget; poll status until it lands.
	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", s.socketPath)
		if err != nil {
			return false
		}
		defer func() { _ = conn.Close() }()
		if _, err := conn.Write([]byte(`{"cmd":"status"}` + "\n")); err != nil {
			return false
		}
		line, err := bufio.NewReader(conn).ReadBytes('\n')
		if err != nil {
			return false
		}
		var resp struct {
			OK   bool       `json:"ok"`
			Data StatusData `json:"data"`
		}
		if err := json.Unmarshal(line, &resp); err != nil {
			return false
		}
		return resp.OK && resp.Data.Running && resp.Data.XP == 25
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	_, err = os.Stat(s.socketPath)
	require.True(t, os.IsNotExist(err))
}

func TestServer_StatsCommand(t *testing.T) {
	s := newTestServer(t)
	s.applyEvent(models.Event{Kind: models.EventGitCommit, SessionID: "sess-1"})

	data := s.statsData()
	require.Equal(t, 25, data.State.XP)
	require.Equal(t, 100, data.NextLevelXP)
	require.Len(t, data.Achievements, 24)

	unlocked := map[string]bool{}
	for _, a := range data.Achievements {
		unlocked[a.ID] = a.Unlocked
	}
	require.True(t, unlocked["first_commit"])
	require.False(t, unlocked["first_push"])
}

func TestHandleConn_MalformedLineDropped(t *testing.T) {
	s := newTestServer(t)

	client, server := net.Pipe()
	go func() {
		_, _ = client.Write([]byte("not json\n"))
		_ = client.Close()
	}()
	s.handleConn(server)

	require.Zero(t, s.state.XP)
}

func TestHandleConn_UnknownEventKindDropped(t *testing.T) {
	s := newTestServer(t)

	client, server := net.Pipe()
	go func() {
		_, _ = client.Write([]byte(`{"event":"Mystery"}` + "\n"))
		_ = client.Close()
	}()
	s.handleConn(server)

	require.Zero(t, s.state.XP)
}
