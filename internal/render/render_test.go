package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/kudos/internal/app"
	"github.com/dotcommander/kudos/internal/models"
	"github.com/dotcommander/kudos/internal/state"
)

// testRenderer writes to a regular file instead of a tty and never sleeps.
func testRenderer(t *testing.T, coord *Coordinator) (*Renderer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tty")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	r := New(app.DefaultSettings().Visual, coord)
	r.settle = 0
	r.sleep = func(time.Duration) {}
	r.open = func(p string) (*os.File, error) {
		return os.OpenFile(p, os.O_WRONLY|os.O_APPEND, 0o600)
	}
	r.size = func(*os.File) (int, int) { return 80, 24 }
	return r, path
}

func TestCoordinator_SecondRequestWithinCooldownDropped(t *testing.T) {
	c := NewCoordinator(5 * time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.True(t, c.TryAcquire())
	c.Release()

	// 2s later: still cooling down.
	now = now.Add(2 * time.Second)
	require.False(t, c.TryAcquire())

	// 6s after release: allowed again.
	now = now.Add(4 * time.Second)
	require.True(t, c.TryAcquire())
	c.Release()
}

func TestCoordinator_BusySlotRejectsConcurrentRender(t *testing.T) {
	c := NewCoordinator(time.Second)
	require.True(t, c.TryAcquire())
	require.False(t, c.TryAcquire())
	c.Release()
}

func TestCoordinator_CooldownMeasuredFromRenderEnd(t *testing.T) {
	c := NewCoordinator(5 * time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.True(t, c.TryAcquire())
	now = now.Add(10 * time.Second) // long render
	c.Release()

	// Only 3s since the render *ended*.
	now = now.Add(3 * time.Second)
	require.False(t, c.TryAcquire())
}

func TestCelebrate_MiniDrawsNothing(t *testing.T) {
	coord := NewCoordinator(0)
	r, path := testRenderer(t, coord)

	s := state.New()
	require.True(t, r.Celebrate(path, models.IntensityMini, s, ""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestCelebrate_OffDoesNotTouchCoordinator(t *testing.T) {
	coord := NewCoordinator(time.Hour)
	r, path := testRenderer(t, coord)

	require.False(t, r.Celebrate(path, models.IntensityOff, state.New(), ""))
	// The slot must still be free.
	require.True(t, coord.TryAcquire())
	coord.Release()
}

func TestCelebrate_MediumDrawsToastWithLevelAndXP(t *testing.T) {
	coord := NewCoordinator(0)
	r, path := testRenderer(t, coord)

	s := state.New()
	s.AddXP(120)
	require.True(t, r.Celebrate(path, models.IntensityMedium, s, ""))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(out)
	require.Contains(t, text, "Prompt Whisperer")
	require.Contains(t, text, "120 XP")
	require.Contains(t, text, saveCursor)
	require.Contains(t, text, restoreCursor)
}

func TestCelebrate_MediumWithAchievementShowsTrophyLine(t *testing.T) {
	coord := NewCoordinator(0)
	r, path := testRenderer(t, coord)

	require.True(t, r.Celebrate(path, models.IntensityMedium, state.New(), "First Commit"))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(out), "First Commit")
}

func TestCelebrate_EpicRestoresScreenState(t *testing.T) {
	coord := NewCoordinator(0)
	r, path := testRenderer(t, coord)

	s := state.New()
	require.True(t, r.Celebrate(path, models.IntensityEpic, s, "Shipped It"))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(out)
	require.Contains(t, text, enterAltBuf)
	require.Contains(t, text, leaveAltBuf)
	require.Contains(t, text, hideCursor)
	require.Contains(t, text, showCursor)
	require.Contains(t, text, "Shipped It")
	// Teardown comes after setup.
	require.Greater(t, strings.Index(text, leaveAltBuf), strings.Index(text, enterAltBuf))
}

func TestCelebrate_DroppedByCooldownWritesNothing(t *testing.T) {
	coord := NewCoordinator(time.Hour)
	r, path := testRenderer(t, coord)

	require.True(t, r.Celebrate(path, models.IntensityMedium, state.New(), ""))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.False(t, r.Celebrate(path, models.IntensityMedium, state.New(), ""))
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestCelebrate_UnopenableTTYFailsSilently(t *testing.T) {
	coord := NewCoordinator(0)
	r, _ := testRenderer(t, coord)

	require.False(t, r.Celebrate(filepath.Join(t.TempDir(), "missing"), models.IntensityMedium, state.New(), ""))
	// Slot released afterwards.
	require.True(t, coord.TryAcquire())
	coord.Release()
}

func TestXPBar(t *testing.T) {
	require.Equal(t, strings.Repeat("░", 20), XPBar(0, 100, 20))
	require.Equal(t, strings.Repeat("█", 20), XPBar(100, 100, 20))

	half := XPBar(50, 100, 20)
	require.Equal(t, 10, strings.Count(half, "█"))
	require.Equal(t, 10, strings.Count(half, "░"))
	require.Len(t, []rune(half), 20)
}

func TestXPBar_OverfullClamps(t *testing.T) {
	require.Equal(t, strings.Repeat("█", 10), XPBar(250, 100, 10))
}

func TestProgressBar_MaxLevelIsFull(t *testing.T) {
	s := state.New()
	s.AddXP(90000)
	require.Equal(t, strings.Repeat("█", 8), ProgressBar(s, 8))
}

func TestCenter(t *testing.T) {
	require.Equal(t, "  ab  ", center("ab", 6))
	require.Equal(t, "abcdef"[:4], center("abcdef", 4))

	var buf bytes.Buffer
	buf.WriteString(center("x", 3))
	require.Equal(t, " x ", buf.String())
}
