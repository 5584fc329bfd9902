package render

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sys/unix"

	"github.com/dotcommander/kudos/internal/app"
	"github.com/dotcommander/kudos/internal/models"
	"github.com/dotcommander/kudos/internal/state"
)

// settleDelay gives the producing tool a moment to finish its own terminal
// output before we start drawing over it.
const settleDelay = 200 * time.Millisecond

// Terminal control sequences. Cursor save/restore bracket every transient
// draw; the alternate screen isolates the epic animation.
const (
	saveCursor    = "\x1b7"
	restoreCursor = "\x1b8"
	clearLine     = "\x1b[2K"
	clearScreen   = "\x1b[2J"
	hideCursor    = "\x1b[?25l"
	showCursor    = "\x1b[?25h"
	enterAltBuf   = "\x1b[?1049h"
	leaveAltBuf   = "\x1b[?1049l"
	resetAttrs    = "\x1b[0m"
)

var confettiChars = []rune{'✦', '★', '♦', '●', '*', '+', '#', '✿', '❋'}

var confettiColors = []lipgloss.Color{"1", "2", "3", "4", "5", "6", "7"}

// Renderer draws celebrations. All entry points are best-effort: failures
// are swallowed and the terminal is restored on every exit path.
type Renderer struct {
	visual app.VisualSettings
	coord  *Coordinator

	settle time.Duration
	sleep  func(time.Duration)
	open   func(path string) (*os.File, error)
	size   func(f *os.File) (cols, rows int)
}

// New returns a renderer sharing the given coordinator.
func New(visual app.VisualSettings, coord *Coordinator) *Renderer {
	return &Renderer{
		visual: visual,
		coord:  coord,
		settle: settleDelay,
		sleep:  time.Sleep,
		open:   openTTY,
		size:   ttySize,
	}
}

// Celebrate draws the effect for an intensity on the target terminal.
// Returns false when the request was dropped by the cooldown. I/O errors are
// never propagated: celebration is best-effort by contract.
func (r *Renderer) Celebrate(ttyPath string, intensity models.Intensity, snapshot *state.State, achievement string) bool {
	if intensity <= models.IntensityMini {
		// Mini is a silent XP gain; nothing to draw, nothing to lock.
		return intensity == models.IntensityMini
	}
	if !r.coord.TryAcquire() {
		return false
	}
	defer r.coord.Release()

	r.sleep(r.settle)

	tty, err := r.open(ttyPath)
	if err != nil {
		return false
	}
	defer func() { _ = tty.Close() }()

	cols, rows := r.size(tty)

	switch intensity {
	case models.IntensityMedium:
		r.toast(tty, rows, snapshot, achievement)
	case models.IntensityEpic:
		r.epic(tty, cols, rows, snapshot, achievement)
	}
	return true
}

// toast draws a transient status line on the terminal's bottom row.
func (r *Renderer) toast(w io.Writer, rows int, s *state.State, achievement string) {
	re := lipgloss.NewRenderer(w)

	var msg string
	if achievement != "" {
		style := re.NewStyle().Foreground(lipgloss.Color("3"))
		msg = style.Render(fmt.Sprintf(" 🏆 %s │ %s │ %d XP ", achievement, s.LevelName, s.XP))
	} else {
		style := re.NewStyle().Foreground(lipgloss.Color("6"))
		bar := ProgressBar(s, 15)
		msg = style.Render(fmt.Sprintf(" ⚡ %s │ %s │ %d XP ", s.LevelName, bar, s.XP))
	}

	fmt.Fprintf(w, "%s\x1b[%d;1H%s%s%s", saveCursor, rows, clearLine, msg, restoreCursor)

	hold := 1500 * time.Millisecond
	if achievement != "" {
		hold = 2500 * time.Millisecond
	}
	r.sleep(hold)

	fmt.Fprintf(w, "%s\x1b[%d;1H%s%s", saveCursor, rows, clearLine, restoreCursor)
}

// epic runs the two-phase animation on the alternate screen buffer. The
// deferred teardown restores the buffer and cursor even when a write fails
// partway through.
func (r *Renderer) epic(w io.Writer, cols, rows int, s *state.State, achievement string) {
	fmt.Fprint(w, enterAltBuf, hideCursor)
	defer fmt.Fprint(w, showCursor, leaveAltBuf, resetAttrs)

	if r.visual.Confetti {
		r.confetti(w, cols, rows, time.Duration(r.visual.ConfettiDurationMS)*time.Millisecond)
	}
	if r.visual.SplashScreen {
		title := achievement
		if title == "" {
			title = "ACHIEVEMENT UNLOCKED!"
		}
		r.splash(w, cols, rows, s, title, time.Duration(r.visual.SplashDurationMS)*time.Millisecond)
	}
}

// confetti scatters colored glyphs over the alternate screen.
func (r *Renderer) confetti(w io.Writer, cols, rows int, total time.Duration) {
	re := lipgloss.NewRenderer(w)
	styles := make([]lipgloss.Style, len(confettiColors))
	for i, c := range confettiColors {
		styles[i] = re.NewStyle().Foreground(c)
	}

	const frames = 15
	frameTime := total / frames
	for range frames {
		var b strings.Builder
		for range cols / 4 {
			col := rand.IntN(cols) + 1
			row := rand.IntN(max(rows-2, 1)) + 1
			ch := confettiChars[rand.IntN(len(confettiChars))]
			style := styles[rand.IntN(len(styles))]
			fmt.Fprintf(&b, "\x1b[%d;%dH%s", row, col, style.Render(string(ch)))
		}
		fmt.Fprint(w, b.String())
		r.sleep(frameTime)
	}
}

// splash draws the centered bordered summary panel.
func (r *Renderer) splash(w io.Writer, cols, rows int, s *state.State, title string, hold time.Duration) {
	re := lipgloss.NewRenderer(w)
	borderStyle := re.NewStyle().Foreground(lipgloss.Color("3"))
	titleStyle := re.NewStyle().Foreground(lipgloss.Color("2"))
	statsStyle := re.NewStyle().Foreground(lipgloss.Color("6"))

	inner := max(cols-2, 10)
	mid := rows / 2
	stats := fmt.Sprintf("Lvl %d %s ✦ %d XP", s.Level, s.LevelName, s.XP)

	lines := []struct {
		row  int
		text string
	}{
		{mid - 3, borderStyle.Render("╔" + strings.Repeat("═", inner) + "╗")},
		{mid - 2, borderStyle.Render("║" + strings.Repeat(" ", inner) + "║")},
		{mid - 1, borderStyle.Render("║") + titleStyle.Render(center(title, inner)) + borderStyle.Render("║")},
		{mid, borderStyle.Render("║") + statsStyle.Render(center(stats, inner)) + borderStyle.Render("║")},
		{mid + 1, borderStyle.Render("║" + strings.Repeat(" ", inner) + "║")},
		{mid + 2, borderStyle.Render("╚" + strings.Repeat("═", inner) + "╝")},
	}

	fmt.Fprint(w, clearScreen)
	for _, l := range lines {
		if l.row < 1 {
			continue
		}
		fmt.Fprintf(w, "\x1b[%d;1H%s", l.row, l.text)
	}
	r.sleep(hold)
}

func center(s string, width int) string {
	if len([]rune(s)) >= width {
		return string([]rune(s)[:width])
	}
	pad := width - len([]rune(s))
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

func openTTY(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY, 0) //nolint:gosec // G304: tty path supplied by the hook producer
}

// ttySize queries the terminal size, falling back to 80x24.
func ttySize(f *os.File) (cols, rows int) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 {
		return 80, 24
	}
	return int(ws.Col), int(ws.Row)
}
