// Package daemon runs the unix-socket server that turns producer events
// into XP, achievements and celebrations. All state mutation happens under a
// single lock; rendering and audio run after the lock is released so slow
// terminals never block producers.
package daemon

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/kudos/internal/achievements"
	"github.com/dotcommander/kudos/internal/app"
	"github.com/dotcommander/kudos/internal/audio"
	"github.com/dotcommander/kudos/internal/celebrate"
	"github.com/dotcommander/kudos/internal/history"
	"github.com/dotcommander/kudos/internal/models"
	"github.com/dotcommander/kudos/internal/render"
	"github.com/dotcommander/kudos/internal/state"
)

// connReadTimeout bounds how long a producer may take to deliver its line.
const connReadTimeout = 5 * time.Second

// maxLineBytes caps a single inbound message.
const maxLineBytes = 64 * 1024

// Server owns the durable state and the socket. Construct with New.
type Server struct {
	settings   app.Settings
	socketPath string
	statePath  string

	mu      sync.Mutex
	state   *state.State
	tracker *Tracker

	renderer *render.Renderer
	player   *audio.Player
	db       *sql.DB // nil when the history ledger is disabled

	startedAt time.Time
	now       func() time.Time
	logger    *slog.Logger
}

// New assembles a server. db may be nil to disable the celebration ledger.
func New(settings app.Settings, socketPath, statePath string, renderer *render.Renderer, player *audio.Player, db *sql.DB) *Server {
	return &Server{
		settings:   settings,
		socketPath: socketPath,
		statePath:  statePath,
		state:      state.Load(statePath),
		tracker:    NewTracker(),
		renderer:   renderer,
		player:     player,
		db:         db,
		startedAt:  time.Now(),
		now:        time.Now,
		logger:     slog.Default(),
	}
}

// Run listens on the unix socket until ctx is cancelled. A stale socket file
// from a previous run is removed before binding.
func (s *Server) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o750); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	_ = os.Remove(s.socketPath)

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	// The socket carries no secrets but is still per-user.
	_ = os.Chmod(s.socketPath, 0o600)
	s.logger.Info("daemon listening", "socket", s.socketPath)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		_ = ln.Close()
		return ctx.Err()
	})
	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				return fmt.Errorf("accept: %w", err)
			}
			go s.handleConn(conn)
		}
	})

	err = g.Wait()
	_ = os.Remove(s.socketPath)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// handleConn reads one newline-terminated JSON message and dispatches it.
// Commands get a synchronous reply; events are fire-and-forget.
func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	_ = conn.SetReadDeadline(time.Now().Add(connReadTimeout))

	r := bufio.NewReader(io.LimitReader(conn, maxLineBytes))
	line, err := r.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return
	}

	if cmd, ok := models.ParseCommand(line); ok {
		s.reply(conn, cmd)
		return
	}

	e, err := models.ParseEvent(line)
	if err != nil {
		// Malformed producers are dropped silently; log for diagnosis.
		s.logger.Debug("dropped message", "err", err)
		return
	}
	s.handleEvent(e)
}

// reply answers a synchronous command on the same connection.
func (s *Server) reply(conn net.Conn, cmd models.Command) {
	var data any
	switch cmd.Cmd {
	case models.CmdStatus:
		data = s.statusData()
	case models.CmdStats:
		data = s.statsData()
	}
	b, err := json.Marshal(models.Response{OK: true, Data: data})
	if err != nil {
		return
	}
	b = append(b, '\n')
	_, _ = conn.Write(b)
}

// StatusData is the reply payload for the status command.
type StatusData struct {
	Running        bool   `json:"running"`
	XP             int    `json:"xp"`
	Level          int    `json:"level"`
	LevelName      string `json:"level_name"`
	UptimeSeconds  int    `json:"uptime_seconds"`
	ActiveSessions int    `json:"active_sessions"`
}

func (s *Server) statusData() StatusData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatusData{
		Running:        true,
		XP:             s.state.XP,
		Level:          s.state.Level,
		LevelName:      s.state.LevelName,
		UptimeSeconds:  int(time.Since(s.startedAt).Seconds()),
		ActiveSessions: s.tracker.Active(),
	}
}

// AchievementStatus pairs a registry entry with its unlock state.
type AchievementStatus struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// StatsData is the reply payload for the stats command.
type StatsData struct {
	State             *state.State        `json:"state"`
	NextLevelXP       int                 `json:"next_level_xp"`
	CelebrationsTotal int                 `json:"celebrations_total"`
	Achievements      []AchievementStatus `json:"achievements"`
}

func (s *Server) statsData() StatsData {
	s.mu.Lock()
	snapshot := s.state.Clone()
	s.mu.Unlock()

	var celebrations int
	if s.db != nil {
		if n, err := history.Count(s.db); err == nil {
			celebrations = n
		}
	}

	list := make([]AchievementStatus, 0, len(achievements.Registry))
	for _, a := range achievements.Registry {
		list = append(list, AchievementStatus{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Unlocked:    snapshot.Unlocked(a.ID),
		})
	}
	return StatsData{
		State:             snapshot,
		NextLevelXP:       state.NextLevelXP(snapshot.Level),
		CelebrationsTotal: celebrations,
		Achievements:      list,
	}
}

// outcome is everything handleEvent computed under the lock that the
// off-lock celebration dispatch needs.
type outcome struct {
	intensity       models.Intensity
	xpAwarded       int
	unlocked        []achievements.Achievement
	streakMilestone bool
	snapshot        *state.State
}

// handleEvent runs the full pipeline for one event: decide, mutate, award,
// persist under the lock; then celebrate off-lock.
func (s *Server) handleEvent(e models.Event) {
	out := s.applyEvent(e)
	s.record(e, out)
	go s.celebrateOutcome(e, out)
}

// applyEvent is the single-lock critical section.
func (s *Server) applyEvent(e models.Event) outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	// The breakthrough and recovery rules compare against the exit status
	// recorded before this event, so capture it before any mutation.
	var prevBashExit *int
	if s.state.LastBashExit != nil {
		v := *s.state.LastBashExit
		prevBashExit = &v
	}

	intensity := celebrate.Decide(e, s.state, s.settings)

	var streakMilestone bool
	switch e.Kind {
	case models.EventGitCommit:
		res := s.state.RecordCommit(now, s.settings.StreakMilestones)
		if res.HitMilestone {
			streakMilestone = true
			intensity = intensity.Upgrade(models.IntensityEpic)
		}
		s.tracker.RecordCommit(e.SessionID)
	case models.EventPostToolUse:
		if e.Tool != "" {
			s.state.RecordToolUse(e.Tool)
		}
	case models.EventSessionEnd:
		s.state.SessionsTotal++
		if info, ok := s.tracker.End(e.SessionID); ok && info.Commits >= 1 {
			// A session that shipped at least one commit goes out big.
			intensity = intensity.Upgrade(models.IntensityEpic)
		}
	}

	// Long-session milestones upgrade whatever the event decided.
	if e.Kind != models.EventSessionEnd && e.SessionID != "" {
		if m, top, hit := s.tracker.DurationMilestone(e.SessionID, s.settings.SessionMilestones); hit {
			s.logger.Info("session milestone", "session", e.SessionID, "minutes", m)
			if top {
				intensity = intensity.Upgrade(models.IntensityEpic)
			} else {
				intensity = intensity.Upgrade(models.IntensityMedium)
			}
		}
	}

	xp := celebrate.XPForEvent(intensity, s.state)
	s.state.AddXP(xp)

	// Achievements see the post-mutation counters but the pre-event bash
	// exit status.
	unlocked := achievements.Check(s.state, e, prevBashExit)
	for _, a := range unlocked {
		s.state.UnlockAchievement(a.ID)
		s.logger.Info("achievement unlocked", "id", a.ID, "name", a.Name)
	}
	if len(unlocked) > 0 {
		intensity = intensity.Upgrade(models.IntensityMedium)
	}

	if e.Kind == models.EventPostToolUse && e.Tool == models.ToolBash {
		if code, ok := e.ExitCode(); ok {
			s.state.LastBashExit = &code
		}
	}
	s.state.LastEventAt = &now

	if err := s.state.Save(s.statePath); err != nil {
		s.logger.Error("state save failed", "err", err, "path", s.statePath)
	}

	return outcome{
		intensity:       intensity,
		xpAwarded:       xp,
		unlocked:        unlocked,
		streakMilestone: streakMilestone,
		snapshot:        s.state.Clone(),
	}
}

// record appends the outcome to the celebration ledger. Best-effort.
func (s *Server) record(e models.Event, out outcome) {
	if s.db == nil || (out.intensity == models.IntensityOff && out.xpAwarded == 0) {
		return
	}
	var achievement string
	if len(out.unlocked) > 0 {
		achievement = out.unlocked[0].ID
	}
	c := &history.Celebration{
		Kind:        string(e.Kind),
		Tool:        e.Tool,
		SessionID:   e.SessionID,
		Intensity:   out.intensity.String(),
		XPAwarded:   out.xpAwarded,
		XPTotal:     out.snapshot.XP,
		Achievement: achievement,
	}
	if err := history.Insert(s.db, c); err != nil {
		s.logger.Warn("ledger insert failed", "err", err)
	}
}

// celebrateOutcome plays the sound and draws the celebration. Runs off-lock
// in its own goroutine: a slow tty never delays the next event.
func (s *Server) celebrateOutcome(e models.Event, out outcome) {
	if out.intensity == models.IntensityOff {
		return
	}

	if kind, ok := audio.SelectSound(out.intensity, len(out.unlocked) > 0, out.streakMilestone); ok {
		s.player.Play(kind)
	}

	if e.TTYPath == "" {
		return
	}
	var achievement string
	if len(out.unlocked) > 0 {
		achievement = out.unlocked[0].Name
	}
	s.renderer.Celebrate(e.TTYPath, out.intensity, out.snapshot, achievement)
}
