package daemon

import (
	"time"
)

// SessionInfo is the in-memory record for one producer session. Sessions are
// not persisted: a daemon restart forgets them, which only costs duration
// milestones for sessions spanning the restart.
type SessionInfo struct {
	StartedAt time.Time
	Commits   int

	milestonesFired map[int]bool
}

// Tracker follows live sessions by session id. Not safe for concurrent use;
// the daemon serializes access under its state lock.
type Tracker struct {
	sessions map[string]*SessionInfo
	now      func() time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		sessions: map[string]*SessionInfo{},
		now:      time.Now,
	}
}

// Touch returns the session record for id, creating it on first sight.
// An empty id yields a throwaway record so callers need no special case.
func (t *Tracker) Touch(id string) *SessionInfo {
	if id == "" {
		return &SessionInfo{StartedAt: t.now(), milestonesFired: map[int]bool{}}
	}
	if s, ok := t.sessions[id]; ok {
		return s
	}
	s := &SessionInfo{StartedAt: t.now(), milestonesFired: map[int]bool{}}
	t.sessions[id] = s
	return s
}

// RecordCommit counts a commit against the session.
func (t *Tracker) RecordCommit(id string) {
	t.Touch(id).Commits++
}

// DurationMilestone reports a newly crossed session-duration milestone, in
// minutes. Each milestone fires once per session; top is true for the
// largest configured milestone. Returns hit=false when nothing new crossed.
func (t *Tracker) DurationMilestone(id string, milestones []int) (minutes int, top, hit bool) {
	if id == "" || len(milestones) == 0 {
		return 0, false, false
	}
	s := t.Touch(id)
	elapsed := int(t.now().Sub(s.StartedAt).Minutes())

	// Report the largest newly crossed milestone, marking all below it fired.
	for i := len(milestones) - 1; i >= 0; i-- {
		m := milestones[i]
		if elapsed < m || s.milestonesFired[m] {
			continue
		}
		for _, lower := range milestones {
			if lower <= m {
				s.milestonesFired[lower] = true
			}
		}
		return m, m == milestones[len(milestones)-1], true
	}
	return 0, false, false
}

// End removes the session and returns its final record.
func (t *Tracker) End(id string) (SessionInfo, bool) {
	s, ok := t.sessions[id]
	if !ok {
		return SessionInfo{}, false
	}
	delete(t.sessions, id)
	return *s, true
}

// Active returns the number of live sessions.
func (t *Tracker) Active() int {
	return len(t.sessions)
}
