package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventKind identifies the lifecycle event a hook reported. The set is
// closed: anything else fails validation and the message is dropped.
type EventKind string

// Event kinds sent by the hook scripts. Names match the Claude Code hook
// events they originate from, plus the git-hook kinds.
const (
	EventPostToolUse        EventKind = "PostToolUse"
	EventPostToolUseFailure EventKind = "PostToolUseFailure"
	EventTaskCompleted      EventKind = "TaskCompleted"
	EventSessionEnd         EventKind = "SessionEnd"
	EventGitCommit          EventKind = "GitCommit"
	EventGitPush            EventKind = "GitPush"
	EventUserDefined        EventKind = "UserDefined"
)

// Valid reports whether k is one of the known event kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventPostToolUse, EventPostToolUseFailure, EventTaskCompleted,
		EventSessionEnd, EventGitCommit, EventGitPush, EventUserDefined:
		return true
	}
	return false
}

// Tool names with special meaning to the decision engine.
const (
	ToolBash  = "Bash"
	ToolRead  = "Read"
	ToolWrite = "Write"
	ToolEdit  = "Edit"
)

// Event is one inbound occurrence from a producer. Immutable once parsed;
// consumed by the daemon, never persisted itself.
type Event struct {
	Kind      EventKind      `json:"event"`
	Tool      string         `json:"tool,omitempty"`
	SessionID string         `json:"session_id"`
	TTYPath   string         `json:"tty_path"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ParseEvent decodes and validates a single event message.
func ParseEvent(line []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(line, &e); err != nil {
		return Event{}, fmt.Errorf("parse event: %w", err)
	}
	if !e.Kind.Valid() {
		return Event{}, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return e, nil
}

// ExitCode extracts the exit_code metadata field, if present.
// JSON numbers arrive as float64; integer strings are not accepted.
func (e Event) ExitCode() (int, bool) {
	v, ok := e.Metadata["exit_code"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// CommandText extracts the command metadata field (raw command line for
// Bash-style tools), or "" when absent.
func (e Event) CommandText() string {
	s, _ := e.Metadata["command"].(string)
	return s
}

// IsBashSuccess reports whether this is a successful Bash completion.
func (e Event) IsBashSuccess() bool {
	if e.Kind != EventPostToolUse || e.Tool != ToolBash {
		return false
	}
	code, ok := e.ExitCode()
	return ok && code == 0
}

// Command is a synchronous daemon query. Distinguished from events by the
// presence of the "cmd" key.
type Command struct {
	Cmd string `json:"cmd"`
}

// Daemon command names.
const (
	CmdStatus = "status"
	CmdStats  = "stats"
)

// ParseCommand decodes a command message. Returns false when the line is not
// a command (so it can be retried as an event).
func ParseCommand(line []byte) (Command, bool) {
	var c Command
	if err := json.Unmarshal(line, &c); err != nil {
		return Command{}, false
	}
	if c.Cmd != CmdStatus && c.Cmd != CmdStats {
		return Command{}, false
	}
	return c, true
}

// Response is the synchronous reply to a Command.
type Response struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

// Intensity is the ordinal celebration level: Off < Mini < Medium < Epic.
type Intensity int

// Celebration intensities.
const (
	IntensityOff Intensity = iota
	IntensityMini
	IntensityMedium
	IntensityEpic
)

var intensityNames = map[Intensity]string{
	IntensityOff:    "off",
	IntensityMini:   "mini",
	IntensityMedium: "medium",
	IntensityEpic:   "epic",
}

func (i Intensity) String() string {
	if s, ok := intensityNames[i]; ok {
		return s
	}
	return "off"
}

// ParseIntensity maps a lowercase config string to an Intensity.
// Unknown values come back as Off with ok=false.
func ParseIntensity(s string) (Intensity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off":
		return IntensityOff, true
	case "mini":
		return IntensityMini, true
	case "medium":
		return IntensityMedium, true
	case "epic":
		return IntensityEpic, true
	}
	return IntensityOff, false
}

// Upgrade returns the higher of i and floor. Upgrades never downgrade.
func (i Intensity) Upgrade(floor Intensity) Intensity {
	if floor > i {
		return floor
	}
	return i
}

// MarshalJSON encodes the intensity as its lowercase name.
func (i Intensity) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

// UnmarshalJSON accepts the lowercase names; unknown values are an error.
func (i *Intensity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, ok := ParseIntensity(s)
	if !ok {
		return fmt.Errorf("unknown intensity %q", s)
	}
	*i = v
	return nil
}

// UnmarshalYAML accepts the lowercase names from config.yaml.
func (i *Intensity) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, ok := ParseIntensity(s)
	if !ok {
		return fmt.Errorf("unknown intensity %q", s)
	}
	*i = v
	return nil
}

// MarshalYAML encodes the intensity as its lowercase name.
func (i Intensity) MarshalYAML() (any, error) {
	return i.String(), nil
}
