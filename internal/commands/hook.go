package commands

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/kudos/internal/models"
)

// maxHookStdinBytes caps stdin reads. Hook payloads are small JSON objects;
// 1 MB is generous headroom that prevents unbounded allocation.
const maxHookStdinBytes = 1 << 20

// NewHookCmd creates the hook parent command.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Hook handlers and installers for Claude Code and git",
		Args:  cobra.NoArgs,
	}

	for _, sub := range newHookInstallCmds() {
		cmd.AddCommand(sub)
	}

	// Handler subcommands are called by the hook system, not people.
	// Hidden from help output to reduce command surface noise.
	for _, sub := range []*cobra.Command{
		newHookEventCmd("post-tool-use", models.EventPostToolUse),
		newHookEventCmd("post-tool-use-failure", models.EventPostToolUseFailure),
		newHookEventCmd("task-completed", models.EventTaskCompleted),
		newHookEventCmd("session-end", models.EventSessionEnd),
		newHookEventCmd("git-commit", models.EventGitCommit),
		newHookEventCmd("git-push", models.EventGitPush),
	} {
		sub.Hidden = true
		cmd.AddCommand(sub)
	}

	return cmd
}

// hookInput is the JSON Claude Code sends on stdin to hooks. Git hooks send
// nothing; every field is optional.
type hookInput struct {
	SessionID     string          `json:"session_id"`
	HookEventName string          `json:"hook_event_name"`
	ToolName      string          `json:"tool_name"`
	ToolInput     json.RawMessage `json:"tool_input"`
	ToolResponse  json.RawMessage `json:"tool_response"`
}

func newHookEventCmd(use string, kind models.EventKind) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: "Forward a " + string(kind) + " event to the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := readHookStdin(cmd.InOrStdin())
			e := buildEvent(kind, input)
			e.TTYPath = discoverTTY()
			// Never fail the producing tool over a celebration.
			if err := sendEvent(e); err != nil {
				slog.Default().Warn("event not delivered", "kind", kind, "err", err)
			}
			return nil
		},
	}
}

func readHookStdin(r io.Reader) hookInput {
	data, err := io.ReadAll(io.LimitReader(r, maxHookStdinBytes))
	if err != nil || len(data) == 0 {
		return hookInput{}
	}
	var input hookInput
	if err := json.Unmarshal(data, &input); err != nil {
		slog.Default().Warn("hook stdin unmarshal failed", "error", err, "bytes", len(data))
	}
	return input
}

// buildEvent converts the hook payload into a daemon event. Bash exit codes
// default to 0 when the tool response omits them: Claude Code only runs
// PostToolUse after a successful call.
func buildEvent(kind models.EventKind, input hookInput) models.Event {
	e := models.Event{
		Kind:      kind,
		Tool:      input.ToolName,
		SessionID: sessionID(input),
	}

	meta := map[string]any{}
	if len(input.ToolInput) > 0 {
		var ti struct {
			Command string `json:"command"`
		}
		if json.Unmarshal(input.ToolInput, &ti) == nil && ti.Command != "" {
			meta["command"] = ti.Command
		}
	}
	if kind == models.EventPostToolUse && input.ToolName == models.ToolBash {
		exitCode := 0
		if len(input.ToolResponse) > 0 {
			var tr struct {
				ExitCode *int `json:"exit_code"`
			}
			if json.Unmarshal(input.ToolResponse, &tr) == nil && tr.ExitCode != nil {
				exitCode = *tr.ExitCode
			}
		}
		meta["exit_code"] = exitCode
	}
	if len(meta) > 0 {
		e.Metadata = meta
	}
	return e
}

// sessionID prefers the hook payload, then the environment (set for git
// hooks spawned inside an agent session).
func sessionID(input hookInput) string {
	if input.SessionID != "" {
		return input.SessionID
	}
	if id := os.Getenv("KUDOS_SESSION_ID"); id != "" {
		return id
	}
	return os.Getenv("CLAUDE_SESSION_ID")
}
