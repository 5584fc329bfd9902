// Package hookcmd installs and removes the Claude Code hook entries that
// forward lifecycle events to the daemon. Separate from the main commands
// package so hook lifecycle management can evolve independently.
package hookcmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dotcommander/kudos/internal/output"
)

const kudosCommandFallback = "kudos"

//nolint:gochecknoglobals // sync.Once singleton cache for hook definitions
var (
	kudosHooksOnce  sync.Once
	kudosHooksCache map[string]hookEntry
)

type hookHandler struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout"`
}

type hookEntry struct {
	Matcher string        `json:"matcher"`
	Hooks   []hookHandler `json:"hooks"`
}

func claudeSettingsPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "settings.json")
}

func projectClaudeSettingsPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".", ".claude", "settings.json")
	}
	return filepath.Join(wd, ".claude", "settings.json")
}

func resolveClaudeSettingsPath(projectScoped bool) string {
	if projectScoped {
		return projectClaudeSettingsPath()
	}
	return claudeSettingsPath()
}

func kudosExecutable() string {
	exe, err := os.Executable()
	if err != nil || strings.TrimSpace(exe) == "" {
		return kudosCommandFallback
	}
	return exe
}

func buildKudosHookCommand(subcommand string) string {
	exe := kudosExecutable()
	if exe == kudosCommandFallback {
		return fmt.Sprintf("kudos hook %s", subcommand)
	}
	return fmt.Sprintf("%q hook %s", exe, subcommand)
}

func kudosHooks() map[string]hookEntry {
	kudosHooksOnce.Do(func() {
		kudosHooksCache = buildKudosHooks()
	})
	return kudosHooksCache
}

func buildKudosHooks() map[string]hookEntry {
	return map[string]hookEntry{
		"PostToolUse": {
			Matcher: "",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildKudosHookCommand("post-tool-use"),
				Timeout: 2000,
			}},
		},
		"PostToolUseFailure": {
			Matcher: "",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildKudosHookCommand("post-tool-use-failure"),
				Timeout: 2000,
			}},
		},
		"TaskCompleted": {
			Matcher: "",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildKudosHookCommand("task-completed"),
				Timeout: 2000,
			}},
		},
		"SessionEnd": {
			Matcher: "",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildKudosHookCommand("session-end"),
				Timeout: 3000,
			}},
		},
	}
}

func kudosHookEventNames() []string {
	events := make([]string, 0, len(kudosHooks()))
	for name := range kudosHooks() {
		events = append(events, name)
	}
	sort.Strings(events)
	return events
}

func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: settings path from the home dir
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]any) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// IsKudosHookCommand checks if a command string is one of our hook commands.
func IsKudosHookCommand(command string) bool {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return false
	}
	parts := strings.Fields(cmd)
	if len(parts) < 3 {
		return false
	}

	// Accept both the bare name and the absolute path install writes.
	execToken := strings.Trim(parts[0], "\"'")
	if filepath.Base(execToken) != "kudos" && execToken != kudosExecutable() {
		return false
	}
	if parts[1] != "hook" {
		return false
	}

	switch parts[2] {
	case "post-tool-use", "post-tool-use-failure", "task-completed",
		"session-end", "git-commit", "git-push":
		return true
	default:
		return false
	}
}

func hookEntryEqual(a, b map[string]any) bool {
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return string(aj) == string(bj)
}

type installOutcome int

const (
	hookInstalled installOutcome = iota
	hookUpdated
	hookSkipped
)

// upsertKudosHookEntry replaces any existing kudos entry in the list with
// newEntry, keeping foreign entries untouched.
func upsertKudosHookEntry(existing []any, newEntry map[string]any) ([]any, installOutcome) {
	var kept []any
	hadKudos := false
	matching := false

	for _, currentEntry := range existing {
		entryObj, ok := currentEntry.(map[string]any)
		if !ok {
			kept = append(kept, currentEntry)
			continue
		}
		if !entryHasKudosHook(entryObj) {
			kept = append(kept, currentEntry)
			continue
		}
		hadKudos = true
		if hookEntryEqual(entryObj, newEntry) {
			matching = true
		}
	}

	kept = append(kept, newEntry)
	if matching {
		return kept, hookSkipped
	}
	if hadKudos {
		return kept, hookUpdated
	}
	return kept, hookInstalled
}

func entryHasKudosHook(entry map[string]any) bool {
	hooks, ok := entry["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range hooks {
		hMap, ok := h.(map[string]any)
		if !ok {
			continue
		}
		cmd, _ := hMap["command"].(string)
		if IsKudosHookCommand(cmd) {
			return true
		}
	}
	return false
}

// NewInstallCmd creates the hook install command.
func NewInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install kudos hooks into Claude Code settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectScoped, _ := cmd.Flags().GetBool("project")
			path := resolveClaudeSettingsPath(projectScoped)

			settings, err := readSettings(path)
			if err != nil {
				return err
			}

			hooksObj, _ := settings["hooks"].(map[string]any)
			if hooksObj == nil {
				hooksObj = map[string]any{}
			}

			var installed, updated, skipped []string
			for eventName, entry := range kudosHooks() {
				existing, _ := hooksObj[eventName].([]any)

				entryJSON, _ := json.Marshal(entry)
				var entryMap map[string]any
				_ = json.Unmarshal(entryJSON, &entryMap)

				entries, outcome := upsertKudosHookEntry(existing, entryMap)
				hooksObj[eventName] = entries

				switch outcome {
				case hookInstalled:
					installed = append(installed, eventName)
				case hookUpdated:
					updated = append(updated, eventName)
				case hookSkipped:
					skipped = append(skipped, eventName)
				}
			}

			settings["hooks"] = hooksObj
			if err := writeSettings(path, settings); err != nil {
				return err
			}

			sort.Strings(installed)
			sort.Strings(updated)
			sort.Strings(skipped)

			type resp struct {
				Path      string   `json:"path"`
				Installed []string `json:"installed"`
				Updated   []string `json:"updated,omitempty"`
				Skipped   []string `json:"skipped"`
			}
			return output.PrintSuccess(resp{
				Path:      path,
				Installed: installed,
				Updated:   updated,
				Skipped:   skipped,
			})
		},
	}

	cmd.Flags().Bool("project", false, "Install hooks in ./.claude/settings.json")
	return cmd
}

// NewUninstallCmd creates the hook uninstall command.
func NewUninstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove kudos hooks from Claude Code settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectScoped, _ := cmd.Flags().GetBool("project")
			path := resolveClaudeSettingsPath(projectScoped)

			settings, err := readSettings(path)
			if err != nil {
				return err
			}

			type resp struct {
				Path    string   `json:"path"`
				Removed []string `json:"removed"`
			}

			hooksObj, _ := settings["hooks"].(map[string]any)
			if hooksObj == nil {
				return output.PrintSuccess(resp{Path: path, Removed: []string{}})
			}

			removed := []string{}
			for _, eventName := range kudosHookEventNames() {
				entries, ok := hooksObj[eventName].([]any)
				if !ok {
					continue
				}

				var kept []any
				for _, entry := range entries {
					entryMap, ok := entry.(map[string]any)
					if !ok || !entryHasKudosHook(entryMap) {
						kept = append(kept, entry)
					}
				}

				if len(kept) != len(entries) {
					removed = append(removed, eventName)
				}
				if len(kept) == 0 {
					delete(hooksObj, eventName)
				} else {
					hooksObj[eventName] = kept
				}
			}

			settings["hooks"] = hooksObj
			if err := writeSettings(path, settings); err != nil {
				return err
			}
			return output.PrintSuccess(resp{Path: path, Removed: removed})
		},
	}

	cmd.Flags().Bool("project", false, "Uninstall hooks from ./.claude/settings.json")
	return cmd
}
