package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/kudos/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "kudos"), nil
}

// DataDir returns ~/.local/share/kudos/, home of the durable state file, the
// daemon socket and the celebration ledger.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "kudos"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "kudos"), nil
}

// SocketPath resolves the daemon's unix socket path.
// KUDOS_SOCKET overrides for tests and unusual setups.
func SocketPath() (string, error) {
	if p := os.Getenv("KUDOS_SOCKET"); p != "" {
		return p, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kudos.sock"), nil
}

// StatePath resolves the durable state file path.
// KUDOS_STATE_PATH overrides.
func StatePath() (string, error) {
	if p := os.Getenv("KUDOS_STATE_PATH"); p != "" {
		return p, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.json"), nil
}

// DBPath resolves the celebration ledger database path.
// Order of precedence: KUDOS_DB_PATH, config.yaml history.db_path, default.
func DBPath() (string, error) {
	if p := os.Getenv("KUDOS_DB_PATH"); p != "" {
		return EnsureDBDir(p)
	}
	if s, err := LoadSettings(); err == nil && s.History.DBPath != "" {
		return EnsureDBDir(s.History.DBPath)
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return EnsureDBDir(filepath.Join(dir, "kudos.db"))
}

// SoundsDir returns the sound pack root, ~/.config/kudos/sounds/.
func SoundsDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sounds"), nil
}

// EnsureDBDir creates the parent directory for a database path.
func EnsureDBDir(dbPath string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return "", err
	}
	return dbPath, nil
}

// EnsureConfigDir creates the config directory and a commented default
// config.yaml when missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0o600)
	}
	return nil
}

const defaultConfig = `# kudos configuration
# Every section is optional; missing values use the defaults shown here.

# intensity:
#   routine: off          # successful Bash / file edits
#   task_completed: off
#   milestone: medium     # task done, git commit, session end
#   breakthrough: epic    # git push, bash fail -> pass recovery

# audio:
#   enabled: true
#   sound_pack: default
#   volume: 0.8

# visual:
#   confetti: true
#   splash_screen: true
#   progress_bar: true
#   confetti_duration_ms: 1500
#   splash_duration_ms: 2000

# triggers:
#   custom:
#     - name: deploy
#       pattern: "git push"
#       intensity: epic

# streak_milestones: [5, 10, 25, 100]
# session_milestones_minutes: [60, 180, 480]

# history:
#   enabled: true
#   # db_path: ~/.local/share/kudos/kudos.db
`
