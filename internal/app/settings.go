package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/kudos/internal/models"
)

// Settings is the immutable per-process configuration snapshot.
// Field names match snake_case YAML keys; unknown fields are ignored.
type Settings struct {
	Intensity         IntensitySettings `yaml:"intensity"`
	Audio             AudioSettings     `yaml:"audio"`
	Visual            VisualSettings    `yaml:"visual"`
	Triggers          TriggerSettings   `yaml:"triggers"`
	StreakMilestones  []int             `yaml:"streak_milestones"`
	SessionMilestones []int             `yaml:"session_milestones_minutes"`
	History           HistorySettings   `yaml:"history"`
}

// IntensitySettings maps event classes to celebration intensities.
type IntensitySettings struct {
	Routine       models.Intensity `yaml:"routine"`
	TaskCompleted models.Intensity `yaml:"task_completed"`
	Milestone     models.Intensity `yaml:"milestone"`
	Breakthrough  models.Intensity `yaml:"breakthrough"`
}

// AudioSettings controls the sound side of a celebration.
type AudioSettings struct {
	Enabled   bool    `yaml:"enabled"`
	SoundPack string  `yaml:"sound_pack"`
	Volume    float64 `yaml:"volume"`
}

// VisualSettings controls the terminal side of a celebration.
type VisualSettings struct {
	Confetti           bool `yaml:"confetti"`
	SplashScreen       bool `yaml:"splash_screen"`
	ProgressBar        bool `yaml:"progress_bar"`
	ConfettiDurationMS int  `yaml:"confetti_duration_ms"`
	SplashDurationMS   int  `yaml:"splash_duration_ms"`
}

// CustomTrigger upgrades celebrations for commands matching a substring.
type CustomTrigger struct {
	Name      string           `yaml:"name"`
	Pattern   string           `yaml:"pattern"`
	Intensity models.Intensity `yaml:"intensity"`
}

// TriggerSettings holds the user-defined trigger list.
type TriggerSettings struct {
	Custom []CustomTrigger `yaml:"custom"`
}

// HistorySettings controls the celebration ledger.
type HistorySettings struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// DefaultSettings returns the documented defaults, used verbatim when the
// config file is missing or unparseable.
func DefaultSettings() Settings {
	return Settings{
		Intensity: IntensitySettings{
			Routine:       models.IntensityOff,
			TaskCompleted: models.IntensityOff,
			Milestone:     models.IntensityMedium,
			Breakthrough:  models.IntensityEpic,
		},
		Audio: AudioSettings{Enabled: true, SoundPack: "default", Volume: 0.8},
		Visual: VisualSettings{
			Confetti:           true,
			SplashScreen:       true,
			ProgressBar:        true,
			ConfettiDurationMS: 1500,
			SplashDurationMS:   2000,
		},
		StreakMilestones:  []int{5, 10, 25, 100},
		SessionMilestones: []int{60, 180, 480},
		History:           HistorySettings{Enabled: true},
	}
}

//nolint:gochecknoglobals // sync.Once singleton for the per-process config snapshot
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error
)

// LoadSettings loads configuration once per process.
// A missing or unparseable file yields DefaultSettings with the parse error
// returned for logging; the settings are always usable.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = DefaultSettings()

		dir, err := ConfigDir()
		if err != nil {
			settingsErr = err
			return
		}
		s, err := loadSettingsFile(filepath.Join(dir, "config.yaml"))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				settingsErr = err
			}
			return
		}
		settings = s
	})

	return settings, settingsErr
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path) //nolint:gosec // G304: path comes from our own config dir
	if err != nil {
		return Settings{}, err
	}

	s := DefaultSettings()
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	s.normalize()
	return s, nil
}

// normalize clamps out-of-range values back to the defaults.
func (s *Settings) normalize() {
	if s.Audio.Volume < 0 || s.Audio.Volume > 1 {
		s.Audio.Volume = 0.8
	}
	if s.Audio.SoundPack == "" {
		s.Audio.SoundPack = "default"
	}
	if s.Visual.ConfettiDurationMS <= 0 {
		s.Visual.ConfettiDurationMS = 1500
	}
	if s.Visual.SplashDurationMS <= 0 {
		s.Visual.SplashDurationMS = 2000
	}
	if len(s.StreakMilestones) == 0 {
		s.StreakMilestones = []int{5, 10, 25, 100}
	}
	if len(s.SessionMilestones) == 0 {
		s.SessionMilestones = []int{60, 180, 480}
	}
}

// resetSettingsStateForTest clears the sync.Once so tests can reload.
func resetSettingsStateForTest() {
	settingsOnce = sync.Once{}
	settings = Settings{}
	settingsErr = nil
}
