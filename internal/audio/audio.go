// Package audio selects and plays celebration sounds. Playback is
// fire-and-forget: the player runs detached and every failure is silent, a
// missing player or sound file must never affect event handling.
package audio

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"

	"github.com/dotcommander/kudos/internal/app"
	"github.com/dotcommander/kudos/internal/models"
)

// SoundKind names one slot in a sound pack.
type SoundKind string

const (
	SoundMini      SoundKind = "mini"
	SoundMilestone SoundKind = "milestone"
	SoundEpic      SoundKind = "epic"
	SoundFanfare   SoundKind = "fanfare"
	SoundStreak    SoundKind = "streak"
)

// soundExtensions are probed in order when resolving a pack file.
//
//nolint:gochecknoglobals
var soundExtensions = []string{".ogg", ".wav", ".mp3"}

// SelectSound maps a decided celebration onto a sound slot. Streak
// milestones trump everything, then achievement fanfares, then the
// per-intensity defaults. Off and unknown intensities yield no sound.
func SelectSound(intensity models.Intensity, hasAchievement bool, streakMilestone bool) (SoundKind, bool) {
	switch {
	case streakMilestone:
		return SoundStreak, true
	case intensity >= models.IntensityEpic && hasAchievement:
		return SoundFanfare, true
	case intensity >= models.IntensityEpic:
		return SoundEpic, true
	case intensity == models.IntensityMedium:
		return SoundMilestone, true
	case intensity == models.IntensityMini:
		return SoundMini, true
	default:
		return "", false
	}
}

//nolint:gochecknoglobals // candidate command-line players, probed in order
var linuxPlayers = []string{"pw-play", "paplay", "aplay", "mpg123", "mpg321"}

// DetectPlayer finds an available command-line audio player. Returns the
// binary path and false when no player is installed.
func DetectPlayer() (string, bool) {
	if runtime.GOOS == "darwin" {
		if p, err := exec.LookPath("afplay"); err == nil {
			return p, true
		}
		return "", false
	}
	for _, name := range linuxPlayers {
		if p, err := exec.LookPath(name); err == nil {
			return p, true
		}
	}
	return "", false
}

// Player plays pack sounds, generating WAV fallbacks when a pack file is
// missing. The zero value is not usable; construct with NewPlayer.
type Player struct {
	cfg       app.AudioSettings
	soundsDir string
	cacheDir  string

	lookPath func() (string, bool)
	start    func(bin string, args ...string) error
}

// NewPlayer builds a player for the configured sound pack. soundsDir is the
// pack root (each pack is a subdirectory).
func NewPlayer(cfg app.AudioSettings, soundsDir string) *Player {
	return &Player{
		cfg:       cfg,
		soundsDir: soundsDir,
		cacheDir:  filepath.Join(os.TempDir(), "kudos-sounds"),
		lookPath:  DetectPlayer,
		start:     startDetached,
	}
}

// FindSoundFile resolves the file for a sound kind: pack file first, then a
// generated WAV in the temp cache. Returns false only when generation fails.
func (p *Player) FindSoundFile(kind SoundKind) (string, bool) {
	packDir := filepath.Join(p.soundsDir, p.cfg.SoundPack)
	for _, ext := range soundExtensions {
		candidate := filepath.Join(packDir, string(kind)+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}

	path, err := EnsureSoundFile(p.cacheDir, kind, p.cfg.Volume)
	if err != nil {
		return "", false
	}
	return path, true
}

// Play starts playback of the sound for kind and returns immediately.
// Disabled audio, a missing player and a failed spawn all no-op.
func (p *Player) Play(kind SoundKind) {
	if !p.cfg.Enabled {
		return
	}
	bin, ok := p.lookPath()
	if !ok {
		return
	}
	file, ok := p.FindSoundFile(kind)
	if !ok {
		return
	}
	_ = p.start(bin, playerArgs(bin, file, p.cfg.Volume)...)
}

// playerArgs builds the argument list for a known player binary.
func playerArgs(bin, file string, volume float64) []string {
	switch filepath.Base(bin) {
	case "afplay":
		return []string{"-v", strconv.FormatFloat(volume, 'f', 2, 64), file}
	case "paplay":
		// paplay volume is 0..65536.
		return []string{"--volume", strconv.Itoa(int(volume * 65536)), file}
	default:
		return []string{file}
	}
}

// startDetached spawns the player in its own session so it outlives nothing
// and never receives our signals.
func startDetached(bin string, args ...string) error {
	cmd := exec.Command(bin, args...) //nolint:gosec // G204: binary from LookPath over a fixed allow-list
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child when it exits so it does not linger as a zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}
