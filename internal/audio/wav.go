package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
)

const (
	sampleRate = 44100
	fadeRatio  = 0.05 // linear fade in/out, fraction of total samples
)

// tone describes the generated fallback sound for one kind.
type tone struct {
	freq     float64
	duration float64 // seconds
}

//nolint:gochecknoglobals // fixed tone table
var tones = map[SoundKind]tone{
	SoundMini:      {freq: 880.00, duration: 0.3},
	SoundMilestone: {freq: 523.25, duration: 0.8},
	SoundEpic:      {freq: 659.25, duration: 1.2},
	SoundFanfare:   {freq: 783.99, duration: 1.5},
	SoundStreak:    {freq: 1046.50, duration: 1.5},
}

// GenerateWAV renders a mono 16-bit PCM sine tone with a short linear fade
// at both ends so the chirp does not click.
func GenerateWAV(freq, duration, volume float64) []byte {
	n := int(duration * sampleRate)
	fade := int(float64(n) * fadeRatio)
	if fade < 1 {
		fade = 1
	}

	data := make([]byte, 0, n*2)
	buf := make([]byte, 2)
	for i := range n {
		sample := math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
		switch {
		case i < fade:
			sample *= float64(i) / float64(fade)
		case i >= n-fade:
			sample *= float64(n-i) / float64(fade)
		}
		v := int16(sample * volume * math.MaxInt16)
		binary.LittleEndian.PutUint16(buf, uint16(v))
		data = append(data, buf...)
	}

	var out bytes.Buffer
	dataLen := uint32(len(data))

	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, 36+dataLen)
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	_ = binary.Write(&out, binary.LittleEndian, uint32(16))
	_ = binary.Write(&out, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&out, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&out, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&out, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	_ = binary.Write(&out, binary.LittleEndian, uint16(2))            // block align
	_ = binary.Write(&out, binary.LittleEndian, uint16(16))           // bits per sample

	out.WriteString("data")
	_ = binary.Write(&out, binary.LittleEndian, dataLen)
	out.Write(data)

	return out.Bytes()
}

// GenerateKind renders the fallback tone for a sound kind.
func GenerateKind(kind SoundKind, volume float64) []byte {
	t, ok := tones[kind]
	if !ok {
		t = tones[SoundMini]
	}
	return GenerateWAV(t.freq, t.duration, volume)
}

// EnsureSoundFile writes the generated tone for kind into dir (created if
// needed) and returns the file path. An existing file is reused as-is.
func EnsureSoundFile(dir string, kind SoundKind, volume float64) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	path := filepath.Join(dir, string(kind)+".wav")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.WriteFile(path, GenerateKind(kind, volume), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// ExtractAll writes every generated tone into the given pack directory.
func ExtractAll(dir string, volume float64) ([]string, error) {
	paths := make([]string, 0, len(tones))
	for _, kind := range []SoundKind{SoundMini, SoundMilestone, SoundEpic, SoundFanfare, SoundStreak} {
		p, err := EnsureSoundFile(dir, kind, volume)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
