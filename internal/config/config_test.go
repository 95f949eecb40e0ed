package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	want := Default()
	if cfg.Hotkey != want.Hotkey || cfg.Silence != want.Silence || cfg.Audio != want.Audio {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadTOMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[hotkey]
mode = "shortcut"
shortcut = "cmd-shift-d"

[silence]
threshold = 0.02
duration = 1.5

[audio]
backend = "portaudio"
sample_rate = 48000
vad_mode = 2

[transcription]
command = "whisper-cpp"
language = "en"

[cues]
enabled = false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Hotkey.Mode != ModeShortcut || cfg.Hotkey.Shortcut != "cmd-shift-d" {
		t.Fatalf("hotkey section not applied: %+v", cfg.Hotkey)
	}
	if cfg.Silence.Threshold != 0.02 {
		t.Fatalf("threshold = %v", cfg.Silence.Threshold)
	}
	if got := cfg.SilenceDuration(); got != 1500*time.Millisecond {
		t.Fatalf("silence duration = %s", got)
	}
	if cfg.Audio.Backend != BackendPortAudio || cfg.Audio.SampleRate != 48000 || cfg.Audio.VADMode != 2 {
		t.Fatalf("audio section not applied: %+v", cfg.Audio)
	}
	if cfg.Transcription.Command != "whisper-cpp" || cfg.Transcription.Language != "en" {
		t.Fatalf("transcription section not applied: %+v", cfg.Transcription)
	}
	if cfg.Cues.Enabled {
		t.Fatalf("cues should be disabled")
	}
	// Untouched fields keep their defaults.
	if cfg.Audio.Channels != 1 || cfg.Audio.FFmpegCommand != "ffmpeg" {
		t.Fatalf("defaults lost on partial file: %+v", cfg.Audio)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[silence]
threshold = 0.02
`)
	t.Setenv("PUSHTALK_SILENCE_THRESHOLD", "0.05")
	t.Setenv("PUSHTALK_HOTKEY_KEY", "rightcmd")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Silence.Threshold != 0.05 {
		t.Fatalf("env override lost: threshold = %v", cfg.Silence.Threshold)
	}
	if cfg.Hotkey.Key != "rightcmd" {
		t.Fatalf("env override lost: key = %q", cfg.Hotkey.Key)
	}
}

func TestMalformedFileFails(t *testing.T) {
	path := writeConfig(t, "not [valid toml")
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed file should fail loading")
	}
}

func TestNormalizeClampsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
[hotkey]
mode = "nonsense"
double_tap_interval = -1.0

[silence]
threshold = 5.0
duration = 0.0

[audio]
backend = "alsa"
sample_rate = -8000
vad_mode = 9
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Hotkey.Mode != ModeDoubleTap {
		t.Fatalf("mode = %q", cfg.Hotkey.Mode)
	}
	if got := cfg.DoubleTapInterval(); got != 300*time.Millisecond {
		t.Fatalf("interval = %s", got)
	}
	if cfg.Silence.Threshold != 0.01 || cfg.SilenceDuration() != time.Second {
		t.Fatalf("silence not clamped: %+v", cfg.Silence)
	}
	if cfg.Audio.Backend != BackendFFmpeg || cfg.Audio.SampleRate != 16000 || cfg.Audio.VADMode != 3 {
		t.Fatalf("audio not clamped: %+v", cfg.Audio)
	}
}

func TestGestureFromConfig(t *testing.T) {
	cfg := Default()
	g, err := cfg.Gesture()
	if err != nil {
		t.Fatalf("default gesture failed: %v", err)
	}
	if !g.Valid() || !g.DoubleTap() {
		t.Fatalf("default gesture should be a double-tap, got %+v", g)
	}

	cfg.Hotkey.Mode = ModeShortcut
	cfg.Hotkey.Shortcut = "ctrl-space"
	g, err = cfg.Gesture()
	if err != nil {
		t.Fatalf("shortcut gesture failed: %v", err)
	}
	if !g.Valid() || g.DoubleTap() {
		t.Fatalf("expected a chord gesture, got %+v", g)
	}

	cfg.Hotkey.Shortcut = "not-a-real-binding"
	g, err = cfg.Gesture()
	if err == nil {
		t.Fatalf("invalid binding should return the parse error")
	}
	if g.Valid() {
		t.Fatalf("invalid binding must degrade to a disabled gesture")
	}
}

func TestManagerReloadKeepsPreviousOnFailure(t *testing.T) {
	path := writeConfig(t, `
[silence]
threshold = 0.02
`)
	m, err := NewManager(path, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("manager failed: %v", err)
	}
	if got := m.Current().Silence.Threshold; got != 0.02 {
		t.Fatalf("initial threshold = %v", got)
	}

	if err := os.WriteFile(path, []byte("broken ["), 0o644); err != nil {
		t.Fatalf("overwrite config: %v", err)
	}
	if _, err := m.Reload(); err == nil {
		t.Fatalf("reload of a broken file should fail")
	}
	if got := m.Current().Silence.Threshold; got != 0.02 {
		t.Fatalf("failed reload must keep the previous snapshot, got %v", got)
	}

	if err := os.WriteFile(path, []byte("[silence]\nthreshold = 0.03\n"), 0o644); err != nil {
		t.Fatalf("fix config: %v", err)
	}
	next, err := m.Reload()
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if next.Silence.Threshold != 0.03 || m.Current().Silence.Threshold != 0.03 {
		t.Fatalf("reload did not replace the snapshot")
	}
}
