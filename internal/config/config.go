package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"

	"pushtalk/internal/hotkey"
)

// Hotkey modes.
const (
	ModeDoubleTap = "double_tap"
	ModeShortcut  = "shortcut"
)

// Audio capture backends.
const (
	BackendFFmpeg    = "ffmpeg"
	BackendPortAudio = "portaudio"
)

// Config stores all runtime tunables. A reload produces a fresh value that
// replaces the old one atomically; components receive it by value.
type Config struct {
	Hotkey        HotkeyConfig        `toml:"hotkey"`
	Silence       SilenceConfig       `toml:"silence"`
	Audio         AudioConfig         `toml:"audio"`
	Transcription TranscriptionConfig `toml:"transcription"`
	Rules         RulesConfig         `toml:"rules"`
	Cues          CuesConfig          `toml:"cues"`
}

type HotkeyConfig struct {
	// Mode selects double_tap or shortcut activation.
	Mode string `toml:"mode" env:"PUSHTALK_HOTKEY_MODE"`
	// Key is the double-tap target: a modifier name, optionally
	// side-qualified ("rightcmd"), or a literal key ("f5").
	Key string `toml:"key" env:"PUSHTALK_HOTKEY_KEY"`
	// Shortcut is a dash-separated chord binding ("cmd-shift-d").
	Shortcut string `toml:"shortcut" env:"PUSHTALK_HOTKEY_SHORTCUT"`
	// DoubleTapIntervalSec is the maximum gap between the two taps.
	DoubleTapIntervalSec float64 `toml:"double_tap_interval" env:"PUSHTALK_DOUBLE_TAP_INTERVAL"`
}

type SilenceConfig struct {
	// Threshold is the energy level (0..1 RMS) separating voice from silence.
	Threshold float64 `toml:"threshold" env:"PUSHTALK_SILENCE_THRESHOLD"`
	// DurationSec is the trailing silence that triggers transcription.
	DurationSec float64 `toml:"duration" env:"PUSHTALK_SILENCE_DURATION"`
}

type AudioConfig struct {
	Backend       string `toml:"backend" env:"PUSHTALK_AUDIO_BACKEND"`
	FFmpegCommand string `toml:"ffmpeg_command" env:"PUSHTALK_FFMPEG_COMMAND"`
	InputFormat   string `toml:"input_format" env:"PUSHTALK_AUDIO_INPUT_FORMAT"`
	InputDevice   string `toml:"input_device" env:"PUSHTALK_AUDIO_INPUT_DEVICE"`
	SampleRate    int    `toml:"sample_rate" env:"PUSHTALK_SAMPLE_RATE"`
	Channels      int    `toml:"channels" env:"PUSHTALK_CHANNELS"`
	// VADMode is the webrtcvad aggressiveness (0..3); -1 disables the gate
	// and levels pass through as raw RMS.
	VADMode int `toml:"vad_mode" env:"PUSHTALK_VAD_MODE"`
}

type TranscriptionConfig struct {
	// Command is the whisper.cpp CLI binary.
	Command string `toml:"command" env:"PUSHTALK_WHISPER_COMMAND"`
	// Model is the path of the ggml model file.
	Model    string `toml:"model" env:"PUSHTALK_WHISPER_MODEL"`
	Language string `toml:"language" env:"PUSHTALK_WHISPER_LANGUAGE"`
}

type RulesConfig struct {
	Path           string `toml:"path" env:"PUSHTALK_RULES_FILE"`
	IterationLimit int    `toml:"iteration_limit" env:"PUSHTALK_RULE_ITERATION_LIMIT"`
}

type CuesConfig struct {
	Enabled bool `toml:"enabled" env:"PUSHTALK_CUES_ENABLED"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Hotkey: HotkeyConfig{
			Mode:                 ModeDoubleTap,
			Key:                  "cmd",
			DoubleTapIntervalSec: 0.3,
		},
		Silence: SilenceConfig{
			Threshold:   0.01,
			DurationSec: 1.0,
		},
		Audio: AudioConfig{
			Backend:       BackendFFmpeg,
			FFmpegCommand: "ffmpeg",
			InputFormat:   "pulse",
			InputDevice:   "default",
			SampleRate:    16000,
			Channels:      1,
			VADMode:       -1,
		},
		Transcription: TranscriptionConfig{
			Command: "whisper-cli",
			Model:   defaultModelPath(),
		},
		Rules: RulesConfig{
			IterationLimit: 30,
		},
		Cues: CuesConfig{
			Enabled: true,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pushtalk", "config.toml")
}

func defaultModelPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "pushtalk", "ggml-base.en.bin")
}

// Load resolves configuration: built-in defaults, then the TOML file, then
// environment overrides. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("failed to load config file %q: %w", path, err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Hotkey.Mode != ModeShortcut {
		c.Hotkey.Mode = ModeDoubleTap
	}
	if c.Hotkey.DoubleTapIntervalSec <= 0 {
		c.Hotkey.DoubleTapIntervalSec = 0.3
	}
	if c.Silence.Threshold <= 0 || c.Silence.Threshold > 1 {
		c.Silence.Threshold = 0.01
	}
	if c.Silence.DurationSec <= 0 {
		c.Silence.DurationSec = 1.0
	}
	if c.Audio.Backend != BackendPortAudio {
		c.Audio.Backend = BackendFFmpeg
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.Channels <= 0 {
		c.Audio.Channels = 1
	}
	if c.Audio.VADMode > 3 {
		c.Audio.VADMode = 3
	}
	if c.Rules.IterationLimit <= 0 {
		c.Rules.IterationLimit = 30
	}
}

// DoubleTapInterval returns the tap window as a duration.
func (c Config) DoubleTapInterval() time.Duration {
	return time.Duration(c.Hotkey.DoubleTapIntervalSec * float64(time.Second))
}

// SilenceDuration returns the trailing-silence requirement as a duration.
func (c Config) SilenceDuration() time.Duration {
	return time.Duration(c.Silence.DurationSec * float64(time.Second))
}

// Gesture builds the validated activation gesture. An invalid binding
// returns the parse error alongside a disabled gesture, so the caller can
// report it while the hotkey simply never matches.
func (c Config) Gesture() (hotkey.Gesture, error) {
	if c.Hotkey.Mode == ModeShortcut {
		g, err := hotkey.ShortcutGesture(c.Hotkey.Shortcut)
		if err != nil {
			return hotkey.Disabled(), err
		}
		return g, nil
	}
	g, err := hotkey.DoubleTapGesture(c.Hotkey.Key, c.DoubleTapInterval())
	if err != nil {
		return hotkey.Disabled(), err
	}
	return g, nil
}
