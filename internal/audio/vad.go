package audio

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// VADGate refines raw RMS levels with WebRTC voice activity detection:
// blocks the VAD judges non-speech are reported as zero energy, so keyboard
// clatter and fan noise above the silence threshold do not hold a recording
// open forever. One gate serves one capture session; it is not safe for
// concurrent use.
type VADGate struct {
	vad        *webrtcvad.VAD
	sampleRate int
	frameBytes int
	pending    []byte
}

// NewVADGate builds a gate with the given aggressiveness mode (0..3).
// WebRTC VAD supports 8, 16, 32 and 48 kHz input.
func NewVADGate(mode, sampleRate int) (*VADGate, error) {
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("vad does not support sample rate %d", sampleRate)
	}
	if mode < 0 || mode > 3 {
		return nil, fmt.Errorf("vad mode must be 0..3, got %d", mode)
	}

	vad, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create vad: %w", err)
	}
	if err := vad.SetMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set vad mode: %w", err)
	}

	// 10ms frames, 2 bytes per sample.
	return &VADGate{vad: vad, sampleRate: sampleRate, frameBytes: sampleRate / 100 * 2}, nil
}

// Gate consumes one PCM block and returns the level to report for it: the
// given RMS level when any 10ms frame contains speech, zero otherwise.
// Partial frames are buffered across calls. VAD errors fail open and the
// raw level passes through.
func (g *VADGate) Gate(pcm []byte, level float32) float32 {
	g.pending = append(g.pending, pcm...)

	speech := false
	processed := 0
	for ; processed+g.frameBytes <= len(g.pending); processed += g.frameBytes {
		frame := g.pending[processed : processed+g.frameBytes]
		active, err := g.vad.Process(g.sampleRate, frame)
		if err != nil {
			g.pending = g.pending[:0]
			return level
		}
		if active {
			speech = true
		}
	}
	g.pending = append(g.pending[:0], g.pending[processed:]...)

	if processed == 0 {
		// Not enough buffered for a single frame yet; pass through.
		return level
	}
	if speech {
		return level
	}
	return 0
}
