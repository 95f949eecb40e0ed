package ports

import (
	"context"
	"errors"

	"pushtalk/internal/domain"
	"pushtalk/internal/hotkey"
)

// ErrModelNotLoaded is returned by transcribers invoked before their model
// warm-up finished, or after it failed. Callers treat it as an empty result.
var ErrModelNotLoaded = errors.New("transcription model is not loaded")

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// CaptureSession is a live microphone capture. Levels delivers one energy
// reading (0..1 RMS) per audio block and is closed when the session ends.
// Stop finalizes the session and returns the path of the recorded artifact;
// an empty path means nothing was captured. Ownership of the artifact file
// transfers to the caller, which must remove it.
type CaptureSession interface {
	Levels() <-chan float32
	Stop() (string, error)
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (CaptureSession, error)
}

// Transcriber turns one recorded artifact into text. Ready reports whether
// the one-time model warm-up finished; Transcribe blocks on warm-up when
// still pending and honors context cancellation.
type Transcriber interface {
	Ready() bool
	Transcribe(ctx context.Context, artifactPath string) (string, error)
}

// TextRewriter applies deterministic substitutions to recognized text
// before it reaches the sink.
type TextRewriter interface {
	Rewrite(text string) string
}

// TextSink accepts incremental recognized text for insertion. Calls are
// fire-and-forget and idempotent per call; there is no acknowledgment.
type TextSink interface {
	Insert(text string) error
}

// KeyEventSource delivers low-level key and modifier transitions. The
// matcher never reads from the OS directly, only from this stream.
type KeyEventSource interface {
	Events() <-chan hotkey.KeyTransition
	Close() error
}

// Indicator receives dictation lifecycle events for operator feedback.
type Indicator interface {
	StateChanged(state domain.DictationState, reason domain.StateReason)
	DictationError(code domain.ErrorCode, detail string)
}
