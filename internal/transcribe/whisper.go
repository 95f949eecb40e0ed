// Package transcribe adapts local speech-to-text engines to the Transcriber
// port. Everything stays on the local machine; there is no network path.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"pushtalk/internal/ports"
)

// WhisperCLI runs the whisper.cpp command-line binary against a recorded
// WAV artifact. Model verification is a one-time asynchronous warm-up; the
// first Transcribe call awaits it, and a failed warm-up degrades to
// "transcriber unavailable" instead of crashing.
type WhisperCLI struct {
	command  string
	model    string
	language string
	log      *zap.SugaredLogger

	ready   atomic.Bool
	warmed  chan struct{}
	warmErr error
}

// NewWhisperCLI builds the transcriber and begins warming up in the
// background.
func NewWhisperCLI(command, model, language string, log *zap.SugaredLogger) *WhisperCLI {
	if command == "" {
		command = "whisper-cli"
	}
	t := &WhisperCLI{
		command:  command,
		model:    model,
		language: language,
		log:      log,
		warmed:   make(chan struct{}),
	}
	go t.warmUp()
	return t
}

func (t *WhisperCLI) warmUp() {
	defer close(t.warmed)

	if t.model == "" {
		t.warmErr = errors.New("no model configured")
		t.log.Errorw("transcriber unavailable", "error", t.warmErr)
		return
	}
	info, err := os.Stat(t.model)
	if err != nil {
		t.warmErr = fmt.Errorf("model file unavailable: %w", err)
		t.log.Errorw("transcriber unavailable", "model", t.model, "error", err)
		return
	}
	if info.IsDir() {
		t.warmErr = fmt.Errorf("model path %q is a directory", t.model)
		t.log.Errorw("transcriber unavailable", "error", t.warmErr)
		return
	}

	t.ready.Store(true)
	t.log.Infow("transcriber ready", "command", t.command, "model", t.model)
}

// Ready reports whether warm-up completed successfully.
func (t *WhisperCLI) Ready() bool { return t.ready.Load() }

// Transcribe runs the CLI against the artifact and returns the recognized
// text. It waits for warm-up if still pending and honors ctx throughout.
func (t *WhisperCLI) Transcribe(ctx context.Context, artifactPath string) (string, error) {
	select {
	case <-t.warmed:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if t.warmErr != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrModelNotLoaded, t.warmErr)
	}

	args := []string{
		"-m", t.model,
		"-f", artifactPath,
		"--no-prints",
		"--no-timestamps",
	}
	if t.language != "" {
		args = append(args, "-l", t.language)
	}

	cmd := exec.CommandContext(ctx, t.command, args...)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("whisper failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("failed to run whisper: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}
