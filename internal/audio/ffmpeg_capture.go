package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"pushtalk/internal/ports"
)

// FFmpegCapture records microphone audio through an ffmpeg child process.
// Each session tees the s16le PCM stream into a temporary WAV artifact
// while reporting one RMS level per 100ms block.
type FFmpegCapture struct {
	command string
	vadMode int
	log     *zap.SugaredLogger
}

// NewFFmpegCapture builds the capture source. A vadMode of 0..3 enables the
// WebRTC VAD gate on reported levels; -1 disables it.
func NewFFmpegCapture(command string, vadMode int, log *zap.SugaredLogger) *FFmpegCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFmpegCapture{command: command, vadMode: vadMode, log: log}
}

func (c *FFmpegCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.CaptureSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	artifact, err := os.CreateTemp("", "pushtalk-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact file: %w", err)
	}
	writer, err := newWAVWriter(artifact, cfg.SampleRate, cfg.Channels)
	if err != nil {
		_ = artifact.Close()
		_ = os.Remove(artifact.Name())
		return nil, err
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = writer.Finalize()
		_ = os.Remove(artifact.Name())
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		_ = writer.Finalize()
		_ = os.Remove(artifact.Name())
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// Device-busy and permission failures surface within the first moments.
	select {
	case err := <-waitErr:
		_ = writer.Finalize()
		_ = os.Remove(artifact.Name())
		if err != nil {
			return nil, fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, errors.New("ffmpeg exited before capture started")
	case <-time.After(250 * time.Millisecond):
	}

	var gate *VADGate
	if c.vadMode >= 0 {
		gate, err = NewVADGate(c.vadMode, cfg.SampleRate)
		if err != nil {
			c.log.Warnw("vad gate unavailable, using raw levels", "error", err)
		}
	}

	s := &ffmpegSession{
		path:       artifact.Name(),
		writer:     writer,
		stdout:     stdout,
		stderr:     &stderr,
		process:    cmd.Process,
		waitErr:    waitErr,
		gate:       gate,
		blockBytes: cfg.SampleRate / 10 * cfg.Channels * 2,
		levels:     make(chan float32, 32),
		readDone:   make(chan struct{}),
		log:        c.log,
	}
	go s.readLoop()
	return s, nil
}

type ffmpegSession struct {
	path   string
	writer *wavWriter
	stdout io.ReadCloser
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	gate       *VADGate
	blockBytes int
	levels     chan float32
	readDone   chan struct{}
	log        *zap.SugaredLogger

	stopOnce sync.Once
	stopPath string
	stopErr  error
}

func (s *ffmpegSession) Levels() <-chan float32 { return s.levels }

// readLoop drains ffmpeg stdout in 100ms PCM blocks, appending each to the
// artifact and reporting its energy. A slow consumer drops levels rather
// than stalling capture.
func (s *ffmpegSession) readLoop() {
	defer close(s.readDone)
	defer close(s.levels)

	block := make([]byte, s.blockBytes)
	filled := 0
	for {
		n, err := s.stdout.Read(block[filled:])
		if n > 0 {
			filled += n
			if filled == len(block) {
				s.emitBlock(block)
				filled = 0
			}
		}
		if err != nil {
			if filled > 0 {
				s.emitBlock(block[:filled])
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				s.log.Warnw("capture stream read failed", "error", err)
			}
			return
		}
	}
}

func (s *ffmpegSession) emitBlock(block []byte) {
	if _, err := s.writer.Write(block); err != nil {
		s.log.Warnw("artifact write failed", "error", err)
	}
	level := RMS(block)
	if s.gate != nil {
		level = s.gate.Gate(block, level)
	}
	select {
	case s.levels <- level:
	default:
	}
}

// Stop interrupts ffmpeg, waits for the reader to drain, finalizes the WAV
// artifact, and returns its path. A session that captured no audio removes
// its file and returns an empty path.
func (s *ffmpegSession) Stop() (string, error) {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeExit(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			if err, ok := <-s.waitErr; ok {
				s.stopErr = normalizeExit(err)
			}
		}

		_ = s.stdout.Close()
		<-s.readDone

		captured := s.writer.DataLen() > 0
		if err := s.writer.Finalize(); err != nil && s.stopErr == nil {
			s.stopErr = err
		}
		if !captured {
			_ = os.Remove(s.path)
		} else {
			s.stopPath = s.path
		}

		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, bytes.TrimSpace(s.stderr.Bytes()))
		}
	})

	return s.stopPath, s.stopErr
}

// An interrupted ffmpeg reports a nonzero exit; that is the normal stop
// path, not a failure.
func normalizeExit(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
