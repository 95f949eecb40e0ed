package audio

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"

	"pushtalk/internal/ports"
)

var (
	paInitOnce sync.Once
	paInitErr  error
)

// PortAudioCapture records microphone audio through PortAudio, for systems
// without a usable ffmpeg capture input. Same session contract as ffmpeg:
// a temporary WAV artifact plus one RMS level per 100ms block.
type PortAudioCapture struct {
	vadMode int
	log     *zap.SugaredLogger
}

func NewPortAudioCapture(vadMode int, log *zap.SugaredLogger) *PortAudioCapture {
	return &PortAudioCapture{vadMode: vadMode, log: log}
}

func (c *PortAudioCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.CaptureSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}

	paInitOnce.Do(func() {
		paInitErr = portaudio.Initialize()
	})
	if paInitErr != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", paInitErr)
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

	blockFrames := cfg.SampleRate / 10
	buffer := make([]int16, blockFrames*cfg.Channels)
	stream, err := portaudio.OpenDefaultStream(cfg.Channels, 0, float64(cfg.SampleRate), blockFrames, buffer)
	if err != nil {
		_ = writer.Finalize()
		_ = os.Remove(artifact.Name())
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = writer.Finalize()
		_ = os.Remove(artifact.Name())
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	var gate *VADGate
	if c.vadMode >= 0 {
		gate, err = NewVADGate(c.vadMode, cfg.SampleRate)
		if err != nil {
			c.log.Warnw("vad gate unavailable, using raw levels", "error", err)
		}
	}

	s := &portAudioSession{
		path:     artifact.Name(),
		writer:   writer,
		stream:   stream,
		buffer:   buffer,
		gate:     gate,
		levels:   make(chan float32, 32),
		stop:     make(chan struct{}),
		readDone: make(chan struct{}),
		log:      c.log,
	}
	go s.readLoop(ctx)
	return s, nil
}

type portAudioSession struct {
	path   string
	writer *wavWriter
	stream *portaudio.Stream
	buffer []int16

	gate     *VADGate
	levels   chan float32
	stop     chan struct{}
	readDone chan struct{}
	log      *zap.SugaredLogger

	stopOnce sync.Once
	stopPath string
	stopErr  error
}

func (s *portAudioSession) Levels() <-chan float32 { return s.levels }

func (s *portAudioSession) readLoop(ctx context.Context) {
	defer close(s.readDone)
	defer close(s.levels)

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := s.stream.Read(); err != nil {
			s.log.Warnw("portaudio read failed", "error", err)
			return
		}

		block := int16ToBytes(s.buffer)
		if _, err := s.writer.Write(block); err != nil {
			s.log.Warnw("artifact write failed", "error", err)
		}
		level := RMSInt16(s.buffer)
		if s.gate != nil {
			level = s.gate.Gate(block, level)
		}
		select {
		case s.levels <- level:
		default:
		}
	}
}

func (s *portAudioSession) Stop() (string, error) {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.readDone

		if err := s.stream.Stop(); err != nil {
			s.stopErr = fmt.Errorf("failed to stop portaudio stream: %w", err)
		}
		if err := s.stream.Close(); err != nil && s.stopErr == nil {
			s.stopErr = fmt.Errorf("failed to close portaudio stream: %w", err)
		}

		captured := s.writer.DataLen() > 0
		if err := s.writer.Finalize(); err != nil && s.stopErr == nil {
			s.stopErr = err
		}
		if !captured {
			_ = os.Remove(s.path)
		} else {
			s.stopPath = s.path
		}
	})

	return s.stopPath, s.stopErr
}
