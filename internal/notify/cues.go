// Package notify gives the user audible feedback for dictation lifecycle
// events. On-screen indicators are out of scope; short generated tones are
// the only cue surface.
package notify

import (
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"go.uber.org/zap"
)

const cueSampleRate = beep.SampleRate(44100)

// Cues plays short sine tones through the default output device. The
// speaker is initialized lazily on first use; an unavailable output device
// disables cues rather than failing dictation.
type Cues struct {
	enabled bool
	log     *zap.SugaredLogger

	initOnce sync.Once
	initErr  error
}

func NewCues(enabled bool, log *zap.SugaredLogger) *Cues {
	return &Cues{enabled: enabled, log: log}
}

// RecordStart plays the rising "listening" cue.
func (c *Cues) RecordStart() { c.play(880, 120*time.Millisecond) }

// RecordStop plays the falling "session over" cue.
func (c *Cues) RecordStop() { c.play(440, 120*time.Millisecond) }

// Error plays the low failure cue.
func (c *Cues) Error() { c.play(220, 200*time.Millisecond) }

func (c *Cues) play(freq float64, duration time.Duration) {
	if !c.enabled {
		return
	}
	c.initOnce.Do(func() {
		c.initErr = speaker.Init(cueSampleRate, cueSampleRate.N(50*time.Millisecond))
		if c.initErr != nil {
			c.log.Warnw("audio cues disabled, speaker unavailable", "error", c.initErr)
		}
	})
	if c.initErr != nil {
		return
	}
	speaker.Play(&tone{freq: freq, total: cueSampleRate.N(duration)})
}

// tone is a fixed-length sine streamer with a linear fade-out to avoid
// clicks at the cue boundary.
type tone struct {
	freq  float64
	pos   int
	total int
}

func (t *tone) Stream(samples [][2]float64) (int, bool) {
	if t.pos >= t.total {
		return 0, false
	}
	for i := range samples {
		if t.pos >= t.total {
			return i, true
		}
		fade := 1 - float64(t.pos)/float64(t.total)
		v := 0.2 * fade * math.Sin(2*math.Pi*t.freq*float64(t.pos)/float64(cueSampleRate))
		samples[i][0] = v
		samples[i][1] = v
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }
