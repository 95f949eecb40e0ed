// Package silence decides when enough trailing silence has elapsed after
// voice activity to hand a recording segment to the transcriber.
package silence

import "time"

// Detector consumes one energy level per audio block and fires exactly once
// per qualifying silence run. Silence before any speech never triggers, so a
// recording that never captured voice does not spam the transcriber; a brief
// rise above the threshold restarts the timer, so mid-utterance pauses
// shorter than the configured duration are not truncated.
//
// Detector keeps no clock of its own; callers pass the observation time,
// which keeps it deterministic under test. It is not safe for concurrent
// use; feed it from a single goroutine.
type Detector struct {
	threshold float32
	duration  time.Duration

	voiced       bool
	silenceStart time.Time
}

// New builds a detector. Threshold is an energy level on a 0..1 scale;
// duration is the required uninterrupted silence run.
func New(threshold float32, duration time.Duration) *Detector {
	return &Detector{threshold: threshold, duration: duration}
}

// ProcessLevel consumes one level sample and reports whether the silence run
// completed. After firing the detector resets itself and needs a new voice
// period before it can fire again.
func (d *Detector) ProcessLevel(level float32, now time.Time) bool {
	if level > d.threshold {
		d.voiced = true
		d.silenceStart = time.Time{}
		return false
	}
	if !d.voiced {
		return false
	}
	if d.silenceStart.IsZero() {
		d.silenceStart = now
		return false
	}
	if now.Sub(d.silenceStart) >= d.duration {
		d.voiced = false
		d.silenceStart = time.Time{}
		return true
	}
	return false
}

// Reset clears voice and silence tracking without firing. Call it at the
// start of every new recording segment.
func (d *Detector) Reset() {
	d.voiced = false
	d.silenceStart = time.Time{}
}

// IsSilent reports whether a post-voice silence run is in progress.
// Introspection only; control flow goes through ProcessLevel.
func (d *Detector) IsSilent() bool {
	return d.voiced && !d.silenceStart.IsZero()
}

// CurrentSilenceDuration returns how long the current silence run has
// lasted, or zero when none is in progress.
func (d *Detector) CurrentSilenceDuration(now time.Time) time.Duration {
	if !d.IsSilent() {
		return 0
	}
	return now.Sub(d.silenceStart)
}
