package usecase

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pushtalk/internal/domain"
	"pushtalk/internal/hotkey"
	"pushtalk/internal/ports"
	"pushtalk/internal/silence"
)

// ErrNotRunning is returned by commands posted before Run or after shutdown.
var ErrNotRunning = errors.New("dictation controller is not running")

// Config carries the tunables the controller needs. Reload replaces the
// whole value atomically between events; nothing reads a global.
type Config struct {
	Gesture          hotkey.Gesture
	SilenceThreshold float32
	SilenceDuration  time.Duration
	Audio            ports.AudioConfig
}

// Controller owns the dictation lifecycle: it feeds key events to the
// hotkey matcher, levels to the silence detector, starts and stops capture,
// launches and cancels transcription tasks, and forwards recognized text to
// the sink. All state is owned by the Run goroutine; producers communicate
// through messages only.
type Controller struct {
	audio       ports.AudioCapture
	transcriber ports.Transcriber
	rewriter    ports.TextRewriter
	sink        ports.TextSink
	indicator   ports.Indicator
	log         *zap.SugaredLogger

	msgs chan message
	done chan struct{}

	status atomic.Value // domain.Status

	// Everything below is touched only by the Run goroutine.
	runCtx   context.Context
	cfg      Config
	state    domain.DictationState
	active   bool
	matcher  *hotkey.Matcher
	detector *silence.Detector
	capture  *captureState
	task     *taskState
}

type captureState struct {
	id      string
	session ports.CaptureSession
}

type taskState struct {
	id     string
	kind   domain.TranscriptionKind
	cancel context.CancelFunc
}

func New(
	audio ports.AudioCapture,
	transcriber ports.Transcriber,
	rewriter ports.TextRewriter,
	sink ports.TextSink,
	indicator ports.Indicator,
	cfg Config,
	log *zap.SugaredLogger,
) *Controller {
	c := &Controller{
		audio:       audio,
		transcriber: transcriber,
		rewriter:    rewriter,
		sink:        sink,
		indicator:   indicator,
		log:         log,
		msgs:        make(chan message, 64),
		done:        make(chan struct{}),
		cfg:         cfg,
		state:       domain.StateIdle,
		active:      true,
		matcher:     hotkey.NewMatcher(cfg.Gesture),
		detector:    silence.New(cfg.SilenceThreshold, cfg.SilenceDuration),
	}
	c.status.Store(domain.Status{State: domain.StateIdle, Active: true})
	return c
}

// Run is the single-consumer control loop. It blocks until ctx is done and
// leaves the session cleaned up: capture stopped, task cancelled, artifact
// removal delegated to the task worker.
func (c *Controller) Run(ctx context.Context) error {
	c.runCtx = ctx
	defer close(c.done)

	c.indicator.StateChanged(domain.StateIdle, domain.ReasonStartup)
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case msg := <-c.msgs:
			c.handle(msg)
		}
	}
}

// Start begins a recording session. A capture failure aborts the transition
// and the controller stays idle.
func (c *Controller) Start(ctx context.Context) error {
	return c.command(ctx, opStart)
}

// Stop cancels the current session: a recording is discarded, an in-flight
// transcription is flagged for cancellation, a flagged one is aborted.
// Stopping an idle controller is a no-op.
func (c *Controller) Stop(ctx context.Context) error {
	return c.command(ctx, opStop)
}

// StopAndInsert ends the session and inserts the final transcription.
func (c *Controller) StopAndInsert(ctx context.Context) error {
	return c.command(ctx, opStopAndInsert)
}

// HandleKey feeds one key transition to the matcher on the control path.
func (c *Controller) HandleKey(ev hotkey.KeyTransition) {
	c.post(keyMsg{ev: ev})
}

// UpdateConfig atomically replaces all tunables, including the gesture and
// the silence parameters. In-progress gesture and silence tracking restart.
func (c *Controller) UpdateConfig(cfg Config) {
	c.post(configMsg{cfg: cfg})
}

// SetActive toggles whether completed transcriptions are inserted. A
// segment completing while inactive is discarded and the session ends.
func (c *Controller) SetActive(active bool) {
	c.post(activeMsg{active: active})
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() domain.Status {
	return c.status.Load().(domain.Status)
}

func (c *Controller) command(ctx context.Context, op commandOp) error {
	reply := make(chan error, 1)
	select {
	case c.msgs <- commandMsg{op: op, reply: reply}:
	case <-c.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-c.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) post(msg message) {
	select {
	case c.msgs <- msg:
	case <-c.done:
	}
}

func (c *Controller) handle(msg message) {
	switch m := msg.(type) {
	case keyMsg:
		c.onKey(m.ev)
	case levelMsg:
		c.onLevel(m)
	case commandMsg:
		m.reply <- c.onCommand(m.op)
	case taskDoneMsg:
		c.onTaskDone(m)
	case configMsg:
		c.cfg = m.cfg
		c.matcher = hotkey.NewMatcher(m.cfg.Gesture)
		c.detector = silence.New(m.cfg.SilenceThreshold, m.cfg.SilenceDuration)
		c.log.Infow("configuration replaced", "gesture", m.cfg.Gesture.String())
	case activeMsg:
		c.active = m.active
		c.publishStatus()
	}
}

// onKey routes a completed gesture by current state: idle starts, recording
// stops-and-inserts, loading flags cancellation, stopping aborts.
func (c *Controller) onKey(ev hotkey.KeyTransition) {
	match := c.matcher.OnEvent(ev)
	if !match.Activated {
		return
	}
	c.log.Debugw("activation gesture", "state", c.state, "consumed", match.Consumed)

	switch c.state {
	case domain.StateIdle:
		if err := c.beginCapture(domain.ReasonRecordingStarted); err != nil {
			c.log.Errorw("capture start failed", "error", err)
		}
	case domain.StateRecording:
		c.finishRecording(domain.KindFinal)
	case domain.StateLoading:
		c.setState(domain.StateStopping, domain.ReasonTranscribing)
	case domain.StateStopping:
		c.abortTask()
	}
}

func (c *Controller) onCommand(op commandOp) error {
	switch op {
	case opStart:
		if c.state != domain.StateIdle {
			return nil
		}
		return c.beginCapture(domain.ReasonRecordingStarted)
	case opStop:
		switch c.state {
		case domain.StateRecording:
			c.discardRecording()
		case domain.StateLoading:
			c.setState(domain.StateStopping, domain.ReasonTranscribing)
		case domain.StateStopping:
			c.abortTask()
		}
		return nil
	case opStopAndInsert:
		switch c.state {
		case domain.StateRecording:
			c.finishRecording(domain.KindFinal)
		case domain.StateLoading:
			c.setState(domain.StateStopping, domain.ReasonTranscribing)
		case domain.StateStopping:
			c.abortTask()
		}
		return nil
	}
	return nil
}

// onLevel feeds the silence detector. Levels from a stopped session and
// levels arriving while a transcription is outstanding are both ignored, so
// a second silence run can never spawn an overlapping task.
func (c *Controller) onLevel(m levelMsg) {
	if c.state != domain.StateRecording || c.task != nil {
		return
	}
	if c.capture == nil || c.capture.id != m.captureID {
		return
	}
	if c.detector.ProcessLevel(m.level, m.at) {
		c.log.Debugw("silence reached", "capture", m.captureID)
		c.finishRecording(domain.KindSegment)
	}
}

func (c *Controller) beginCapture(reason domain.StateReason) error {
	c.detector.Reset()

	session, err := c.audio.Start(c.runCtx, c.cfg.Audio)
	if err != nil {
		c.indicator.DictationError(domain.ErrorCodeCaptureStart, err.Error())
		c.setState(domain.StateIdle, domain.ReasonCaptureFailed)
		return err
	}

	c.capture = &captureState{id: uuid.NewString(), session: session}
	go c.pumpLevels(c.capture.id, session.Levels())
	c.setState(domain.StateRecording, reason)
	return nil
}

// pumpLevels runs off the control path, one goroutine per capture session,
// and marshals level readings into the loop.
func (c *Controller) pumpLevels(captureID string, levels <-chan float32) {
	for level := range levels {
		c.post(levelMsg{captureID: captureID, level: level, at: time.Now()})
	}
}

// finishRecording stops capture and hands the artifact to a transcription
// task. A segment task resumes recording on completion; a final task ends
// the session.
func (c *Controller) finishRecording(kind domain.TranscriptionKind) {
	artifact := c.stopCapture()
	if artifact == "" {
		c.log.Debugw("no audio captured", "kind", kind)
		if kind == domain.KindSegment {
			if err := c.beginCapture(domain.ReasonRecordingResumed); err != nil {
				c.log.Errorw("capture restart failed", "error", err)
			}
			return
		}
		c.setState(domain.StateIdle, domain.ReasonRecordingCancelled)
		return
	}

	taskCtx, cancel := context.WithCancel(c.runCtx)
	c.task = &taskState{id: uuid.NewString(), kind: kind, cancel: cancel}
	go c.runTranscription(taskCtx, c.task.id, kind, artifact)

	reason := domain.ReasonTranscribing
	if kind == domain.KindSegment {
		reason = domain.ReasonSilenceDetected
	}
	c.setState(domain.StateLoading, reason)
}

func (c *Controller) discardRecording() {
	if artifact := c.stopCapture(); artifact != "" {
		c.removeArtifact(artifact)
	}
	c.detector.Reset()
	c.setState(domain.StateIdle, domain.ReasonRecordingCancelled)
}

func (c *Controller) stopCapture() string {
	if c.capture == nil {
		return ""
	}
	session := c.capture.session
	c.capture = nil

	artifact, err := session.Stop()
	if err != nil {
		c.indicator.DictationError(domain.ErrorCodeCaptureStop, err.Error())
		c.log.Warnw("capture stop failed", "error", err)
	}
	return artifact
}

// runTranscription is the long-running unit of work. It checks cancellation
// at the earliest safe checkpoints: before invoking the transcriber and
// immediately after it returns. The artifact is removed here, on every
// terminal outcome, exactly once.
func (c *Controller) runTranscription(ctx context.Context, taskID string, kind domain.TranscriptionKind, artifact string) {
	defer c.removeArtifact(artifact)

	if err := ctx.Err(); err != nil {
		c.post(taskDoneMsg{taskID: taskID, kind: kind, err: err})
		return
	}

	text, err := c.transcriber.Transcribe(ctx, artifact)
	if cErr := ctx.Err(); cErr != nil {
		c.post(taskDoneMsg{taskID: taskID, kind: kind, err: cErr})
		return
	}

	c.post(taskDoneMsg{taskID: taskID, kind: kind, text: text, err: err})
}

func (c *Controller) onTaskDone(m taskDoneMsg) {
	if c.task == nil || c.task.id != m.taskID {
		// Already aborted; the worker cleaned up its artifact.
		return
	}
	c.task.cancel()
	c.task = nil

	if errors.Is(m.err, context.Canceled) || c.state == domain.StateStopping {
		c.setState(domain.StateIdle, domain.ReasonTranscriptionCancelled)
		return
	}

	text := m.text
	if m.err != nil {
		// Any transcriber failure degrades to an empty result so the
		// session still reaches a terminal state and cleans up.
		code := domain.ErrorCodeTranscription
		if errors.Is(m.err, ports.ErrModelNotLoaded) {
			code = domain.ErrorCodeModelNotLoaded
		}
		c.indicator.DictationError(code, m.err.Error())
		c.log.Errorw("transcription failed", "kind", m.kind, "error", m.err)
		text = ""
	}

	inserted := false
	if c.active && !IsNoise(text) {
		c.insert(text)
		inserted = true
	}

	if m.kind == domain.KindFinal {
		reason := domain.ReasonNoiseDiscarded
		if inserted {
			reason = domain.ReasonTextInserted
		}
		c.setState(domain.StateIdle, reason)
		return
	}

	if !c.active {
		c.setState(domain.StateIdle, domain.ReasonResultDiscarded)
		return
	}
	if err := c.beginCapture(domain.ReasonRecordingResumed); err != nil {
		c.log.Errorw("capture restart failed", "error", err)
	}
}

// abortTask cancels the in-flight task immediately. Its completion message
// arrives later with a stale ID and is ignored; artifact cleanup already
// belongs to the worker.
func (c *Controller) abortTask() {
	if c.task == nil {
		return
	}
	c.task.cancel()
	c.task = nil
	c.setState(domain.StateIdle, domain.ReasonTranscriptionCancelled)
}

func (c *Controller) insert(text string) {
	if c.rewriter != nil {
		text = c.rewriter.Rewrite(text)
	}
	if err := c.sink.Insert(text); err != nil {
		c.indicator.DictationError(domain.ErrorCodeTextSink, err.Error())
		c.log.Warnw("text insertion failed", "error", err)
	}
}

func (c *Controller) removeArtifact(artifact string) {
	if artifact == "" {
		return
	}
	if err := os.Remove(artifact); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.log.Warnw("artifact removal failed", "path", artifact, "error", err)
	}
}

func (c *Controller) shutdown() {
	c.active = false
	if artifact := c.stopCapture(); artifact != "" {
		c.removeArtifact(artifact)
	}
	if c.task != nil {
		c.task.cancel()
		c.task = nil
	}
	c.state = domain.StateIdle
	c.publishStatus()
}

func (c *Controller) setState(state domain.DictationState, reason domain.StateReason) {
	c.state = state
	c.publishStatus()
	c.indicator.StateChanged(state, reason)
}

func (c *Controller) publishStatus() {
	c.status.Store(domain.Status{State: c.state, Active: c.active})
}
