package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"pushtalk/internal/domain"
	"pushtalk/internal/hotkey"
	"pushtalk/internal/ports"
	"pushtalk/internal/usecase"
)

// --- fakes ---

type fakeSession struct {
	mu       sync.Mutex
	levels   chan float32
	artifact string
	stopErr  error
	stopped  bool
	stops    int
}

func (s *fakeSession) Levels() <-chan float32 { return s.levels }

func (s *fakeSession) Stop() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.levels)
	}
	s.stops++
	return s.artifact, s.stopErr
}

// push feeds one level reading, dropping it if the session already stopped.
func (s *fakeSession) push(level float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.levels <- level
}

type fakeCapture struct {
	mu       sync.Mutex
	sessions []*fakeSession
	startErr error
	starts   int
}

func (c *fakeCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.CaptureSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return nil, c.startErr
	}
	if c.starts >= len(c.sessions) {
		return nil, errors.New("no scripted session left")
	}
	s := c.sessions[c.starts]
	c.starts++
	return s, nil
}

func (c *fakeCapture) startCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts
}

func (c *fakeCapture) session(i int) *fakeSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[i]
}

// newFakeCapture scripts n sessions, each backed by a real temp file so the
// artifact cleanup path is observable.
func newFakeCapture(t *testing.T, n int) *fakeCapture {
	t.Helper()
	c := &fakeCapture{}
	for i := 0; i < n; i++ {
		f, err := os.CreateTemp(t.TempDir(), "capture-*.wav")
		if err != nil {
			t.Fatalf("temp artifact: %v", err)
		}
		_ = f.Close()
		c.sessions = append(c.sessions, &fakeSession{
			levels:   make(chan float32, 64),
			artifact: f.Name(),
		})
	}
	return c
}

type fakeTranscriber struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []string

	// When non-nil, Transcribe blocks until the channel closes or the
	// context is cancelled.
	block chan struct{}
}

func (f *fakeTranscriber) Ready() bool { return true }

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	block, text, err := f.block, f.text, f.err
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return text, err
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSink struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeSink) Insert(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeSink) inserted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type stateEvent struct {
	state  domain.DictationState
	reason domain.StateReason
}

type fakeIndicator struct {
	mu     sync.Mutex
	states []stateEvent
	errs   []domain.ErrorCode
}

func (f *fakeIndicator) StateChanged(state domain.DictationState, reason domain.StateReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateEvent{state: state, reason: reason})
}

func (f *fakeIndicator) DictationError(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, code)
}

func (f *fakeIndicator) sawReason(reason domain.StateReason) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.states {
		if ev.reason == reason {
			return true
		}
	}
	return false
}

func (f *fakeIndicator) sawError(code domain.ErrorCode) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.errs {
		if c == code {
			return true
		}
	}
	return false
}

type upperRewriter struct{}

func (upperRewriter) Rewrite(text string) string { return strings.ToUpper(text) }

// --- harness ---

type harness struct {
	ctrl    *usecase.Controller
	capture *fakeCapture
	tr      *fakeTranscriber
	sink    *fakeSink
	ind     *fakeIndicator
}

func newHarness(t *testing.T, capture *fakeCapture, tr *fakeTranscriber, rewriter ports.TextRewriter) *harness {
	t.Helper()
	sink := &fakeSink{}
	ind := &fakeIndicator{}
	ctrl := usecase.New(capture, tr, rewriter, sink, ind, usecase.Config{
		Gesture:          hotkey.Disabled(),
		SilenceThreshold: 0.01,
		SilenceDuration:  5 * time.Millisecond,
	}, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = ctrl.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &harness{ctrl: ctrl, capture: capture, tr: tr, sink: sink, ind: ind}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitRemoved(t *testing.T, path string) {
	t.Helper()
	waitFor(t, "artifact removal of "+path, func() bool {
		_, err := os.Stat(path)
		return errors.Is(err, os.ErrNotExist)
	})
}

// --- tests ---

func TestSilenceTriggersSegmentAndResumesRecording(t *testing.T) {
	t.Parallel()

	capture := newFakeCapture(t, 2)
	h := newHarness(t, capture, &fakeTranscriber{text: "hello world"}, nil)

	if err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if got := h.ctrl.Status().State; got != domain.StateRecording {
		t.Fatalf("state after start = %v, want recording", got)
	}

	s := capture.session(0)
	s.push(0.5) // voice
	s.push(0.001)
	time.Sleep(10 * time.Millisecond)
	s.push(0.001) // completes the 5ms silence run

	waitFor(t, "segment insertion", func() bool {
		return len(h.sink.inserted()) == 1
	})
	if got := h.sink.inserted()[0]; got != "hello world" {
		t.Fatalf("inserted %q, want %q", got, "hello world")
	}

	// A segment result resumes recording on a fresh capture session.
	waitFor(t, "recording resumed", func() bool {
		return capture.startCount() == 2 && h.ctrl.Status().State == domain.StateRecording
	})
	if !h.ind.sawReason(domain.ReasonSilenceDetected) {
		t.Fatalf("silence trigger was not reported")
	}
	if !h.ind.sawReason(domain.ReasonRecordingResumed) {
		t.Fatalf("resume was not reported")
	}
	waitRemoved(t, s.artifact)
}

func TestStopDiscardsRecordingWithoutTranscription(t *testing.T) {
	t.Parallel()

	capture := newFakeCapture(t, 1)
	h := newHarness(t, capture, &fakeTranscriber{text: "should never appear"}, nil)

	if err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := h.ctrl.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if got := h.ctrl.Status().State; got != domain.StateIdle {
		t.Fatalf("state after stop = %v, want idle", got)
	}
	if n := h.tr.callCount(); n != 0 {
		t.Fatalf("transcriber called %d times, want 0", n)
	}
	if got := h.sink.inserted(); len(got) != 0 {
		t.Fatalf("unexpected insertions: %v", got)
	}
	waitRemoved(t, capture.session(0).artifact)
	if !h.ind.sawReason(domain.ReasonRecordingCancelled) {
		t.Fatalf("cancellation was not reported")
	}
}

func TestNoiseResultIsDiscarded(t *testing.T) {
	t.Parallel()

	capture := newFakeCapture(t, 1)
	h := newHarness(t, capture, &fakeTranscriber{text: "[BLANK_AUDIO]"}, nil)

	if err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := h.ctrl.StopAndInsert(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	waitFor(t, "noise discard", func() bool {
		return h.ind.sawReason(domain.ReasonNoiseDiscarded)
	})
	if got := h.sink.inserted(); len(got) != 0 {
		t.Fatalf("noise was inserted: %v", got)
	}
	if got := h.ctrl.Status().State; got != domain.StateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
	waitRemoved(t, capture.session(0).artifact)
}

func TestTripleStopAbortsTranscription(t *testing.T) {
	t.Parallel()

	capture := newFakeCapture(t, 1)
	tr := &fakeTranscriber{text: "late result", block: make(chan struct{})}
	h := newHarness(t, capture, tr, nil)

	ctx := context.Background()
	if err := h.ctrl.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := h.ctrl.StopAndInsert(ctx); err != nil {
		t.Fatalf("first stop failed: %v", err)
	}
	waitFor(t, "loading state", func() bool {
		return h.ctrl.Status().State == domain.StateLoading
	})

	// Second stop flags cancel-on-completion, third aborts immediately.
	if err := h.ctrl.Stop(ctx); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
	waitFor(t, "stopping state", func() bool {
		return h.ctrl.Status().State == domain.StateStopping
	})
	if err := h.ctrl.Stop(ctx); err != nil {
		t.Fatalf("third stop failed: %v", err)
	}

	waitFor(t, "abort to idle", func() bool {
		return h.ctrl.Status().State == domain.StateIdle
	})
	if !h.ind.sawReason(domain.ReasonTranscriptionCancelled) {
		t.Fatalf("cancellation was not reported")
	}
	if got := h.sink.inserted(); len(got) != 0 {
		t.Fatalf("aborted result was inserted: %v", got)
	}
	// The worker still owns cleanup after the abort.
	waitRemoved(t, capture.session(0).artifact)
	if n := h.tr.callCount(); n != 1 {
		t.Fatalf("transcriber called %d times, want 1", n)
	}
}

func TestDoubleStopDiscardsCompletedResult(t *testing.T) {
	t.Parallel()

	capture := newFakeCapture(t, 1)
	tr := &fakeTranscriber{text: "finished anyway", block: make(chan struct{})}
	h := newHarness(t, capture, tr, nil)

	ctx := context.Background()
	if err := h.ctrl.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := h.ctrl.StopAndInsert(ctx); err != nil {
		t.Fatalf("first stop failed: %v", err)
	}
	if err := h.ctrl.Stop(ctx); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
	waitFor(t, "stopping state", func() bool {
		return h.ctrl.Status().State == domain.StateStopping
	})

	// Let the transcription finish; its result must be dropped.
	close(tr.block)
	waitFor(t, "idle after completion", func() bool {
		return h.ctrl.Status().State == domain.StateIdle
	})
	if got := h.sink.inserted(); len(got) != 0 {
		t.Fatalf("flagged result was inserted: %v", got)
	}
	if !h.ind.sawReason(domain.ReasonTranscriptionCancelled) {
		t.Fatalf("cancellation was not reported")
	}
	waitRemoved(t, capture.session(0).artifact)
}

func TestStopWhileIdleIsNoop(t *testing.T) {
	t.Parallel()

	capture := newFakeCapture(t, 0)
	h := newHarness(t, capture, &fakeTranscriber{}, nil)

	if err := h.ctrl.Stop(context.Background()); err != nil {
		t.Fatalf("idle stop returned %v", err)
	}
	if got := h.ctrl.Status().State; got != domain.StateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
	if n := capture.startCount(); n != 0 {
		t.Fatalf("capture started %d times, want 0", n)
	}
}

func TestOnlyOneTranscriptionTaskOutstanding(t *testing.T) {
	t.Parallel()

	capture := newFakeCapture(t, 1)
	tr := &fakeTranscriber{text: "x", block: make(chan struct{})}
	h := newHarness(t, capture, tr, nil)

	ctx := context.Background()
	if err := h.ctrl.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := h.ctrl.StopAndInsert(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	waitFor(t, "transcriber invoked", func() bool {
		return h.tr.callCount() == 1
	})

	// Another stop while loading must not spawn a second task.
	if err := h.ctrl.StopAndInsert(ctx); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
	waitFor(t, "stopping state", func() bool {
		return h.ctrl.Status().State == domain.StateStopping
	})
	if n := h.tr.callCount(); n != 1 {
		t.Fatalf("transcriber called %d times, want 1", n)
	}
	close(tr.block)
}

func TestCaptureStartFailureStaysIdle(t *testing.T) {
	t.Parallel()

	capture := &fakeCapture{startErr: errors.New("device busy")}
	h := newHarness(t, capture, &fakeTranscriber{}, nil)

	if err := h.ctrl.Start(context.Background()); err == nil {
		t.Fatalf("start should propagate the capture error")
	}
	if got := h.ctrl.Status().State; got != domain.StateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
	if !h.ind.sawError(domain.ErrorCodeCaptureStart) {
		t.Fatalf("capture failure was not reported")
	}
	if !h.ind.sawReason(domain.ReasonCaptureFailed) {
		t.Fatalf("failure transition was not reported")
	}
}

func TestTranscriptionErrorDegradesToEmptyResult(t *testing.T) {
	t.Parallel()

	capture := newFakeCapture(t, 1)
	h := newHarness(t, capture, &fakeTranscriber{err: errors.New("decode failed")}, nil)

	ctx := context.Background()
	if err := h.ctrl.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := h.ctrl.StopAndInsert(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	waitFor(t, "idle after failure", func() bool {
		return h.ctrl.Status().State == domain.StateIdle
	})
	if !h.ind.sawError(domain.ErrorCodeTranscription) {
		t.Fatalf("transcription failure was not reported")
	}
	if got := h.sink.inserted(); len(got) != 0 {
		t.Fatalf("failed result was inserted: %v", got)
	}
	waitRemoved(t, capture.session(0).artifact)
}

func TestModelNotLoadedReportsDistinctCode(t *testing.T) {
	t.Parallel()

	capture := newFakeCapture(t, 1)
	tr := &fakeTranscriber{err: fmt.Errorf("warm-up: %w", ports.ErrModelNotLoaded)}
	h := newHarness(t, capture, tr, nil)

	ctx := context.Background()
	if err := h.ctrl.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := h.ctrl.StopAndInsert(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	waitFor(t, "model error report", func() bool {
		return h.ind.sawError(domain.ErrorCodeModelNotLoaded)
	})
	if h.ind.sawError(domain.ErrorCodeTranscription) {
		t.Fatalf("model error must not double-report as a generic failure")
	}
}

func TestInactiveSegmentIsDiscardedAndEndsSession(t *testing.T) {
	t.Parallel()

	capture := newFakeCapture(t, 2)
	h := newHarness(t, capture, &fakeTranscriber{text: "private"}, nil)

	h.ctrl.SetActive(false)
	if err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	s := capture.session(0)
	s.push(0.5)
	s.push(0.001)
	time.Sleep(10 * time.Millisecond)
	s.push(0.001)

	waitFor(t, "discard to idle", func() bool {
		return h.ind.sawReason(domain.ReasonResultDiscarded)
	})
	if got := h.ctrl.Status().State; got != domain.StateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
	if got := h.sink.inserted(); len(got) != 0 {
		t.Fatalf("inactive result was inserted: %v", got)
	}
	if n := capture.startCount(); n != 1 {
		t.Fatalf("capture restarted while inactive: %d starts", n)
	}
}

func TestEmptyArtifactEndsSessionWithoutTask(t *testing.T) {
	t.Parallel()

	capture := &fakeCapture{sessions: []*fakeSession{{
		levels: make(chan float32, 4),
	}}}
	h := newHarness(t, capture, &fakeTranscriber{text: "x"}, nil)

	ctx := context.Background()
	if err := h.ctrl.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := h.ctrl.StopAndInsert(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if got := h.ctrl.Status().State; got != domain.StateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
	if n := h.tr.callCount(); n != 0 {
		t.Fatalf("empty artifact spawned a transcription")
	}
}

func TestRewriterAppliesBeforeInsertion(t *testing.T) {
	t.Parallel()

	capture := newFakeCapture(t, 1)
	h := newHarness(t, capture, &fakeTranscriber{text: "hello"}, upperRewriter{})

	ctx := context.Background()
	if err := h.ctrl.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := h.ctrl.StopAndInsert(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	waitFor(t, "insertion", func() bool {
		return len(h.sink.inserted()) == 1
	})
	if got := h.sink.inserted()[0]; got != "HELLO" {
		t.Fatalf("inserted %q, want rewritten %q", got, "HELLO")
	}
	if !h.ind.sawReason(domain.ReasonTextInserted) {
		t.Fatalf("insertion was not reported")
	}
}

func TestGestureDrivesFullCycle(t *testing.T) {
	t.Parallel()

	capture := newFakeCapture(t, 1)
	sink := &fakeSink{}
	ind := &fakeIndicator{}
	gesture, err := hotkey.ShortcutGesture("ctrl-space")
	if err != nil {
		t.Fatalf("gesture failed: %v", err)
	}
	ctrl := usecase.New(capture, &fakeTranscriber{text: "typed by voice"}, nil, sink, ind, usecase.Config{
		Gesture:          gesture,
		SilenceThreshold: 0.01,
		SilenceDuration:  time.Hour, // keep silence out of this test
	}, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = ctrl.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	chord := hotkey.KeyTransition{
		Code: hotkey.KeySpace,
		Edge: hotkey.EdgeDown,
		Held: hotkey.ModifierSet(0).With(hotkey.ModControl, hotkey.SideLeft),
		When: time.Now(),
	}

	ctrl.HandleKey(chord)
	waitFor(t, "recording via gesture", func() bool {
		return ctrl.Status().State == domain.StateRecording
	})

	ctrl.HandleKey(chord)
	waitFor(t, "insertion via gesture", func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.texts) == 1
	})
	waitFor(t, "idle after final", func() bool {
		return ctrl.Status().State == domain.StateIdle
	})
}

func TestUpdateConfigReplacesGesture(t *testing.T) {
	t.Parallel()

	capture := newFakeCapture(t, 1)
	h := newHarness(t, capture, &fakeTranscriber{}, nil)

	gesture, err := hotkey.ShortcutGesture("cmd-d")
	if err != nil {
		t.Fatalf("gesture failed: %v", err)
	}
	h.ctrl.UpdateConfig(usecase.Config{
		Gesture:          gesture,
		SilenceThreshold: 0.01,
		SilenceDuration:  time.Hour,
	})

	h.ctrl.HandleKey(hotkey.KeyTransition{
		Code: 'd',
		Edge: hotkey.EdgeDown,
		Held: hotkey.ModifierSet(0).With(hotkey.ModCommand, hotkey.SideLeft),
		When: time.Now(),
	})
	waitFor(t, "recording via replaced gesture", func() bool {
		return h.ctrl.Status().State == domain.StateRecording
	})
}

func TestCommandAfterShutdownReturnsNotRunning(t *testing.T) {
	t.Parallel()

	ctrl := usecase.New(newFakeCapture(t, 0), &fakeTranscriber{}, nil, &fakeSink{}, &fakeIndicator{}, usecase.Config{
		Gesture:          hotkey.Disabled(),
		SilenceThreshold: 0.01,
		SilenceDuration:  time.Second,
	}, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = ctrl.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if err := ctrl.Start(context.Background()); !errors.Is(err, usecase.ErrNotRunning) {
		t.Fatalf("start after shutdown = %v, want ErrNotRunning", err)
	}
}
