package domain

// DictationState models the dictation session lifecycle.
type DictationState string

const (
	// StateIdle means no capture and no transcription is outstanding.
	StateIdle DictationState = "idle"
	// StateRecording means microphone capture is running.
	StateRecording DictationState = "recording"
	// StateLoading means a transcription is in flight.
	StateLoading DictationState = "loading"
	// StateStopping means a second stop arrived while loading; the in-flight
	// transcription result will be discarded when it completes.
	StateStopping DictationState = "stopping"
)

// StateReason provides a structured reason for state transitions.
type StateReason string

const (
	ReasonStartup                StateReason = "startup"
	ReasonRecordingStarted       StateReason = "recording_started"
	ReasonRecordingResumed       StateReason = "recording_resumed"
	ReasonRecordingCancelled     StateReason = "recording_cancelled"
	ReasonSilenceDetected        StateReason = "silence_detected"
	ReasonTranscribing           StateReason = "transcribing"
	ReasonTextInserted           StateReason = "text_inserted"
	ReasonNoiseDiscarded         StateReason = "noise_discarded"
	ReasonResultDiscarded        StateReason = "result_discarded"
	ReasonTranscriptionCancelled StateReason = "transcription_cancelled"
	ReasonTranscriptionFailed    StateReason = "transcription_failed"
	ReasonCaptureFailed          StateReason = "capture_failed"
)

// ErrorCode identifies non-fatal dictation errors surfaced to the operator.
type ErrorCode string

const (
	ErrorCodeCaptureStart   ErrorCode = "capture_start"
	ErrorCodeCaptureStop    ErrorCode = "capture_stop"
	ErrorCodeModelNotLoaded ErrorCode = "model_not_loaded"
	ErrorCodeTranscription  ErrorCode = "transcription"
	ErrorCodeTextSink       ErrorCode = "text_sink"
	ErrorCodeInvalidBinding ErrorCode = "invalid_binding"
)

// TranscriptionKind distinguishes silence-triggered segments, which resume
// recording when done, from the final segment of an explicit stop.
type TranscriptionKind string

const (
	KindSegment TranscriptionKind = "segment"
	KindFinal   TranscriptionKind = "final"
)

// Status summarizes the current controller status.
type Status struct {
	State  DictationState `json:"state"`
	Active bool           `json:"active"`
}
