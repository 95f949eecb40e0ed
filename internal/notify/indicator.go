package notify

import (
	"go.uber.org/zap"

	"pushtalk/internal/domain"
)

// LogIndicator is the default Indicator: structured logs plus audio cues.
type LogIndicator struct {
	log  *zap.SugaredLogger
	cues *Cues
}

func NewLogIndicator(log *zap.SugaredLogger, cues *Cues) *LogIndicator {
	return &LogIndicator{log: log, cues: cues}
}

func (i *LogIndicator) StateChanged(state domain.DictationState, reason domain.StateReason) {
	i.log.Infow("dictation state", "state", state, "reason", reason)

	switch reason {
	case domain.ReasonRecordingStarted, domain.ReasonRecordingResumed:
		i.cues.RecordStart()
	case domain.ReasonTextInserted, domain.ReasonRecordingCancelled,
		domain.ReasonTranscriptionCancelled, domain.ReasonNoiseDiscarded:
		i.cues.RecordStop()
	case domain.ReasonTranscriptionFailed, domain.ReasonCaptureFailed:
		i.cues.Error()
	}
}

func (i *LogIndicator) DictationError(code domain.ErrorCode, detail string) {
	i.log.Warnw("dictation error", "code", code, "detail", detail)
	i.cues.Error()
}
