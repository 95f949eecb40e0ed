package usecase

import (
	"time"

	"pushtalk/internal/domain"
	"pushtalk/internal/hotkey"
)

// All level, key, command, and completion events are marshaled onto the
// controller's single consumer goroutine as typed messages, so the state
// machine and both pure recognizers run without data races.
type message interface{ dictationMessage() }

type keyMsg struct {
	ev hotkey.KeyTransition
}

type levelMsg struct {
	captureID string
	level     float32
	at        time.Time
}

type commandOp uint8

const (
	opStart commandOp = iota + 1
	opStop
	opStopAndInsert
)

type commandMsg struct {
	op    commandOp
	reply chan error
}

type taskDoneMsg struct {
	taskID string
	kind   domain.TranscriptionKind
	text   string
	err    error
}

type configMsg struct {
	cfg Config
}

type activeMsg struct {
	active bool
}

func (keyMsg) dictationMessage()      {}
func (levelMsg) dictationMessage()    {}
func (commandMsg) dictationMessage()  {}
func (taskDoneMsg) dictationMessage() {}
func (configMsg) dictationMessage()   {}
func (activeMsg) dictationMessage()   {}
