// Package textsink provides TextSink implementations for recognized text.
package textsink

import (
	"fmt"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
)

// Clipboard inserts recognized text by replacing the system clipboard.
// Insertion is fire-and-forget; pasting stays under the user's control.
type Clipboard struct {
	log *zap.SugaredLogger
}

func NewClipboard(log *zap.SugaredLogger) *Clipboard {
	return &Clipboard{log: log}
}

func (c *Clipboard) Insert(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	c.log.Debugw("text copied to clipboard", "chars", len(text))
	return nil
}

// Logger is a dry-run sink that only logs recognized text.
type Logger struct {
	log *zap.SugaredLogger
}

func NewLogger(log *zap.SugaredLogger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) Insert(text string) error {
	l.log.Infow("recognized text", "text", text)
	return nil
}
