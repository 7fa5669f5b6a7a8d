// Package status holds the single-line operator status.
package status

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Reporter receives the outcome of every operator action.
type Reporter interface {
	Report(msg string)
}

// Line is a Reporter that keeps only the latest message. Each report
// overwrites the previous one; there is no history and no severity.
type Line struct {
	mu     sync.RWMutex
	msg    string
	out    io.Writer
	logger *slog.Logger
}

// NewLine creates a Line. out and logger may be nil.
func NewLine(out io.Writer, logger *slog.Logger) *Line {
	return &Line{out: out, logger: logger}
}

// Report replaces the current message and echoes it.
func (l *Line) Report(msg string) {
	l.mu.Lock()
	l.msg = msg
	l.mu.Unlock()

	if l.out != nil {
		fmt.Fprintln(l.out, "Status: "+msg)
	}
	if l.logger != nil {
		l.logger.Info("status", "message", msg)
	}
}

// Message returns the latest message, or "" before the first report.
func (l *Line) Message() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.msg
}

// Text returns the line as displayed.
func (l *Line) Text() string {
	return "Status: " + l.Message()
}
