package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger writes leveled lines to Out. Debug lines are dropped unless Debug
// is set.
type Logger struct {
	Debug bool
	Out   io.Writer

	mu sync.Mutex
}

func NewLogger(debug bool) *Logger {
	return &Logger{Debug: debug, Out: os.Stdout}
}

func (l *Logger) printf(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "["+level+"] "+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.Debug {
		l.printf("DEBUG", format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	l.printf("INFO", format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.printf("WARN", format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.printf("ERROR", format, args...)
}
