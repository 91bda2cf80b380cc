// Package logging is the console logger of the resym command.
package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pterm/pterm"
)

// Level selects which messages are printed.
type Level int

// Log levels, from quietest to noisiest.
const (
	LevelSilent Level = iota
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
)

var levelNames = []string{"silent", "error", "warning", "info", "debug"}

// String returns the name ParseLevel accepts for l.
func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel parses a level name. "warn" is accepted for warning.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(s)
	if s == "warn" {
		return LevelWarning, nil
	}
	for i, name := range levelNames {
		if s == name {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// Logger writes prefixed messages to one writer. It is safe for
// concurrent use.
type Logger struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
}

// New returns a logger writing to w at level.
func New(w io.Writer, level Level) *Logger {
	return &Logger{w: w, level: level}
}

// SetLevel changes the level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Level returns the current level.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Errorf logs a formatted message at the error level. Only a silent
// logger drops it.
func (l *Logger) Errorf(format string, args ...any) {
	l.print(LevelError, pterm.Error, format, args...)
}

// Warnf logs a formatted message at the warning level.
func (l *Logger) Warnf(format string, args ...any) {
	l.print(LevelWarning, pterm.Warning, format, args...)
}

// Infof logs a formatted message at the info level.
func (l *Logger) Infof(format string, args ...any) {
	l.print(LevelInfo, pterm.Info, format, args...)
}

// Debugf logs a formatted message at the debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.print(LevelDebug, pterm.Debug, format, args...)
}

func (l *Logger) print(level Level, p pterm.PrefixPrinter, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level < level {
		return
	}
	// The debug printer stays silent unless pterm debug output is on.
	p.Debugger = false
	fmt.Fprint(l.w, p.Sprintln(fmt.Sprintf(format, args...)))
}
