// Package obslog provides the engine's structured logger: a thin
// wrapper around github.com/charmbracelet/log exposing a default
// instance plus named sub-loggers, a LogLevel enum, and global
// Debug/Info/Warn/Error package functions, so every package logs
// through one configurable sink instead of writing to stderr directly.
package obslog

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Level mirrors the teacher's LogLevel enum, mapped onto
// charmbracelet/log's Level type so callers never import that package
// directly.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	case LevelFatal:
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Logger is a named, leveled structured logger. The zero value is not
// usable; obtain one via Default() or New().
type Logger struct {
	inner *log.Logger
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// Default returns the process-wide default logger, writing to stderr
// at INFO level with a timestamp and caller-reported prefix, created
// once on first use.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = New(os.Stderr, LevelInfo)
	})
	return defaultLogger
}

// New constructs a Logger writing to w at the given level.
func New(w io.Writer, level Level) *Logger {
	inner := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	})
	inner.SetLevel(level.charm())
	return &Logger{inner: inner}
}

// Named returns a sub-logger tagged with component, e.g. the track or
// processor id driving a log line, without mutating the receiver.
func (l *Logger) Named(component string) *Logger {
	return &Logger{inner: l.inner.With("component", component)}
}

// With returns a sub-logger carrying the given key-value pairs on
// every subsequent line.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{inner: l.inner.With(keyvals...)}
}

// SetLevel adjusts the minimum level this logger emits.
func (l *Logger) SetLevel(level Level) {
	l.inner.SetLevel(level.charm())
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.inner.Debug(msg, keyvals...) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.inner.Info(msg, keyvals...) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.inner.Warn(msg, keyvals...) }
func (l *Logger) Error(msg string, keyvals ...any) { l.inner.Error(msg, keyvals...) }
func (l *Logger) Fatal(msg string, keyvals ...any) { l.inner.Fatal(msg, keyvals...) }

// Debug logs at debug level on the default logger.
func Debug(msg string, keyvals ...any) { Default().Debug(msg, keyvals...) }

// Info logs at info level on the default logger.
func Info(msg string, keyvals ...any) { Default().Info(msg, keyvals...) }

// Warn logs at warn level on the default logger.
func Warn(msg string, keyvals ...any) { Default().Warn(msg, keyvals...) }

// Error logs at error level on the default logger.
func Error(msg string, keyvals ...any) { Default().Error(msg, keyvals...) }

// Named returns a component sub-logger of the default logger.
func Named(component string) *Logger { return Default().Named(component) }
