// Package logging provides structured logging for both the interactive
// browser and headless commands.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with mode-specific output selection.
type Logger struct {
	zlog   zerolog.Logger
	output io.Writer
	closer io.Closer
}

// NewCLILogger creates a logger for headless commands. Logs go to
// stdout in console format (stderr is reserved for progress bars).
func NewCLILogger() *Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}
	return &Logger{
		zlog:   zerolog.New(output).With().Timestamp().Logger(),
		output: output,
	}
}

// NewFileLogger creates a logger that appends to path. Used while the
// browser owns the terminal: log lines on stdout would corrupt the
// alternate screen.
func NewFileLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Logger{
		zlog:   zerolog.New(file).With().Timestamp().Logger(),
		output: file,
		closer: file,
	}, nil
}

// NewNopLogger creates a logger that discards everything. Used in tests.
func NewNopLogger() *Logger {
	return &Logger{
		zlog:   zerolog.New(io.Discard),
		output: io.Discard,
	}
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// With creates a child logger context.
func (l *Logger) With() zerolog.Context {
	return l.zlog.With()
}

// Output returns the current output writer.
func (l *Logger) Output() io.Writer {
	return l.output
}

// SetLevel applies a named level ("debug", "info", "warn", "error")
// globally. Unknown names fall back to info.
func SetLevel(name string) {
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
