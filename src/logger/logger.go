package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

var levelTags = map[Level]func(a ...interface{}) string{
	LevelDebug:   color.New(color.FgHiBlack).SprintFunc(),
	LevelInfo:    color.New(color.FgGreen).SprintFunc(),
	LevelWarning: color.New(color.FgYellow).SprintFunc(),
	LevelError:   color.New(color.FgRed, color.Bold).SprintFunc(),
}

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality. Children created with
// Named share the parent's output and level.
type Logger struct {
	name   string
	logger *log.Logger
	level  Level
	closer io.Closer
}

// -----------------------------------------------------------------------------

// NewLogger creates the process logger writing to w.
func NewLogger(w io.Writer, name string, level string) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{
		name:   name,
		logger: log.New(w, "", log.LstdFlags),
		level:  ParseLevel(level),
	}
}

// -----------------------------------------------------------------------------

// NewFileLogger logs to stdout and, when logFile is set, appends to that file as well.
func NewFileLogger(logFile, name, level string) (*Logger, error) {
	if logFile == "" {
		return NewLogger(os.Stdout, name, level), nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file '%s': %w", logFile, err)
	}

	l := NewLogger(io.MultiWriter(os.Stdout, f), name, level)
	l.closer = f
	return l, nil
}

// -----------------------------------------------------------------------------

// ParseLevel maps a config string to a Level. Unknown values mean INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARNING", "WARN":
		return LevelWarning
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// -----------------------------------------------------------------------------

// Named returns a child logger tagged with name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		name:   name,
		logger: l.logger,
		level:  l.level,
	}
}

// -----------------------------------------------------------------------------

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

func (l *Logger) emit(level Level, tag, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] %s: %s", l.name, levelTags[level](tag), msg)
}

// -----------------------------------------------------------------------------

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.emit(LevelDebug, "DEBUG", format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.emit(LevelWarning, "WARNING", format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(LevelInfo, "INFO", format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(LevelError, "ERROR", format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] %s: %s", l.name, levelTags[LevelError]("CRITICAL"), msg)
	os.Exit(1)
}
