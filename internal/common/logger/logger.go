// Package logger provides the leveled logger used across versioneye-slack.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelQuiet // No output
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// String returns the upper-case level name
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "QUIET"
}

// ParseLevel converts a configured level name ("debug", "info", "warn",
// "error", "quiet") to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "quiet", "off", "none":
		return LevelQuiet, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// Logger writes human-oriented messages to the terminal and, optionally,
// timestamped lines to a log file.
type Logger struct {
	level      Level
	output     io.Writer
	fileOutput *os.File
	mu         sync.Mutex
	nowFunc    func() time.Time
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Default returns the default logger instance
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(os.Stderr)
	})
	return defaultLogger
}

// New creates a logger at Info level writing to w
func New(w io.Writer) *Logger {
	return &Logger{
		level:   LevelInfo,
		output:  w,
		nowFunc: time.Now,
	}
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the current logging level
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetVerbose enables debug output
func (l *Logger) SetVerbose(verbose bool) {
	if verbose {
		l.SetLevel(LevelDebug)
	}
}

// SetQuiet disables all output except errors
func (l *Logger) SetQuiet(quiet bool) {
	if quiet {
		l.SetLevel(LevelError)
	}
}

// SetOutput redirects terminal output
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// EnableFileLogging appends every message, regardless of level, to
// versioneye-slack.log under LogDir.
func (l *Logger) EnableFileLogging() error {
	logDir, err := LogDir()
	if err != nil {
		return err
	}
	return l.enableFileLoggingAt(filepath.Join(logDir, "versioneye-slack.log"))
}

func (l *Logger) enableFileLoggingAt(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if l.fileOutput != nil {
		l.fileOutput.Close()
	}
	l.fileOutput = f
	return nil
}

// Close closes the log file if open
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fileOutput != nil {
		l.fileOutput.Close()
		l.fileOutput = nil
	}
}

// LogDir returns $XDG_STATE_HOME/versioneye-slack/logs
func LogDir() (string, error) {
	xdgState := os.Getenv("XDG_STATE_HOME")
	if xdgState == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		xdgState = filepath.Join(home, ".local", "state")
	}

	return filepath.Join(xdgState, "versioneye-slack", "logs"), nil
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.fileOutput != nil {
		now := time.Now
		if l.nowFunc != nil {
			now = l.nowFunc
		}
		fmt.Fprintf(l.fileOutput, "[%s] %s: %s\n", now().Format("2006-01-02 15:04:05"), level, msg)
	}

	if level < l.level || l.output == nil {
		return
	}

	switch level {
	case LevelWarn:
		msg = "warning: " + msg
	case LevelError:
		msg = "error: " + msg
	}
	fmt.Fprintln(l.output, msg)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Package-level convenience functions
func Debug(format string, args ...interface{}) { Default().Debug(format, args...) }
func Info(format string, args ...interface{})  { Default().Info(format, args...) }
func Warn(format string, args ...interface{})  { Default().Warn(format, args...) }
func Error(format string, args ...interface{}) { Default().Error(format, args...) }
func SetVerbose(v bool)                        { Default().SetVerbose(v) }
func SetQuiet(q bool)                          { Default().SetQuiet(q) }
func SetLevel(level Level)                     { Default().SetLevel(level) }
func SetOutput(w io.Writer)                    { Default().SetOutput(w) }
