// Package logging provides the leveled, field-carrying logger shared by the
// composer engine, its host session, and the command-line tools.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents the severity level of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown names map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes leveled log lines with an optional prefix and key/value fields.
// Loggers derived with WithField share the parent's output and level.
type Logger struct {
	core     *loggerCore
	prefix   string
	fields   map[string]any
	disabled bool
}

// loggerCore holds the state shared between a logger and its derivatives.
type loggerCore struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
	now    func() time.Time
}

// Config configures the logger.
type Config struct {
	// Level is the minimum log level to output.
	Level Level
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Prefix is prepended to all log messages.
	Prefix string
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
		Prefix: "composer",
	}
}

// New creates a new logger with the given configuration.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return &Logger{
		core: &loggerCore{
			level:  cfg.Level,
			output: cfg.Output,
			now:    time.Now,
		},
		prefix: cfg.Prefix,
		fields: make(map[string]any),
	}
}

// WithField returns a new logger with the given field added.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.WithFields(map[string]any{key: value})
}

// WithFields returns a new logger with the given fields added.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil {
		return nil
	}
	newFields := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &Logger{
		core:     l.core,
		prefix:   l.prefix,
		fields:   newFields,
		disabled: l.disabled,
	}
}

// WithComponent returns a new logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	if l == nil || l.core == nil {
		return
	}
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.level = level
}

// Level returns the minimum log level.
func (l *Logger) Level() Level {
	if l == nil || l.core == nil {
		return LevelError
	}
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	return l.core.level
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	if l == nil || l.core == nil {
		return
	}
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.log(LevelError, msg, args...)
}

// log writes a log message if the level is enabled.
// A nil logger discards everything.
func (l *Logger) log(level Level, msg string, args ...any) {
	if l == nil || l.disabled || l.core == nil {
		return
	}

	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	if level < l.core.level || l.core.output == nil {
		return
	}

	timestamp := l.core.now().Format("2006-01-02T15:04:05.000")

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var b strings.Builder
	b.WriteString(timestamp)
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	if l.prefix != "" {
		b.WriteString(l.prefix)
		b.WriteString(": ")
	}
	b.WriteString(msg)

	// Sorted so that output is stable across runs.
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, l.fields[k])
		}
		b.WriteString("}")
	}
	b.WriteString("\n")

	_, _ = io.WriteString(l.core.output, b.String())
}

// Null returns a logger that discards all output.
func Null() *Logger {
	return &Logger{disabled: true}
}

var (
	defaultLogger     *Logger
	defaultLoggerOnce sync.Once
	defaultLoggerMu   sync.Mutex
)

// Default returns the process-wide logger.
// Creates a default logger on first call if none was set.
func Default() *Logger {
	defaultLoggerOnce.Do(func() {
		defaultLoggerMu.Lock()
		defer defaultLoggerMu.Unlock()
		if defaultLogger == nil {
			defaultLogger = New(DefaultConfig())
		}
	})
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
// Should be called early in startup.
func SetDefault(l *Logger) {
	defaultLoggerOnce.Do(func() {})
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = l
}
