// Package log configures the process-wide slog logger and the field names
// shared by every component.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/lumberjack.v2"
)

// Logger wraps slog.Logger with the component it logs for.
type Logger struct {
	*slog.Logger
	base      slog.Handler
	component string
	closer    io.Closer
}

// Config holds logger configuration. When File is set, records go to
// stdout and to a size-rotated file.
type Config struct {
	Level     string
	Component string
	File      string

	// Output overrides stdout, mainly for tests.
	Output io.Writer
}

// DefaultConfig returns sensible defaults for logging
func DefaultConfig() Config {
	return Config{Level: "info", Component: ComponentApp}
}

// New creates a new logger with the given configuration
func New(cfg Config) *Logger {
	var out io.Writer = os.Stdout
	if cfg.Output != nil {
		out = cfg.Output
	}

	var closer io.Closer
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    20,
			MaxBackups: 5,
			MaxAge:     30,
			LocalTime:  true,
		}
		out = io.MultiWriter(out, rotating)
		closer = rotating
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: ParseLevel(cfg.Level)})
	component := cfg.Component
	if component == "" {
		component = ComponentApp
	}
	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, component),
		base:      handler,
		component: component,
		closer:    closer,
	}
}

// ParseLevel maps a level name to slog, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new logger with the given attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), base: l.base, component: l.component}
}

// WithComponent returns a logger for another component writing to the same
// sink. Attributes added with With are not carried over.
func (l *Logger) WithComponent(component string) *slog.Logger {
	return slog.New(l.base).With(FieldComponent, component)
}

// Component returns the logger's component name
func (l *Logger) Component() string {
	return l.component
}

// Close flushes the rotating file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// SetDefault sets the default logger for the application
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
