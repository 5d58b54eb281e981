// Package dglog provides the structured logging the engine emits around
// traversal boundaries, topological ordering and fatal conditions. It is
// deliberately ambient: the core algorithms in topic/graph/lag never depend
// on dglog for correctness, only for observability.
package dglog

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
)

// Level mirrors logrus levels without exposing the logrus dependency to
// every caller site.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config configures a new Logger.
type Config struct {
	Level  Level  // minimum level that is emitted
	Format string // "json" or "text"
}

// DefaultConfig returns a Config with sensible defaults for local use.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Format: "text"}
}

// Logger is a field-carrying structured logger scoped to one graph or
// container instance.
type Logger struct {
	entry *logrus.Entry
}

// New builds a Logger from Config, routing error-level records to stderr
// and everything else to stdout.
func New(cfg Config) *Logger {
	base := logrus.New()
	switch cfg.Level {
	case LevelDebug:
		base.SetLevel(logrus.DebugLevel)
	case LevelWarn:
		base.SetLevel(logrus.WarnLevel)
	case LevelError:
		base.SetLevel(logrus.ErrorLevel)
	default:
		base.SetLevel(logrus.InfoLevel)
	}
	if cfg.Format == "json" {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	base.SetOutput(&outputSplitter{})
	return &Logger{entry: logrus.NewEntry(base)}
}

// Noop returns a Logger that discards everything, for use when the caller
// does not want graph/container diagnostics.
func Noop() *Logger {
	base := logrus.New()
	base.SetOutput(nopWriter{})
	return &Logger{entry: logrus.NewEntry(base)}
}

// With returns a Logger scoped with the additional fields.
func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

func (l *Logger) Debug(msg string) { l.entry.Debug(msg) }
func (l *Logger) Info(msg string)  { l.entry.Info(msg) }
func (l *Logger) Warn(msg string)  { l.entry.Warn(msg) }
func (l *Logger) Error(msg string) { l.entry.Error(msg) }

// outputSplitter routes error-level log lines to stderr and everything else
// to stdout by inspecting the rendered line for "level=error" (text format)
// or "level":"error" (JSON format).
type outputSplitter struct{}

func (outputSplitter) Write(p []byte) (int, error) {
	if containsErrorLevel(p) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

func containsErrorLevel(p []byte) bool {
	return bytes.Contains(p, []byte("level=error")) ||
		bytes.Contains(p, []byte(`"level":"error"`))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
