// Package runlog owns the run log: a timestamped, leveled file in the
// system temp directory that captures every run in full detail regardless
// of console verbosity. Verbose mode mirrors entries to stderr.
package runlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Verbosity selects how much output reaches the console. The log file
// always receives everything down to debug.
type Verbosity int

const (
	// Silent suppresses console progress entirely.
	Silent Verbosity = iota
	// Normal shows per-step progress lines.
	Normal
	// Verbose additionally mirrors the run log to stderr.
	Verbose
)

func (v Verbosity) String() string {
	switch v {
	case Silent:
		return "silent"
	case Verbose:
		return "verbose"
	default:
		return "normal"
	}
}

// ParseVerbosity maps a flag value to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch s {
	case "silent":
		return Silent, nil
	case "normal", "":
		return Normal, nil
	case "verbose":
		return Verbose, nil
	default:
		return Normal, fmt.Errorf("unknown verbosity %q (silent, normal, verbose)", s)
	}
}

// Logger is the run-scoped logrus instance plus the file backing it.
type Logger struct {
	*logrus.Logger
	// Path is printed at the end of a run so failures can point at it.
	Path string
	file *os.File
}

// New opens <temp>/mobup-<runID>.log and returns a debug-level logger
// writing to it.
func New(runID string, v Verbosity) (*Logger, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("mobup-%s.log", runID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log %s: %w", path, err)
	}

	l := logrus.New()
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		DisableColors:   true,
	})
	var out io.Writer = f
	if v == Verbose {
		out = io.MultiWriter(f, os.Stderr)
	}
	l.SetOutput(out)

	return &Logger{Logger: l, Path: path, file: f}, nil
}

// StepEntry returns an entry scoped to one pipeline step.
func (l *Logger) StepEntry(step string) *logrus.Entry {
	return l.WithField("step", step)
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Discard returns a logger that drops everything. Tests and the MCP server
// use it where no run log belongs on disk.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l}
}
