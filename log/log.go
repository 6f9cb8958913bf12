// Package log provides the structured logger the driver and dispatcher
// packages use, in the style of estuary-flow's go/flow/ops.Logger: a thin
// wrapper around logrus.Fields rather than positional printf logging, so
// log lines carry named fields (the driver logs state transitions with
// from/to and dropped fragments with err).
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is re-exported so callers don't need a direct logrus import.
type Fields = logrus.Fields

// Logger is the subset of *logrus.Entry the driver/dispatcher packages use.
type Logger interface {
	WithFields(Fields) Logger
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
}

type entry struct{ e *logrus.Entry }

func (l entry) WithFields(f Fields) Logger { return entry{l.e.WithFields(f)} }
func (l entry) Debug(args ...any)          { l.e.Debug(args...) }
func (l entry) Info(args ...any)           { l.e.Info(args...) }
func (l entry) Warn(args ...any)           { l.e.Warn(args...) }
func (l entry) Error(args ...any)          { l.e.Error(args...) }

// New builds a Logger writing JSON lines to stderr, the default for a
// headless component with no attached terminal.
func New(component string) Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.JSONFormatter{})
	return entry{l.WithField("component", component)}
}

// NewText builds a Logger using logrus's human-readable formatter, for
// cmd/ucictl's interactive mode.
func NewText(component string) Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return entry{l.WithField("component", component)}
}
