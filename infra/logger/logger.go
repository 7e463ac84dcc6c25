package logger

import corelogger "github.com/kilianp07/fieldroute/core/logger"

// Logger is the core logging interface.
type Logger = corelogger.Logger

// NopLogger discards everything. Tests use it.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}
func (n NopLogger) With(map[string]any) Logger  { return n }

// New returns a Logger tagging lines with component.
func New(component string) Logger {
	return NewZerologLogger(component)
}
