// Package logger defines the leveled logger used by the pipeline packages.
package logger

// Logger logs printf-style messages at four levels.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// With returns a logger adding fields to every line, e.g. the project
	// or run a stage works on.
	With(fields map[string]any) Logger
}
