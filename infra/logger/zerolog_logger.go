package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.RWMutex
	output  io.Writer = os.Stderr
	level             = zerolog.InfoLevel
	console           = false
	file    *lumberjack.Logger
)

// Options configures the loggers created after Configure.
type Options struct {
	// Level is a zerolog level name.
	Level string
	// Format is "json" or "console". Empty keeps JSON unless APP_ENV=dev.
	Format string
	// File, when set, receives a copy of every line and is rotated once it
	// reaches MaxSizeMB.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Configure applies o. Command output goes to stdout, so logs go to stderr
// and optionally to a rotated file.
func Configure(o Options) error {
	lvl := zerolog.InfoLevel
	if o.Level != "" {
		var err error
		if lvl, err = parseLevel(o.Level); err != nil {
			return err
		}
	}
	var w io.Writer = os.Stderr
	var f *lumberjack.Logger
	if o.File != "" {
		f = &lumberjack.Logger{Filename: o.File, MaxSize: o.MaxSizeMB, MaxBackups: o.MaxBackups}
		w = io.MultiWriter(os.Stderr, f)
	}
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
	}
	file, output, level = f, w, lvl
	console = o.Format == "console" || (o.Format == "" && strings.EqualFold(os.Getenv("APP_ENV"), "dev"))
	return nil
}

// Close releases the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	output = os.Stderr
	return err
}

// SetOutput redirects loggers created afterwards.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetLevel applies a level name to loggers created afterwards. It reports
// false for unknown names.
func SetLevel(name string) bool {
	lvl, err := parseLevel(name)
	if err != nil {
		return false
	}
	mu.Lock()
	level = lvl
	mu.Unlock()
	return true
}

func parseLevel(name string) (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return lvl, nil
}

// ZerologLogger implements Logger with rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a logger whose lines carry a component field.
func NewZerologLogger(component string) Logger {
	mu.RLock()
	w, lvl, pretty := output, level, console
	mu.RUnlock()
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

func (l *ZerologLogger) With(fields map[string]any) Logger {
	return &ZerologLogger{log: l.log.With().Fields(fields).Logger()}
}
