// Package logger is the process-wide structured logger. Every call takes a
// message followed by alternating key/value pairs.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Options configures the global logger.
type Options struct {
	Level  string    // debug, info, warn, error
	Prefix string    // optional component prefix
	Output io.Writer // defaults to stderr
}

var (
	mu  sync.RWMutex
	std = newLogger(Options{})
)

func newLogger(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := log.InfoLevel
	if opts.Level != "" {
		if lvl, err := log.ParseLevel(strings.ToLower(opts.Level)); err == nil {
			level = lvl
		}
	}
	return log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          opts.Prefix,
	})
}

// Init replaces the global logger. It is safe to call more than once.
func Init(opts Options) {
	l := newLogger(opts)
	mu.Lock()
	std = l
	mu.Unlock()
}

func get() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

// With returns a child logger carrying the given key/value pairs.
func With(keyvals ...any) *log.Logger {
	return get().With(keyvals...)
}

func Debug(message string, keyvals ...any) { get().Debug(message, keyvals...) }

func Info(message string, keyvals ...any) { get().Info(message, keyvals...) }

func Warn(message string, keyvals ...any) { get().Warn(message, keyvals...) }

func Error(message string, keyvals ...any) { get().Error(message, keyvals...) }

// Fatal logs at FATAL level and exits the process.
func Fatal(message string, keyvals ...any) { get().Fatal(message, keyvals...) }
