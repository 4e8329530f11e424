package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Option tweaks how the singleton is built on first use.
type Option func(*options)

type options struct {
	stderr bool
}

// ToStderr routes log output to stderr. Required when stdout carries a
// protocol stream (MCP over stdio).
func ToStderr() Option {
	return func(o *options) { o.stderr = true }
}

// Get returns a singleton logger configured with the provided level.
// The first call initializes the logger; subsequent calls ignore the level
// and options and return the already initialized instance.
func Get(level string, opts ...Option) *Logger {
	once.Do(func() {
		var o options
		for _, opt := range opts {
			opt(&o)
		}
		globalLogger = newZapLogger(level, o)
	})
	return globalLogger
}
