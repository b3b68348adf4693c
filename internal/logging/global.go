// Package logging provides structured logging for dotup.
// This file holds the process-wide logger.
package logging

import "sync/atomic"

// global stays nil until InitGlobal runs; Global falls back to a shared
// no-op logger so packages can log before the CLI has configured anything.
var (
	global atomic.Pointer[Logger]
	noop   = NewNoop()
)

// Global returns the process-wide logger, or a no-op logger when none has
// been set.
func Global() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return noop
}

// SetGlobal replaces the process-wide logger. Passing nil reverts to the
// no-op logger.
func SetGlobal(l *Logger) {
	global.Store(l)
}

// InitGlobal builds a logger from the configuration and installs it as the
// process-wide logger.
func InitGlobal(config *Config) error {
	l, err := New(config)
	if err != nil {
		return err
	}
	SetGlobal(l)
	return nil
}

// CloseGlobal closes and detaches the process-wide logger.
func CloseGlobal() error {
	if l := global.Swap(nil); l != nil {
		return l.Close()
	}
	return nil
}

// Debug logs a debug message on the process-wide logger.
func Debug(msg string, args ...any) {
	Global().Debug(msg, args...)
}

// Info logs an info message on the process-wide logger.
func Info(msg string, args ...any) {
	Global().Info(msg, args...)
}

// Warn logs a warning on the process-wide logger.
func Warn(msg string, args ...any) {
	Global().Warn(msg, args...)
}

// Error logs an error on the process-wide logger.
func Error(msg string, args ...any) {
	Global().Error(msg, args...)
}

// With returns a child of the process-wide logger with the given
// attributes attached.
func With(args ...any) *Logger {
	return Global().With(args...)
}
