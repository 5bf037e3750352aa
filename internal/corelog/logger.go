// Package corelog provides package-level structured logging for the
// dispatch core: a single shared *zap.SugaredLogger reached through free
// functions, so call sites never thread a logger through every signature.
package corelog

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var singleton atomic.Pointer[zap.SugaredLogger]

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	singleton.Store(l.Sugar())
}

// SetLogger replaces the package-level logger. Intended for process
// bootstrap (to install a development logger) and tests (to install an
// observed logger for assertions).
func SetLogger(l *zap.SugaredLogger) {
	singleton.Store(l)
}

func get() *zap.SugaredLogger {
	return singleton.Load()
}

// Info logs at INFO level.
func Info(args ...any) { get().Info(args...) }

// Infof logs at INFO level with a format string.
func Infof(format string, args ...any) { get().Infof(format, args...) }

// Warn logs at WARN level.
func Warn(args ...any) { get().Warn(args...) }

// Warnf logs at WARN level with a format string.
func Warnf(format string, args ...any) { get().Warnf(format, args...) }

// Error logs at ERROR level.
func Error(args ...any) { get().Error(args...) }

// Errorf logs at ERROR level with a format string.
func Errorf(format string, args ...any) { get().Errorf(format, args...) }

// Debugf logs at DEBUG level with a format string.
func Debugf(format string, args ...any) { get().Debugf(format, args...) }
