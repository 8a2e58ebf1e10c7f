package logger

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Cron adapts a slog.Logger to the cron.Logger interface, tagging entries with component.
func Cron(log *slog.Logger, component string) cron.Logger {
	if log == nil {
		log = slog.Default()
	}
	return cronLogger{log: log.With("component", component)}
}

type cronLogger struct {
	log *slog.Logger
}

// Info is used by cron for schedule/wake events, which are noisy; map to debug.
func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
