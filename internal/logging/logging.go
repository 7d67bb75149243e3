// Package logging provides small helpers around log/slog so that components
// log errors and resource cleanup the same way everywhere.
package logging

import (
	"io"
	"log/slog"
)

// ForComponent returns the default logger tagged with a component name.
func ForComponent(name string) *slog.Logger {
	return slog.Default().With(slog.String("component", name))
}

// LogError logs an error with a consistent attribute shape.
func LogError(logger *slog.Logger, msg string, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error(msg, slog.String("error", err.Error()))
}

// SafeCloseWithLogging closes a resource and logs a failure instead of
// dropping it. Intended for defer sites where the close error is not
// actionable.
func SafeCloseWithLogging(c io.Closer, logger *slog.Logger, resource string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("failed to close resource",
			slog.String("resource", resource),
			slog.String("error", err.Error()))
	}
}
