// Package logging wraps go.uber.org/zap for the server's components.
package logging

import "go.uber.org/zap"

// Logger is the structured sink shared by every component: the event
// loop, the worker pool, the request handler, and runtime control.
type Logger = zap.Logger

// New builds a production logger, or a development logger (caller info,
// human-readable timestamps) when dev is true.
func New(dev bool) (*Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Noop returns a logger that discards everything, for tests that don't
// care about log output.
func Noop() *Logger {
	return zap.NewNop()
}
