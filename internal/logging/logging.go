// Package logging resolves the process logger.
package logging

import (
	glog "github.com/goliatone/go-logger/glog"
)

// Logger is the structured logger used across the service.
type Logger = glog.Logger

// New resolves the named logger from the default go-logger provider.
func New(name string) Logger {
	_, logger := glog.Resolve(name, nil, nil)
	return glog.Ensure(logger)
}

// Ensure returns logger, or a no-op logger when it is nil.
func Ensure(logger Logger) Logger {
	return glog.Ensure(logger)
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return glog.Nop()
}
