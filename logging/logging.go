// Package logging provides the shared logrus base logger used across
// foundrycore's packages.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

var base = logrus.New()

// For returns a logger scoped to a component, mirroring the
// logger.WithFields(logrus.Fields{...}) convention used throughout the
// codebase.
func For(component string) *logrus.Entry {
	return base.WithFields(logrus.Fields{"component": component})
}

// SetLevel adjusts the verbosity of the shared base logger. Hosts embedding
// foundrycore call this during startup; library code never calls it.
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}

// SetOutput redirects the shared base logger, used by tests that want to
// assert on emitted log lines.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}
