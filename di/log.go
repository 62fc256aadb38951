package di

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// pkgLogger is the package's log sink. It starts fully disabled so the
// library is silent unless an application installs a logger, typically one
// built by the dilog package.
var pkgLogger atomic.Pointer[logrus.Logger]

func init() {
	pkgLogger.Store(discardLogger())
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// SetLogger routes registration, resolution and scope logging to l. Debug
// level covers registrations, scope creation and locking; Trace level covers
// per-resolution events. Passing nil restores the silent default.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = discardLogger()
	}
	pkgLogger.Store(l)
}

// logger returns the current sink. Callers gate field construction on
// IsLevelEnabled so disabled logging costs one atomic load.
func logger() *logrus.Logger {
	return pkgLogger.Load()
}
