// Package dilog builds the loggers the container reports through.
//
// The di package is silent by default; dilog constructs a configured
// *logrus.Logger and installs it there. Formats map to logrus formatters:
// JSON for aggregated production logs, Pretty for colorful development
// output, Compact for single-line text. Level, format and caller reporting
// come from the builder, or from LOG_LEVEL / LOG_FORMAT / LOG_CALLER via
// FromEnv.
//
//	dilog.InitJSON()                      // production: JSON at debug level
//	dilog.InitPretty()                    // development: colors at debug level
//
//	logger := dilog.NewBuilder().          // custom
//		Level(logrus.TraceLevel).
//		Format(dilog.FormatCompact).
//		WithCaller().
//		Install()
package dilog
