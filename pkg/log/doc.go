// Package log provides the logging abstraction used by sketchreel components.
//
// Every component receives a [Logger] rather than a concrete library type, so
// the controller, recorder and adapters can be tested with [NoopLogger] and
// embedded into programs that already have their own logging setup.
//
// # Usage
//
// The CLI writes human-readable lines to stderr through zerolog:
//
//	logger := log.NewZerologAdapter()
//	logger.Info("session started", log.String("session", id))
//
// Components narrow the logger to their own scope:
//
//	recLog := logger.With(log.String("component", "recorder"))
//
// # Custom Loggers
//
// Implement the Logger interface to integrate with existing logging
// infrastructure:
//
//	type MyLogger struct { ... }
//
//	func (l *MyLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Info(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Warn(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Error(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) With(fields ...log.Field) log.Logger { ... }
package log
