// Package logger builds structured loggers on top of log/slog.
//
// Loggers are created with functional options and can pull request-scoped
// attributes (request ID, command ID) out of the context automatically:
//
//	log := logger.New(
//		logger.WithDevelopment("pluginbridge"),
//		logger.WithLevel(slog.LevelDebug),
//	)
//
//	log.InfoContext(ctx, "result stored",
//		logger.Component("correlation"),
//		logger.CommandID(id),
//		logger.Duration(time.Since(start)),
//	)
//
// Attribute helpers return an empty slog.Attr for nil or empty input, so
// they can be passed unconditionally:
//
//	log.Error("publish failed", logger.Error(err)) // err may be nil
//
// Use WithContextValue or WithContextExtractors to inject values stored in
// the context by middleware:
//
//	log := logger.New(
//		logger.WithProduction("pluginbridge"),
//		logger.WithContextExtractors(middleware.RequestIDExtractor),
//	)
package logger
