// Package logger builds log/slog loggers for the service.
//
// WithEnvironment picks a level and format from APP_ENV, Config lets
// LOG_LEVEL and LOG_FORMAT override it, and context extractors add
// request-scoped attributes such as the request id to every record:
//
//	log := logger.New(append([]logger.Option{
//		logger.WithEnvironment(os.Getenv("APP_ENV"), "integrations"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	}, cfg.Options()...)...)
//
// The attribute helpers (Error, Command, StorageKey, Bucket, ...) keep key
// names consistent across packages.
package logger
