// Package logger builds the service's slog.Logger and holds the attribute
// helpers every component logs with.
//
// New picks a text or JSON handler, applies static attributes and wraps the
// handler so registered ContextExtractor callbacks can add request-scoped
// values such as the request id:
//
//	log := logger.New(
//		logger.WithEnvironment("production", "storefront"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "cart updated", logger.Component("cart"), logger.SessionKey(key))
//
// Error returns an empty Attr for a nil error, so call sites need no nil
// check. SessionKey truncates keys before they are logged.
package logger
