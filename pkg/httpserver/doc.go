// Package httpserver runs the storefront API with graceful shutdown and
// serves the health endpoint.
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithStopHook("sessions", func(context.Context) error { return sessions.Close() }),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// Run returns once the context is cancelled or SIGINT/SIGTERM arrives, the
// in-flight requests finished and every stop hook ran, all within the
// shutdown timeout.
package httpserver
