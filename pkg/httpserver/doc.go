// Package httpserver runs an http.Handler with context-driven graceful
// shutdown and provides JSON liveness and readiness handlers.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Runner(ctx, router))
//
// Run returns nil after a clean shutdown triggered by ctx. Signal handling is
// left to the caller, typically via signal.NotifyContext in main.
//
// ReadinessHandler runs named checks concurrently under a shared timeout and
// answers 503 with the failing check's error when any of them fail.
package httpserver
