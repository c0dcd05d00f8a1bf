// Package health provides liveness, readiness and version endpoints for the
// admin listener.
//
// Liveness answers as long as the process runs. Readiness runs every
// registered component check concurrently, each bounded by the checker's
// timeout, and answers 503 when any of them fails:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("server", func(ctx context.Context) error {
//	    return srv.Health()
//	})
//	checker.RegisterCheck("storage", func(ctx context.Context) error {
//	    _, err := backend.List(ctx)
//	    return err
//	})
//
//	mux := http.NewServeMux()
//	health.Mount(mux, checker, health.VersionInfo{Version: "1.0.0"})
package health
