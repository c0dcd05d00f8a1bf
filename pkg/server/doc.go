// Package server runs the connection supervisor of the caching proxy.
//
// A Server owns a TCP listener and handles each accepted connection on its
// own goroutine. Every connection moves through the states
//
//	Accepted -> Reading -> Parsed -> Dispatched -> Closed
//
// A permit from the connection pool is taken before any socket I/O and
// released when the connection closes, whatever the path to Closed.
// Unparseable requests are answered with 400 and panics in the handler
// with 500. Neither affects other connections.
//
// # Basic Usage
//
//	ln, err := server.Listen(ctx, cfg.Server.ListenAddress, cfg.Server.MaxClients)
//	if err != nil {
//	    return err
//	}
//
//	srv := server.NewServer(&cfg.Server, handler, server.Options{Metrics: collector})
//	go srv.Serve(ctx, ln)
//	...
//	_ = srv.Shutdown(context.Background())
//
// # Graceful Shutdown
//
// Shutdown closes the listener, then waits for in-flight connections up to
// the configured shutdown timeout. Connections still open after that are
// closed forcibly.
package server
