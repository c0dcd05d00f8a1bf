// Package logging configures structured logging for the proxy.
//
// Logging is built on log/slog. New returns a Logger whose level lives in a
// slog.LevelVar so it can be changed while the server runs (the config
// watcher does this on file changes). Install makes it the process default;
// components then log through slog.Default().With("component", ...).
//
// # Connection context
//
// The handler installed by New copies connection fields stored in a context
// onto every record logged with that context:
//
//	ctx = logging.WithConnID(ctx, id)
//	ctx = logging.WithRemoteAddr(ctx, conn.RemoteAddr().String())
//	logger.InfoContext(ctx, "request parsed", "method", req.Method)
//	// ... conn_id=... remote_addr=... method=GET
//
// # Formats
//
//   - json: one JSON object per line (default)
//   - text: logfmt-style key=value pairs
//   - console: same as text
package logging
