package logging

import (
	"context"
	"log/slog"
)

// Context keys for connection log fields.
type contextKey string

const (
	// ConnIDKey is the context key for connection IDs.
	ConnIDKey contextKey = "conn_id"

	// RemoteAddrKey is the context key for the client address.
	RemoteAddrKey contextKey = "remote_addr"
)

// WithConnID adds a connection ID to the context.
func WithConnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ConnIDKey, id)
}

// GetConnID retrieves the connection ID from the context.
func GetConnID(ctx context.Context) string {
	if id, ok := ctx.Value(ConnIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRemoteAddr adds the client address to the context.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, RemoteAddrKey, addr)
}

// GetRemoteAddr retrieves the client address from the context.
func GetRemoteAddr(ctx context.Context) string {
	if addr, ok := ctx.Value(RemoteAddrKey).(string); ok {
		return addr
	}
	return ""
}

// contextHandler adds connection fields found in the record's context.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id := GetConnID(ctx); id != "" {
			r.AddAttrs(slog.String(string(ConnIDKey), id))
		}
		if addr := GetRemoteAddr(ctx); addr != "" {
			r.AddAttrs(slog.String(string(RemoteAddrKey), addr))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
