package router

import (
	"context"
	"errors"
	"html"
	"io"

	"mercator-hq/cacheproxy/pkg/storage"
	"mercator-hq/cacheproxy/pkg/wire"
)

// handlePost forwards absolute-URI requests to their origin verbatim and
// treats everything else as an upload.
func (r *Router) handlePost(ctx context.Context, w io.Writer, req *wire.Request) (Result, error) {
	if req.HostSource == wire.HostFromTarget && !r.guard.IsSelf(req.Host, req.Port) {
		_, res, err := r.exchange(ctx, w, req, RouteForward, 0)
		return res, err
	}

	name, err := r.store(ctx, req)
	switch {
	case errors.Is(err, ErrNoFileName):
		return r.send(w, RouteUpload, wire.ErrorPage(400, "Upload needs a file name"))
	case err != nil:
		return r.send(w, RouteUpload, wire.ErrorPage(500, "Could not store "+name))
	}

	body := "<html><head><title>Upload complete</title></head><body><h1>Upload complete</h1><p>Stored " +
		html.EscapeString(name) + "</p></body></html>"
	return r.send(w, RouteUpload, &wire.Response{
		Status:  200,
		Headers: []wire.Header{{Name: "Content-Type", Value: "text/html"}},
		Body:    []byte(body),
	})
}

func (r *Router) handlePut(ctx context.Context, w io.Writer, req *wire.Request) (Result, error) {
	name, err := r.store(ctx, req)
	switch {
	case errors.Is(err, ErrNoFileName):
		return r.send(w, RouteUpload, wire.ErrorPage(400, "Upload needs a file name"))
	case err != nil:
		return r.send(w, RouteUpload, wire.ErrorPage(500, "Could not store "+name))
	}

	return r.send(w, RouteUpload, &wire.Response{
		Status:  201,
		Headers: []wire.Header{{Name: "Content-Type", Value: "text/plain"}},
		Body:    []byte("Created " + name),
	})
}

// store saves the request body, truncated to the file size limit, under the
// base name of the request path. Cached copies of the old content under that
// path are dropped.
func (r *Router) store(ctx context.Context, req *wire.Request) (string, error) {
	name := storage.BaseName(req.Path)
	if name == "" {
		return "", ErrNoFileName
	}

	data := req.Body
	if int64(len(data)) > r.maxFile {
		r.logger.WarnContext(ctx, "upload truncated", "name", name, "size", len(data), "limit", r.maxFile)
		data = data[:r.maxFile]
	}

	if err := r.storage.Save(ctx, name, data); err != nil {
		uerr := &UploadError{Name: name, Err: err}
		r.logger.ErrorContext(ctx, "upload failed", "error", uerr)
		return name, uerr
	}
	r.cache.Remove(req.Path)

	r.logger.InfoContext(ctx, "file stored", "name", name, "size", len(data))
	return name, nil
}
