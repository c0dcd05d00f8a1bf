// Package router dispatches parsed requests to the local file service, the
// response cache, or an origin server, and writes the response.
//
// Dispatch is by method only:
//
//   - GET: "/list" returns stored file names as JSON; a path whose base name
//     is a stored file downloads it; anything else is proxied to the
//     resolved origin, served from the cache when possible.
//   - POST: an absolute-URI target is forwarded verbatim to its origin; an
//     origin-form target stores the body under the path's base name.
//   - PUT: stores the body (truncated to the configured limit) under the
//     path's base name and answers 201.
//   - OPTIONS: answers 204 with the CORS preflight headers.
//   - anything else: 405.
//
// Every locally generated response carries the CORS header set, an exact
// Content-Length and Connection: close. Bytes relayed from an origin pass
// through unchanged.
package router
