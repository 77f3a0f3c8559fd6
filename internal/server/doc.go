// Package server provides the transient HTTP server that captures the OAuth2 redirect.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers so the first one added runs outermost; [Logging] is the only
// middleware in use and deliberately omits query strings from its output.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Callback Capture
//
// [CallbackHandler] is a closure over a single-use buffered channel: the first request on the
// redirect path is parsed with [net/url], answered with [SuccessBody], and its [CallbackResult]
// delivered; every later request gets 410 Gone.
//
// [CallbackServer] binds the host and port parsed from the redirect URI, serves the handler in a
// goroutine and exposes [CallbackServer.Wait] and [CallbackServer.Close]. Callers defer Close so
// the socket is released on every path out of the capture.
package server
