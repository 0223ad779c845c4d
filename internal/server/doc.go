// Package server provides the loopback HTTP server used during login.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Callback Handler
//
// [CallbackHandler] accepts the identity provider's redirect once and hands the full URL back
// through a channel. State validation and the code exchange happen in the auth package, so the
// handler stays a dumb pipe.
//
// # Loopback Browser
//
// [LoopbackBrowser] implements the auth package's browser contract: it starts a server on the
// redirect URI's host and port, opens the system browser at the authorization URL, and waits
// for the callback, a timeout, or cancellation. The server is shut down before it returns.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
