// Package server provides HTTP routing, middleware, and the TMDb approval callback used by the auth command.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns.
//
// # Approval Callback Handler
//
// TMDb's v3 session flow asks the user to approve a request token on the TMDb website, then redirects
// to a URL of our choice with request_token and approved=true appended.
// [ApprovalHandler] checks the token matches the one it was created for and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Usage
//
// The auth command starts a [CallbackServer] on localhost:3000, opens the approval page in the browser,
// waits for the callback, exchanges the approved token for a session id and shuts down.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
