// Package server provides HTTP routing, middleware, and the OAuth connect
// flow for linking platform accounts.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Connect Flow
//
// [ConnectFlow] ties it together for the CLI: it starts a temporary loopback
// server, opens the platform's authorization page in the browser, waits for
// the callback, and persists the resulting tokens as a connected account.
// One flow run serves one platform connection and then shuts down.
package server
