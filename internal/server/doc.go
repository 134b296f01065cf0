// Package server runs the short-lived HTTP listener that completes the Google OAuth flow.
//
// # Router
//
// [BasicRouter] implements [Router] on [http.ServeMux] with method patterns. [Middleware] runs in the order
// it was added; [RequestLogger] logs each request without its query string.
//
// # OAuth Callback
//
// [OAuthHandler] validates the state parameter, exchanges the authorization code for a token and delivers
// exactly one [OAuthResult]. Later callbacks are rejected.
//
// [Authorize] ties these together for `albumsync auth google`: it listens on the configured address, opens
// the consent page, waits for the redirect and shuts the listener down.
package server
