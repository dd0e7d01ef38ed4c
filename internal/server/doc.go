// Package server runs the short-lived local HTTP server used by `curator auth login`.
//
// # Router Infrastructure
//
// [BasicRouter] registers Go 1.22 method patterns on an [http.ServeMux] and wraps handlers in
// [Middleware]. The first middleware passed to Use is the outermost. [RequestLogger] and
// [Recoverer] are the two middlewares the login server installs.
//
// # Login Callback
//
// The backend finishes the provider login by redirecting the browser to GET /callback with
// access_token, refresh_token and spotify_access_token query parameters. [CallbackHandler]
// parses them with auth.ParseCallback and delivers a single [CallbackResult]; a second request
// is rejected.
//
// [CallbackServer] binds the listen address up front, serves until one result arrives or the
// timeout elapses, then shuts down.
package server
