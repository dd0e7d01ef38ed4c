// Package auth keeps the session alive.
//
// # Refresh
//
// [Coordinator] posts the stored refresh token to the backend's /auth/refresh endpoint and writes
// the returned triple back to the credential store. Concurrent callers are collapsed onto a single
// exchange with [singleflight.Group]; all of them receive the same token or the same error.
//
// A failed exchange is terminal for the session: the store is cleared, hooks registered with
// [Coordinator.OnExpired] run, and every waiter receives [shared.ErrSessionExpired].
//
// # Login
//
// The backend finishes a provider login by redirecting to a callback carrying access_token,
// refresh_token and spotify_access_token. [ParseCallback] turns those values into
// [models.Credentials].
package auth
