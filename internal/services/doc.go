// Package services talks to the two upstreams: the streaming provider and the curation backend.
//
// # Authenticated Client
//
// [Client] attaches credentials from the credential store to every request. The [Bearer] variant
// sends the provider token; the [Tokenized] variant sends the backend token both as a header and
// as the sp_token query parameter.
//
// A 401 response is drained and the session is refreshed through a [Refresher]. The request is
// then sent once more with the new token and that second response is returned whatever its
// status. When the refresh fails the call ends with [shared.ErrSessionExpired].
//
// Request bodies are buffered so they can be replayed. Both attempts carry the same X-Request-ID.
//
// # Spotify
//
// [SpotifyService] wraps [spotify.Client] with the bearer client as its transport. It maps the
// currently-playing payload onto [models.PlaybackSnapshot]; a 204 becomes a snapshot without a
// track.
//
// # Curation
//
// [CurationService] lists, fetches and processes curation blocks. Listing walks every page.
//
// # Error Handling
//
//   - [shared.ErrSessionExpired] : refresh failed, passed through unchanged
//   - [shared.ErrUpstreamUnavailable] : any other non-success response or transport failure
//   - [shared.ErrBlockNotFound] : the backend answered 404 for a block
package services
