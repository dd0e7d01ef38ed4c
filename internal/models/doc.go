// Package models defines the value types passed between curator's packages.
//
// The package contains three groups of types:
//
// 1. Session state
//   - [Credentials] : The token triple (backend access, backend refresh, provider access)
//   - [TokenKind] : Names one token and its fixed storage key
//   - [CredentialBackend] : Durable persistence for the triple, implemented in the repositories package
//
// 2. Curation metadata, decoded directly from the backend's raw-block payloads
//   - [CurationBlock] : A time-boxed style block owning inbox, trash and target playlists
//   - [CurationPlaylist] : One provider playlist and its [PlaylistRole]
//   - [Resolution] : Target playlists (sorted by category) and the trash playlist for a context
//
// 3. Playback
//   - [PlaybackSnapshot] : One poll result; replaced wholesale, never merged
//   - [PlaylistPosition] : Index/total of the current track within its playlist
package models
