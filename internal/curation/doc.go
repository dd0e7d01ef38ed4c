// Package curation resolves a now-playing context into the curation block that owns it.
//
// A context URI such as spotify:playlist:ABC123 names the playlist the track is being played
// from. [Resolver] scans every block for one listing that playlist and returns the block's
// TARGET playlists, ordered by category name, along with its TRASH playlist. Contexts that
// belong to no block resolve to an empty [models.Resolution].
package curation
