// Package tasks files the current track into a curation playlist.
//
// # Relocation
//
// [Relocator.Relocate] is a two-step remote mutation: add the track to the target playlist, then
// remove it from the source playlist. The steps run in order and are never compensated.
//
//   - [OK] : both steps succeeded; the caller advances to the next track
//   - [PartialFailure] : added but not removed; the track is in both playlists and the error wraps
//     [shared.ErrPartialRelocation]
//   - [Failure] : the add failed and the remove was not attempted
//
// # Progress Reporting
//
// Progress is reported on an optional channel. Updates use select with default so a slow or
// absent reader never blocks a relocation.
package tasks
