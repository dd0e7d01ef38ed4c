// Package ui implements the now-playing terminal interface using bubbletea's Elm architecture.
//
// The [Model] has two views:
//  1. [NowPlayingView] : the current track, an interpolated progress bar, the block label, the
//     playlist position and the category list of the block that owns the context
//  2. [SessionExpiredView] : shown once a refresh fails or no session exists
//
// Playback changes arrive from the poller's update channel and a 250ms tick re-reads the
// interpolated progress. Context resolution, position lookups, controls and relocations run as
// [tea.Cmd] goroutines and report back through the Msg union type.
//
// Controls (space, < >, , ., 1-5) are disabled while nothing is playing. enter files the track
// into the selected category and t files it into the block's trash; a full move skips to the
// next track.
package ui
