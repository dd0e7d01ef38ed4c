// Package playback turns a slow polling source into a smoothly advancing now-playing view.
//
// [Poller] fetches the provider's player state on an interval and keeps the latest snapshot.
// Between polls the view calls [Poller.State], which runs [Interpolate] against the wall clock.
//
// [Controls] issue player commands as [Mutation]s. A mutation first replaces the displayed
// state with its optimistic result, then makes its upstream call, then schedules a refetch a
// short delay later. Interpolation resumes once that refetch lands and no other mutation is
// outstanding.
package playback
