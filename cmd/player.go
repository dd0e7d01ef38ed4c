package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/playback"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/urfave/cli/v3"
)

// nowPlaying is the JSON shape of `player now --json`.
type nowPlaying struct {
	Playing    bool     `json:"is_playing"`
	ProgressMs int      `json:"progress_ms"`
	DurationMs int      `json:"duration_ms"`
	TrackURI   string   `json:"track_uri"`
	Track      string   `json:"track"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	ContextURI string   `json:"context_uri"`
}

// snapshot performs one fetch and returns the interpolated state.
func (r *Runner) snapshot(ctx context.Context) (playback.State, error) {
	if err := r.wire(); err != nil {
		return playback.State{}, err
	}
	if !r.store.IsAuthenticated() {
		return playback.State{}, shared.ErrNotAuthenticated
	}
	if err := r.poller.Sync(ctx); err != nil {
		return playback.State{}, err
	}
	return r.poller.State(time.Now()), nil
}

// PlayerNow prints the current track.
func (r *Runner) PlayerNow(ctx context.Context, cmd *cli.Command) error {
	st, err := r.snapshot(ctx)
	if err != nil {
		return err
	}

	snap := st.Snapshot
	if cmd.Bool("json") {
		if snap.NothingPlaying() {
			return r.writeJSON(nil, false)
		}
		return r.writeJSON(nowPlaying{
			Playing:    st.IsPlaying,
			ProgressMs: st.ProgressMs,
			DurationMs: snap.DurationMs,
			TrackURI:   snap.TrackURI,
			Track:      snap.TrackName,
			Artists:    snap.Artists,
			Album:      snap.AlbumName,
			ContextURI: snap.ContextURI,
		}, true)
	}

	if snap.NothingPlaying() {
		return r.writePlain("Nothing playing\n")
	}

	state := "⏸"
	if st.IsPlaying {
		state = "▶"
	}
	r.writePlain("%s %s - %s\n", state, strings.Join(snap.Artists, ", "), snap.TrackName)
	if snap.AlbumName != "" {
		r.writePlain("  Album: %s\n", snap.AlbumName)
	}
	r.writePlain("  %s / %s\n", playback.FormatMs(st.ProgressMs), playback.FormatMs(snap.DurationMs))
	if snap.ContextURI != "" {
		r.writePlain("  Context: %s\n", snap.ContextURI)
	}
	return nil
}

// control syncs the poller so the control has a snapshot to plan from, then runs fn.
func (r *Runner) control(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	st, err := r.snapshot(ctx)
	if err != nil {
		return err
	}
	if st.Snapshot.NothingPlaying() {
		return shared.ErrNothingPlaying
	}
	if err := fn(ctx); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	r.logger.Debug("player command sent", "command", name)
	return r.writePlain("✓ %s\n", name)
}

// PlayerPlay resumes playback.
func (r *Runner) PlayerPlay(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, "play", func(ctx context.Context) error {
		if r.poller.State(time.Now()).IsPlaying {
			return nil
		}
		return r.controls.PlayPause(ctx)
	})
}

// PlayerPause pauses playback.
func (r *Runner) PlayerPause(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, "pause", func(ctx context.Context) error {
		if !r.poller.State(time.Now()).IsPlaying {
			return nil
		}
		return r.controls.PlayPause(ctx)
	})
}

// PlayerToggle flips between play and pause.
func (r *Runner) PlayerToggle(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, "toggle", func(ctx context.Context) error { return r.controls.PlayPause(ctx) })
}

// PlayerNext skips forward.
func (r *Runner) PlayerNext(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, "next", func(ctx context.Context) error { return r.controls.Next(ctx) })
}

// PlayerPrevious skips back.
func (r *Runner) PlayerPrevious(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, "previous", func(ctx context.Context) error { return r.controls.Previous(ctx) })
}

// PlayerRewind seeks back by the configured step.
func (r *Runner) PlayerRewind(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, "rewind", func(ctx context.Context) error { return r.controls.Rewind(ctx) })
}

// PlayerForward seeks forward by the configured step.
func (r *Runner) PlayerForward(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, "forward", func(ctx context.Context) error { return r.controls.FastForward(ctx) })
}

// PlayerSeek seeks to a percentage of the current track.
func (r *Runner) PlayerSeek(ctx context.Context, cmd *cli.Command) error {
	pct, err := parsePercent(cmd.StringArg("percent"))
	if err != nil {
		return err
	}
	return r.control(ctx, "seek", func(ctx context.Context) error { return r.controls.SeekToPercent(ctx, pct) })
}

// parsePercent accepts "40", "40%" or "0.4" style values and returns a fraction in [0, 1].
func parsePercent(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return 0, fmt.Errorf("%w: percent", shared.ErrMissingArgument)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: percent %q", shared.ErrInvalidArgument, s)
	}
	if v > 1 {
		v /= 100
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("%w: percent %q out of range", shared.ErrInvalidArgument, s)
	}
	return v, nil
}

func describeTrack(snap models.PlaybackSnapshot) string {
	if len(snap.Artists) == 0 {
		return snap.TrackName
	}
	return fmt.Sprintf("%s - %s", strings.Join(snap.Artists, ", "), snap.TrackName)
}
