package playback

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/desertthunder/curator/internal/shared"
)

// DefaultSeekStep is how far Rewind and FastForward move the play head.
const DefaultSeekStep = 10 * time.Second

// Controls translates player keys into [Mutation]s dispatched through a [Poller].
type Controls struct {
	poller *Poller
	step   int
}

// NewControls creates [Controls] that seek by step on Rewind and FastForward.
func NewControls(poller *Poller, step time.Duration) *Controls {
	if step <= 0 {
		step = DefaultSeekStep
	}
	return &Controls{poller: poller, step: int(step.Milliseconds())}
}

// PlayPause pauses a playing track and resumes a paused one.
func (c *Controls) PlayPause(ctx context.Context) error {
	return c.poller.Dispatch(ctx, Mutation{Name: "play_pause", Plan: func(cur Current) (Current, func(context.Context, Player) error) {
		next := cur
		next.IsPlaying = !cur.IsPlaying
		if cur.IsPlaying {
			return next, func(ctx context.Context, p Player) error { return p.Pause(ctx) }
		}
		return next, func(ctx context.Context, p Player) error { return p.Play(ctx) }
	}})
}

// Next skips forward one track.
func (c *Controls) Next(ctx context.Context) error {
	return c.poller.Dispatch(ctx, Mutation{Name: "next", Plan: func(cur Current) (Current, func(context.Context, Player) error) {
		cur.ProgressMs = 0
		return cur, func(ctx context.Context, p Player) error { return p.Next(ctx) }
	}})
}

// Previous skips back one track.
func (c *Controls) Previous(ctx context.Context) error {
	return c.poller.Dispatch(ctx, Mutation{Name: "previous", Plan: func(cur Current) (Current, func(context.Context, Player) error) {
		cur.ProgressMs = 0
		return cur, func(ctx context.Context, p Player) error { return p.Previous(ctx) }
	}})
}

// SeekToPercent seeks to pct of the track, where pct is in [0, 1].
func (c *Controls) SeekToPercent(ctx context.Context, pct float64) error {
	if pct < 0 || pct > 1 || math.IsNaN(pct) {
		return fmt.Errorf("%w: seek percentage %v outside [0, 1]", shared.ErrInvalidArgument, pct)
	}
	return c.seek(ctx, "seek_percent", func(cur Current) int {
		return int(math.Round(float64(cur.DurationMs) * pct))
	})
}

// Rewind moves the play head back by the seek step.
func (c *Controls) Rewind(ctx context.Context) error {
	return c.seek(ctx, "rewind", func(cur Current) int {
		return max(0, cur.ProgressMs-c.step)
	})
}

// FastForward moves the play head forward by the seek step.
func (c *Controls) FastForward(ctx context.Context) error {
	return c.seek(ctx, "fast_forward", func(cur Current) int {
		return clamp(cur.ProgressMs+c.step, cur.DurationMs)
	})
}

func (c *Controls) seek(ctx context.Context, name string, target func(Current) int) error {
	return c.poller.Dispatch(ctx, Mutation{Name: name, Plan: func(cur Current) (Current, func(context.Context, Player) error) {
		pos := target(cur)
		cur.ProgressMs = pos
		return cur, func(ctx context.Context, p Player) error { return p.Seek(ctx, pos) }
	}})
}
