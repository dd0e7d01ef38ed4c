package playback

import (
	"fmt"
	"time"

	"github.com/desertthunder/curator/internal/models"
)

// Interpolate estimates the play head at now from a single observation.
//
// A playing snapshot advances by the wall time elapsed since ObservedAt; a paused one stays put.
// The result is clamped to [0, DurationMs] when the duration is known.
func Interpolate(s models.PlaybackSnapshot, now time.Time) int {
	if s.NothingPlaying() {
		return 0
	}

	progress := s.ProgressMs
	if s.IsPlaying {
		if elapsed := now.Sub(s.ObservedAt).Milliseconds(); elapsed > 0 {
			progress += int(elapsed)
		}
	}
	return clamp(progress, s.DurationMs)
}

func clamp(progress, duration int) int {
	progress = max(progress, 0)
	if duration > 0 {
		progress = min(progress, duration)
	}
	return progress
}

// FormatMs renders milliseconds as m:ss.
func FormatMs(ms int) string {
	d := time.Duration(max(ms, 0)) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
