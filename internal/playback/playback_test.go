package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

type fakeAuth bool

func (a fakeAuth) IsAuthenticated() bool { return bool(a) }

// fakePlayer serves a programmable snapshot and records commands.
type fakePlayer struct {
	mu       sync.Mutex
	snap     models.PlaybackSnapshot
	err      error
	fetches  int
	active   int
	peak     int
	commands []string

	fetchGate chan struct{} // when set, each fetch waits for a receive
	cmdGate   chan struct{} // when set, each command waits for a receive
	cmdSeen   chan string
	fetchTime time.Duration
}

func (f *fakePlayer) CurrentlyPlaying(ctx context.Context) (models.PlaybackSnapshot, error) {
	f.mu.Lock()
	f.fetches++
	f.active++
	f.peak = max(f.peak, f.active)
	gate, delay := f.fetchGate, f.fetchTime
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	time.Sleep(delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.active--
	return f.snap, f.err
}

func (f *fakePlayer) command(name string) error {
	f.mu.Lock()
	f.commands = append(f.commands, name)
	gate, seen := f.cmdGate, f.cmdSeen
	f.mu.Unlock()

	if seen != nil {
		seen <- name
	}
	if gate != nil {
		<-gate
	}
	return nil
}

func (f *fakePlayer) Play(ctx context.Context) error     { return f.command("play") }
func (f *fakePlayer) Pause(ctx context.Context) error    { return f.command("pause") }
func (f *fakePlayer) Next(ctx context.Context) error     { return f.command("next") }
func (f *fakePlayer) Previous(ctx context.Context) error { return f.command("previous") }
func (f *fakePlayer) Seek(ctx context.Context, ms int) error {
	return f.command(fmt.Sprintf("seek %d", ms))
}

func (f *fakePlayer) set(snap models.PlaybackSnapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap, f.err = snap, err
}

func (f *fakePlayer) stats() (fetches, peak int, commands []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches, f.peak, append([]string(nil), f.commands...)
}

func playing(progress int, observed time.Time) models.PlaybackSnapshot {
	return models.PlaybackSnapshot{
		IsPlaying:  true,
		ProgressMs: progress,
		ObservedAt: observed,
		DurationMs: 100000,
		TrackID:    "t1",
		TrackURI:   "spotify:track:t1",
		ContextURI: "spotify:playlist:ABC123",
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func fastOpts() PollerOpts {
	return PollerOpts{PollInterval: 20 * time.Millisecond, ResyncDelay: 10 * time.Millisecond}
}

func TestInterpolate(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tt := []struct {
		name string
		snap models.PlaybackSnapshot
		at   time.Duration
		want int
	}{
		{name: "advances while playing", snap: playing(1000, base), at: 1500 * time.Millisecond, want: 2500},
		{name: "at observation", snap: playing(1000, base), at: 0, want: 1000},
		{name: "clock behind observation", snap: playing(1000, base), at: -time.Second, want: 1000},
		{name: "clamped to duration", snap: playing(99000, base), at: 5 * time.Second, want: 100000},
		{
			name: "frozen while paused",
			snap: func() models.PlaybackSnapshot { s := playing(4000, base); s.IsPlaying = false; return s }(),
			at:   time.Minute,
			want: 4000,
		},
		{
			name: "unknown duration not clamped",
			snap: func() models.PlaybackSnapshot { s := playing(4000, base); s.DurationMs = 0; return s }(),
			at:   time.Second,
			want: 5000,
		},
		{name: "nothing playing", snap: models.PlaybackSnapshot{ObservedAt: base}, at: time.Second, want: 0},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := Interpolate(tc.snap, base.Add(tc.at)); got != tc.want {
				t.Errorf("Interpolate() = %d, want %d", got, tc.want)
			}
		})
	}

	t.Run("Monotone", func(t *testing.T) {
		snap := playing(0, base)
		prev := -1
		for ms := 0; ms <= 120000; ms += 250 {
			got := Interpolate(snap, base.Add(time.Duration(ms)*time.Millisecond))
			if got < prev {
				t.Fatalf("progress went backwards at %dms: %d < %d", ms, got, prev)
			}
			if got < 0 || got > snap.DurationMs {
				t.Fatalf("progress %d outside [0, %d]", got, snap.DurationMs)
			}
			prev = got
		}
	})
}

func TestFormatMs(t *testing.T) {
	tt := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{9999, "0:09"},
		{61000, "1:01"},
		{600000, "10:00"},
		{-5, "0:00"},
	}
	for _, tc := range tt {
		if got := FormatMs(tc.ms); got != tc.want {
			t.Errorf("FormatMs(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestPoller(t *testing.T) {
	t.Run("Start Requires Session", func(t *testing.T) {
		p := NewPoller(&fakePlayer{}, fakeAuth(false), fastOpts())
		if err := p.Start(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if p.State(time.Now()).Polling {
			t.Error("expected poller to stay idle")
		}
	})

	t.Run("Polls And Replaces Snapshot", func(t *testing.T) {
		player := &fakePlayer{}
		player.set(playing(1000, time.Now()), nil)

		p := NewPoller(player, fakeAuth(true), fastOpts())
		if err := p.Start(context.Background()); err != nil {
			t.Fatalf("failed to start: %v", err)
		}
		defer p.Stop()

		waitFor(t, "first snapshot", func() bool { return p.State(time.Now()).Snapshot.TrackID == "t1" })

		next := playing(0, time.Now())
		next.TrackID = "t2"
		player.set(next, nil)
		waitFor(t, "replacement snapshot", func() bool { return p.State(time.Now()).Snapshot.TrackID == "t2" })

		select {
		case <-p.Updates():
		case <-time.After(time.Second):
			t.Error("expected an update signal")
		}
	})

	t.Run("Errors Are Recorded And Polling Continues", func(t *testing.T) {
		player := &fakePlayer{}
		player.set(models.PlaybackSnapshot{}, fmt.Errorf("%w: 502", shared.ErrUpstreamUnavailable))

		p := NewPoller(player, fakeAuth(true), fastOpts())
		p.Start(context.Background())
		defer p.Stop()

		waitFor(t, "error recorded", func() bool { return p.State(time.Now()).Err != nil })

		player.set(playing(0, time.Now()), nil)
		waitFor(t, "recovery", func() bool {
			st := p.State(time.Now())
			return st.Err == nil && st.Snapshot.TrackID == "t1" && st.Polling
		})
	})

	t.Run("Session Expiry Stops Polling", func(t *testing.T) {
		player := &fakePlayer{}
		player.set(models.PlaybackSnapshot{}, fmt.Errorf("%w: refresh rejected", shared.ErrSessionExpired))

		p := NewPoller(player, fakeAuth(true), fastOpts())
		p.Start(context.Background())

		waitFor(t, "stop", func() bool { return !p.State(time.Now()).Polling })
		if err := p.State(time.Now()).Err; !errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("expected ErrSessionExpired recorded, got %v", err)
		}
	})

	t.Run("Ticks Are Serialized", func(t *testing.T) {
		player := &fakePlayer{fetchTime: 15 * time.Millisecond}
		player.set(playing(0, time.Now()), nil)

		p := NewPoller(player, fakeAuth(true), PollerOpts{PollInterval: 5 * time.Millisecond})
		p.Start(context.Background())

		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.Sync(context.Background())
			}()
		}
		wg.Wait()
		waitFor(t, "several fetches", func() bool { n, _, _ := player.stats(); return n >= 6 })
		p.Stop()

		if _, peak, _ := player.stats(); peak != 1 {
			t.Errorf("expected at most one concurrent fetch, got %d", peak)
		}
	})

	t.Run("Stop Discards Late Results", func(t *testing.T) {
		gate := make(chan struct{})
		player := &fakePlayer{fetchGate: gate}
		player.set(playing(0, time.Now()), nil)

		p := NewPoller(player, fakeAuth(true), PollerOpts{PollInterval: time.Hour})
		p.Start(context.Background())
		waitFor(t, "fetch in flight", func() bool { n, _, _ := player.stats(); return n == 1 })

		p.Stop()
		close(gate)
		time.Sleep(20 * time.Millisecond)

		if st := p.State(time.Now()); !st.Snapshot.NothingPlaying() {
			t.Errorf("expected late result discarded, got %+v", st.Snapshot)
		}
	})

	t.Run("Restart After Stop", func(t *testing.T) {
		player := &fakePlayer{}
		player.set(playing(0, time.Now()), nil)

		p := NewPoller(player, fakeAuth(true), fastOpts())
		p.Start(context.Background())
		p.Stop()
		if err := p.Start(context.Background()); err != nil {
			t.Fatalf("failed to restart: %v", err)
		}
		defer p.Stop()

		waitFor(t, "snapshot after restart", func() bool { return p.State(time.Now()).Snapshot.TrackID == "t1" })
	})
}

func TestControls(t *testing.T) {
	// primed returns a polling poller whose snapshot is t1 at progress ms.
	primed := func(t *testing.T, player *fakePlayer, progress int, isPlaying bool) *Poller {
		t.Helper()
		// Observed in the future so interpolation holds still while the test runs.
		snap := playing(progress, time.Now().Add(time.Hour))
		snap.IsPlaying = isPlaying
		player.set(snap, nil)

		p := NewPoller(player, fakeAuth(true), PollerOpts{PollInterval: time.Hour, ResyncDelay: 10 * time.Millisecond})
		if err := p.Start(context.Background()); err != nil {
			t.Fatalf("failed to start: %v", err)
		}
		t.Cleanup(p.Stop)
		waitFor(t, "snapshot", func() bool { return p.State(time.Now()).Snapshot.TrackID == "t1" })
		return p
	}

	t.Run("Seek Percent Shows Target Immediately", func(t *testing.T) {
		gate := make(chan struct{})
		seen := make(chan string, 1)
		player := &fakePlayer{cmdGate: gate, cmdSeen: seen}
		p := primed(t, player, 1000, true)
		c := NewControls(p, 0)

		done := make(chan error, 1)
		go func() { done <- c.SeekToPercent(context.Background(), 0.4) }()

		if cmd := <-seen; cmd != "seek 40000" {
			t.Errorf("expected seek 40000, got %q", cmd)
		}

		// The upstream call has not returned yet.
		st := p.State(time.Now().Add(10 * time.Second))
		if !st.Pending || st.ProgressMs != 40000 {
			t.Errorf("expected optimistic 40000 pending, got %+v", st)
		}

		player.set(playing(40000, time.Now()), nil)
		close(gate)
		if err := <-done; err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		waitFor(t, "resync", func() bool { return !p.State(time.Now()).Pending })
		fetches, _, _ := player.stats()
		if fetches != 2 {
			t.Errorf("expected initial fetch plus one forced refetch, got %d", fetches)
		}
		if got := p.State(time.Now()).ProgressMs; got < 40000 {
			t.Errorf("expected interpolation from 40000, got %d", got)
		}
	})

	t.Run("Optimistic Values", func(t *testing.T) {
		tt := []struct {
			name        string
			progress    int
			playing     bool
			act         func(c *Controls) error
			wantCmd     string
			wantMs      int
			wantPlaying bool
		}{
			{
				name: "pause", progress: 5000, playing: true,
				act:     func(c *Controls) error { return c.PlayPause(context.Background()) },
				wantCmd: "pause", wantMs: 5000, wantPlaying: false,
			},
			{
				name: "play", progress: 5000, playing: false,
				act:     func(c *Controls) error { return c.PlayPause(context.Background()) },
				wantCmd: "play", wantMs: 5000, wantPlaying: true,
			},
			{
				name: "next", progress: 5000, playing: true,
				act:     func(c *Controls) error { return c.Next(context.Background()) },
				wantCmd: "next", wantMs: 0, wantPlaying: true,
			},
			{
				name: "previous", progress: 5000, playing: false,
				act:     func(c *Controls) error { return c.Previous(context.Background()) },
				wantCmd: "previous", wantMs: 0, wantPlaying: false,
			},
			{
				name: "rewind floors at zero", progress: 4000, playing: false,
				act:     func(c *Controls) error { return c.Rewind(context.Background()) },
				wantCmd: "seek 0", wantMs: 0, wantPlaying: false,
			},
			{
				name: "rewind", progress: 30000, playing: false,
				act:     func(c *Controls) error { return c.Rewind(context.Background()) },
				wantCmd: "seek 20000", wantMs: 20000, wantPlaying: false,
			},
			{
				name: "fast forward caps at duration", progress: 95000, playing: false,
				act:     func(c *Controls) error { return c.FastForward(context.Background()) },
				wantCmd: "seek 100000", wantMs: 100000, wantPlaying: false,
			},
			{
				name: "seek zero percent", progress: 50000, playing: false,
				act:     func(c *Controls) error { return c.SeekToPercent(context.Background(), 0) },
				wantCmd: "seek 0", wantMs: 0, wantPlaying: false,
			},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				gate := make(chan struct{})
				seen := make(chan string, 1)
				player := &fakePlayer{cmdGate: gate, cmdSeen: seen}
				p := primed(t, player, tc.progress, tc.playing)
				c := NewControls(p, 10*time.Second)

				done := make(chan error, 1)
				go func() { done <- tc.act(c) }()

				if cmd := <-seen; cmd != tc.wantCmd {
					t.Errorf("expected command %q, got %q", tc.wantCmd, cmd)
				}

				st := p.State(time.Now())
				if st.ProgressMs != tc.wantMs || st.IsPlaying != tc.wantPlaying {
					t.Errorf("expected optimistic %d playing=%v, got %d playing=%v", tc.wantMs, tc.wantPlaying, st.ProgressMs, st.IsPlaying)
				}

				close(gate)
				if err := <-done; err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			})
		}
	})

	t.Run("Invalid Percentage", func(t *testing.T) {
		p := primed(t, &fakePlayer{}, 0, true)
		c := NewControls(p, 0)
		for _, pct := range []float64{-0.1, 1.5} {
			if err := c.SeekToPercent(context.Background(), pct); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("SeekToPercent(%v): expected ErrInvalidArgument, got %v", pct, err)
			}
		}
	})

	t.Run("Disabled When Nothing Playing", func(t *testing.T) {
		player := &fakePlayer{}
		p := NewPoller(player, fakeAuth(true), fastOpts())
		p.Start(context.Background())
		defer p.Stop()
		waitFor(t, "first fetch", func() bool { n, _, _ := player.stats(); return n >= 1 })

		c := NewControls(p, 0)
		actions := map[string]func() error{
			"play_pause": func() error { return c.PlayPause(context.Background()) },
			"next":       func() error { return c.Next(context.Background()) },
			"seek":       func() error { return c.SeekToPercent(context.Background(), 0.5) },
			"rewind":     func() error { return c.Rewind(context.Background()) },
		}
		for name, act := range actions {
			if err := act(); !errors.Is(err, shared.ErrNothingPlaying) {
				t.Errorf("%s: expected ErrNothingPlaying, got %v", name, err)
			}
		}
		if _, _, cmds := player.stats(); len(cmds) != 0 {
			t.Errorf("expected no upstream commands, got %v", cmds)
		}
	})

	t.Run("Override Held Until Last Resync", func(t *testing.T) {
		gate := make(chan struct{})
		seen := make(chan string, 2)
		player := &fakePlayer{cmdGate: gate, cmdSeen: seen}
		p := primed(t, player, 1000, false)
		c := NewControls(p, 10*time.Second)

		first := make(chan error, 1)
		go func() { first <- c.FastForward(context.Background()) }()
		<-seen

		second := make(chan error, 1)
		go func() { second <- c.FastForward(context.Background()) }()
		<-seen

		if got := p.State(time.Now()).ProgressMs; got != 21000 {
			t.Errorf("expected stacked optimistic 21000, got %d", got)
		}

		gate <- struct{}{}
		var remaining chan error
		select {
		case <-first:
			remaining = second
		case <-second:
			remaining = first
		}
		time.Sleep(40 * time.Millisecond)
		if !p.State(time.Now()).Pending {
			t.Error("expected override to survive while another mutation is in flight")
		}

		close(gate)
		<-remaining
		waitFor(t, "override dropped", func() bool { return !p.State(time.Now()).Pending })
	})

	t.Run("Failed Resync Keeps Override", func(t *testing.T) {
		player := &fakePlayer{}
		p := primed(t, player, 10000, false)
		c := NewControls(p, 0)

		future := time.Now().Add(time.Hour)
		snap := playing(10000, future)
		snap.IsPlaying = false
		player.set(snap, errors.New("upstream 503"))

		if err := c.SeekToPercent(context.Background(), 0.8); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		waitFor(t, "resync attempt", func() bool { return p.State(time.Now()).Err != nil })
		time.Sleep(30 * time.Millisecond)

		st := p.State(time.Now())
		if !st.Pending || st.ProgressMs != 80000 {
			t.Errorf("expected optimistic 80000 after failed resync, got %d pending=%v", st.ProgressMs, st.Pending)
		}

		landed := playing(80000, future)
		landed.IsPlaying = false
		player.set(landed, nil)
		if err := p.Sync(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		st = p.State(time.Now())
		if st.Pending || st.ProgressMs != 80000 || st.Err != nil {
			t.Errorf("expected settled 80000, got %d pending=%v err=%v", st.ProgressMs, st.Pending, st.Err)
		}
	})

	t.Run("Fast Forward With Unknown Duration", func(t *testing.T) {
		gate := make(chan struct{})
		seen := make(chan string, 1)
		player := &fakePlayer{cmdGate: gate, cmdSeen: seen}
		snap := playing(30000, time.Now().Add(time.Hour))
		snap.IsPlaying = false
		snap.DurationMs = 0
		player.set(snap, nil)

		p := NewPoller(player, fakeAuth(true), PollerOpts{PollInterval: time.Hour, ResyncDelay: 10 * time.Millisecond})
		if err := p.Start(context.Background()); err != nil {
			t.Fatalf("failed to start: %v", err)
		}
		t.Cleanup(p.Stop)
		waitFor(t, "snapshot", func() bool { return p.State(time.Now()).Snapshot.TrackID == "t1" })

		done := make(chan error, 1)
		go func() { done <- NewControls(p, 10*time.Second).FastForward(context.Background()) }()

		if cmd := <-seen; cmd != "seek 40000" {
			t.Errorf("expected seek 40000, got %q", cmd)
		}
		if got := p.State(time.Now()).ProgressMs; got != 40000 {
			t.Errorf("expected optimistic 40000, got %d", got)
		}
		close(gate)
		if err := <-done; err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Stop Cancels Pending Resync", func(t *testing.T) {
		player := &fakePlayer{}
		player.set(playing(0, time.Now()), nil)

		p := NewPoller(player, fakeAuth(true), PollerOpts{PollInterval: time.Hour, ResyncDelay: 50 * time.Millisecond})
		p.Start(context.Background())
		waitFor(t, "snapshot", func() bool { return p.State(time.Now()).Snapshot.TrackID == "t1" })

		if err := NewControls(p, 0).Next(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		p.Stop()
		time.Sleep(100 * time.Millisecond)

		if fetches, _, _ := player.stats(); fetches != 1 {
			t.Errorf("expected resync to be cancelled, got %d fetches", fetches)
		}
	})
}
