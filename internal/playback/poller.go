package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultResyncDelay  = 500 * time.Millisecond
)

// Player is the provider's player as seen by the poller and its controls.
type Player interface {
	CurrentlyPlaying(ctx context.Context) (models.PlaybackSnapshot, error)
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Seek(ctx context.Context, positionMs int) error
}

// Authenticator reports whether a session exists.
type Authenticator interface {
	IsAuthenticated() bool
}

// State is what the view renders.
type State struct {
	Polling    bool
	Snapshot   models.PlaybackSnapshot
	IsPlaying  bool
	ProgressMs int
	Pending    bool // an optimistic value is displayed
	Err        error
}

// Current is the displayed playback a [Mutation] starts from.
type Current struct {
	IsPlaying  bool
	ProgressMs int
	DurationMs int
}

// Mutation plans one control: the optimistic state to display and the upstream call to make.
type Mutation struct {
	Name string
	Plan func(cur Current) (next Current, call func(ctx context.Context, p Player) error)
}

// PollerOpts configures a [Poller]. Zero values select defaults.
type PollerOpts struct {
	PollInterval time.Duration
	ResyncDelay  time.Duration
	Logger       *log.Logger
}

// Poller keeps a playback snapshot fresh and overlays optimistic state while commands run.
//
// Poll ticks and forced refetches share tickMu so only one fetch runs at a time. Mutations never
// take it. Every Start and Stop bumps gen; a fetch that completes under an older generation is
// discarded.
type Poller struct {
	player   Player
	auth     Authenticator
	interval time.Duration
	resync   time.Duration
	logger   *log.Logger

	tickMu sync.Mutex

	mu        sync.Mutex
	polling   bool
	gen       uint64
	ctx       context.Context
	cancel    context.CancelFunc
	snapshot  models.PlaybackSnapshot
	err       error
	override  *Current
	inflight  int
	awaiting  int
	unsettled bool // a resync failed; the next stored snapshot settles the override
	timers    map[int]*time.Timer
	nextTimer int

	updates chan struct{}
}

// NewPoller creates an idle [Poller].
func NewPoller(player Player, auth Authenticator, opts PollerOpts) *Poller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ResyncDelay <= 0 {
		opts.ResyncDelay = DefaultResyncDelay
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Poller{
		player:   player,
		auth:     auth,
		interval: opts.PollInterval,
		resync:   opts.ResyncDelay,
		logger:   shared.WithLogger(opts.Logger, "component", "poller"),
		ctx:      context.Background(),
		timers:   make(map[int]*time.Timer),
		updates:  make(chan struct{}, 1),
	}
}

// Updates signals after every change to the snapshot, override or error.
// Signals are coalesced; read [Poller.State] on receipt.
func (p *Poller) Updates() <-chan struct{} {
	return p.updates
}

func (p *Poller) publish() {
	select {
	case p.updates <- struct{}{}:
	default:
	}
}

// Start begins polling. It requires an authenticated session and is a no-op while already polling.
func (p *Poller) Start(ctx context.Context) error {
	if !p.auth.IsAuthenticated() {
		return shared.ErrNotAuthenticated
	}

	p.mu.Lock()
	if p.polling {
		p.mu.Unlock()
		return nil
	}
	p.polling = true
	p.gen++
	gen := p.gen
	p.ctx, p.cancel = context.WithCancel(ctx)
	loopCtx := p.ctx
	p.mu.Unlock()

	p.logger.Debug("polling started", "interval", p.interval)
	go p.loop(loopCtx, gen)
	return nil
}

// Stop ends polling, cancels pending refetches and discards results still in flight.
func (p *Poller) Stop() {
	p.mu.Lock()
	stopped := p.stopLocked()
	p.mu.Unlock()

	if stopped {
		p.logger.Debug("polling stopped")
		p.publish()
	}
}

func (p *Poller) stopLocked() bool {
	if !p.polling {
		return false
	}
	p.polling = false
	p.gen++
	if p.cancel != nil {
		p.cancel()
	}
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
	p.awaiting = 0
	p.unsettled = false
	if p.inflight == 0 {
		p.override = nil
	}
	return true
}

// State returns the snapshot with progress evaluated at now.
func (p *Poller) State(now time.Time) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := State{
		Polling:  p.polling,
		Snapshot: p.snapshot,
		Err:      p.err,
	}
	if p.override != nil {
		st.Pending = true
		st.IsPlaying = p.override.IsPlaying
		st.ProgressMs = p.override.ProgressMs
		return st
	}
	st.IsPlaying = p.snapshot.IsPlaying
	st.ProgressMs = Interpolate(p.snapshot, now)
	return st
}

// Sync performs one fetch now, serialized with poll ticks.
func (p *Poller) Sync(ctx context.Context) error {
	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()

	_, err := p.fetch(ctx, gen)
	return err
}

func (p *Poller) loop(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.fetch(ctx, gen)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetch(ctx, gen)
		}
	}
}

// fetch reports whether a snapshot was stored under gen.
func (p *Poller) fetch(ctx context.Context, gen uint64) (bool, error) {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	if !p.current(gen) {
		return false, nil
	}

	snap, err := p.player.CurrentlyPlaying(ctx)
	return p.apply(gen, snap, err), err
}

func (p *Poller) current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen == gen
}

// apply records a fetch result unless the generation moved on while it was in flight.
// It reports whether a snapshot was stored.
func (p *Poller) apply(gen uint64, snap models.PlaybackSnapshot, err error) bool {
	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		p.logger.Debug("discarding stale fetch", "gen", gen)
		return false
	}

	switch {
	case errors.Is(err, shared.ErrSessionExpired):
		p.err = err
		p.stopLocked()
	case err != nil:
		p.err = err
	default:
		p.snapshot = snap
		p.err = nil
		if p.unsettled {
			p.unsettled = false
			p.settleLocked()
		}
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("poll failed", "error", err)
	}
	p.publish()
	return err == nil
}

// settleLocked drops the override once nothing is in flight and no resync is outstanding.
func (p *Poller) settleLocked() {
	if p.inflight == 0 && p.awaiting == 0 && !p.unsettled {
		p.override = nil
	}
}

// Dispatch shows m's optimistic state, makes its upstream call, then schedules a refetch.
//
// The override stays until a refetch lands with no other mutation outstanding. A failed
// refetch leaves it in place for the next successful poll.
func (p *Poller) Dispatch(ctx context.Context, m Mutation) error {
	p.mu.Lock()
	if p.snapshot.NothingPlaying() {
		p.mu.Unlock()
		return shared.ErrNothingPlaying
	}

	cur := Current{DurationMs: p.snapshot.DurationMs}
	if p.override != nil {
		cur.IsPlaying, cur.ProgressMs = p.override.IsPlaying, p.override.ProgressMs
	} else {
		cur.IsPlaying, cur.ProgressMs = p.snapshot.IsPlaying, Interpolate(p.snapshot, time.Now())
	}

	next, call := m.Plan(cur)
	next.DurationMs = cur.DurationMs
	next.ProgressMs = clamp(next.ProgressMs, cur.DurationMs)
	p.override = &next
	p.inflight++
	p.mu.Unlock()

	p.publish()
	p.logger.Debug("dispatch", "control", m.Name, "progress", next.ProgressMs, "playing", next.IsPlaying)

	err := call(ctx, p.player)
	if err != nil {
		p.logger.Warn("control failed", "control", m.Name, "error", err)
	}

	p.mu.Lock()
	p.inflight--
	if errors.Is(err, shared.ErrSessionExpired) {
		p.err = err
		p.stopLocked()
	}
	if p.polling {
		p.scheduleLocked()
	} else if p.inflight == 0 {
		p.override = nil
	}
	p.mu.Unlock()
	p.publish()

	return err
}

func (p *Poller) scheduleLocked() {
	id := p.nextTimer
	p.nextTimer++
	gen := p.gen
	ctx := p.ctx
	p.awaiting++

	p.timers[id] = time.AfterFunc(p.resync, func() {
		p.mu.Lock()
		if _, ok := p.timers[id]; !ok {
			p.mu.Unlock()
			return
		}
		delete(p.timers, id)
		p.mu.Unlock()

		stored, _ := p.fetch(ctx, gen)

		p.mu.Lock()
		if p.gen == gen {
			p.awaiting--
			if !stored {
				// Keep showing the optimistic value; the next poll that lands settles it.
				p.unsettled = true
			}
			p.settleLocked()
		}
		p.mu.Unlock()
		p.publish()
	})
}
