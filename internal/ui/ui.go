package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/playback"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/desertthunder/curator/internal/tasks"
)

const tickInterval = 250 * time.Millisecond

// Playback is the polled player state the view renders.
type Playback interface {
	Start(ctx context.Context) error
	Stop()
	Sync(ctx context.Context) error
	State(now time.Time) playback.State
	Updates() <-chan struct{}
}

// Controller issues optimistic player commands.
type Controller interface {
	PlayPause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	SeekToPercent(ctx context.Context, pct float64) error
	Rewind(ctx context.Context) error
	FastForward(ctx context.Context) error
}

// ContextResolver maps a context URI to its curation block.
type ContextResolver interface {
	Resolve(ctx context.Context, contextURI string) (models.Resolution, error)
}

// Relocator files a track into another playlist.
type Relocator interface {
	Relocate(ctx context.Context, progress chan<- tasks.ProgressUpdate, trackURI, targetID, sourceID string) (*tasks.RelocationResult, error)
}

// PositionFinder locates a track inside its playlist.
type PositionFinder interface {
	PlaylistPosition(ctx context.Context, playlistID, trackURI string) (models.PlaylistPosition, error)
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	NowPlayingView ViewState = iota
	SessionExpiredView
)

// ModelOpts contains the dependencies of a [Model]. Positions and Now are optional.
type ModelOpts struct {
	Playback  Playback
	Controls  Controller
	Resolver  ContextResolver
	Relocator Relocator
	Positions PositionFinder
	Now       func() time.Time
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	player    Playback
	controls  Controller
	resolver  ContextResolver
	relocator Relocator
	positions PositionFinder
	now       func() time.Time

	width  int
	height int

	state      playback.State
	contextURI string
	resolution models.Resolution
	resolveErr error
	resolved   bool
	trackURI   string
	position   *models.PlaylistPosition
	targets    list.Model
	relocating bool
	status     string
	statusErr  error
	sessionErr error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Model{
		ctx:       ctx,
		view:      NowPlayingView,
		player:    opts.Playback,
		controls:  opts.Controls,
		resolver:  opts.Resolver,
		relocator: opts.Relocator,
		positions: opts.Positions,
		now:       opts.Now,
		targets:   newTargetList(),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts polling, listens for playback changes and starts the progress ticker.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.start(), m.waitForUpdate(), m.tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.targets.SetSize(msg.Width-4, max(msg.Height-14, 3))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.targets, cmd = m.targets.Update(msg)
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.view == SessionExpiredView {
		return m.renderSessionExpired()
	}
	return m.renderNowPlaying()
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTick:
		return m, tea.Batch(m.refresh(), m.tick())

	case MsgPlaybackChanged:
		return m, tea.Batch(m.refresh(), m.waitForUpdate())

	case MsgResolved:
		d := msg.data.(resolved)
		if d.contextURI != m.contextURI {
			return m, nil
		}
		if m.expireOn(d.err) {
			return m, nil
		}
		m.resolution, m.resolveErr, m.resolved = d.resolution, d.err, true
		return m, m.targets.SetItems(targetItems(d.resolution.TargetPlaylists))

	case MsgPositionFetched:
		d := msg.data.(positioned)
		if d.trackURI != m.trackURI || d.err != nil {
			return m, nil
		}
		m.position = &d.position
		return m, nil

	case MsgCommandDone:
		d := msg.data.(commandDone)
		if m.expireOn(d.err) {
			return m, nil
		}
		switch {
		case d.err != nil:
			m.status, m.statusErr = d.name, d.err
		case m.statusErr != nil:
			m.status, m.statusErr = "", nil
		}
		return m, nil

	case MsgRelocated:
		d := msg.data.(relocated)
		m.relocating = false
		if m.expireOn(d.err) {
			return m, nil
		}
		if d.result == nil {
			m.status, m.statusErr = "", d.err
			return m, nil
		}
		m.status, m.statusErr = d.result.Summary(), nil
		if d.result.Outcome == tasks.PartialFailure {
			m.statusErr = d.err
		}
		if d.result.Advance() {
			return m, m.command("next", m.controls.Next)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		m.player.Stop()
		return m, tea.Quit
	}
	if m.view == SessionExpiredView {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.playPause):
		return m, m.command("play/pause", m.controls.PlayPause)
	case key.Matches(msg, m.keys.next):
		return m, m.command("next", m.controls.Next)
	case key.Matches(msg, m.keys.previous):
		return m, m.command("previous", m.controls.Previous)
	case key.Matches(msg, m.keys.forward):
		return m, m.command("fast-forward", m.controls.FastForward)
	case key.Matches(msg, m.keys.rewind):
		return m, m.command("rewind", m.controls.Rewind)
	case key.Matches(msg, m.keys.seek):
		pct := seekPercents[msg.String()]
		return m, m.command("seek", func(ctx context.Context) error {
			return m.controls.SeekToPercent(ctx, pct)
		})
	case key.Matches(msg, m.keys.move):
		item, ok := m.targets.SelectedItem().(targetItem)
		if !ok {
			m.status, m.statusErr = "No category selected", nil
			return m, nil
		}
		return m, m.relocateTo(item.playlist)
	case key.Matches(msg, m.keys.trash):
		if m.resolution.TrashPlaylist == nil {
			m.status, m.statusErr = "No trash playlist for this context", nil
			return m, nil
		}
		return m, m.relocateTo(*m.resolution.TrashPlaylist)
	case key.Matches(msg, m.keys.sync):
		return m, func() tea.Msg {
			return commandDoneMsg("refresh", m.player.Sync(m.ctx))
		}
	}

	var cmd tea.Cmd
	m.targets, cmd = m.targets.Update(msg)
	return m, cmd
}

// refresh reads the poller and schedules lookups for a new context or track.
func (m *Model) refresh() tea.Cmd {
	m.state = m.player.State(m.now())
	if m.expireOn(m.state.Err) {
		return nil
	}

	var cmds []tea.Cmd
	snap := m.state.Snapshot

	if snap.ContextURI != m.contextURI {
		m.contextURI = snap.ContextURI
		m.resolution, m.resolveErr, m.resolved = models.Resolution{}, nil, false
		cmds = append(cmds, m.targets.SetItems(nil))
		if snap.ContextURI != "" {
			cmds = append(cmds, m.resolve(snap.ContextURI))
		}
	}

	if snap.TrackURI != m.trackURI {
		m.trackURI = snap.TrackURI
		m.position = nil
		if cmd := m.fetchPosition(snap); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	return tea.Batch(cmds...)
}

// expireOn switches to the session view for errors that end the session.
func (m *Model) expireOn(err error) bool {
	if errors.Is(err, shared.ErrSessionExpired) || errors.Is(err, shared.ErrNotAuthenticated) {
		m.view = SessionExpiredView
		m.sessionErr = err
		return true
	}
	return false
}

// command runs a player control. Controls are disabled while nothing is playing.
func (m *Model) command(name string, fn func(ctx context.Context) error) tea.Cmd {
	if m.state.Snapshot.NothingPlaying() {
		m.status, m.statusErr = "", shared.ErrNothingPlaying
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return commandDoneMsg(name, fn(ctx))
	}
}

func (m *Model) relocateTo(target models.CurationPlaylist) tea.Cmd {
	if m.relocating {
		return nil
	}
	snap := m.state.Snapshot
	if snap.NothingPlaying() {
		m.status, m.statusErr = "", shared.ErrNothingPlaying
		return nil
	}

	m.relocating = true
	m.status, m.statusErr = fmt.Sprintf("Moving to %s...", target.Label()), nil

	ctx, relocator := m.ctx, m.relocator
	trackURI, sourceID := snap.TrackURI, shared.LastSegment(snap.ContextURI)
	return func() tea.Msg {
		res, err := relocator.Relocate(ctx, nil, trackURI, target.ProviderPlaylistID, sourceID)
		return relocatedMsg(res, err)
	}
}

func (m *Model) start() tea.Cmd {
	ctx, player := m.ctx, m.player
	return func() tea.Msg {
		return commandDoneMsg("start", player.Start(ctx))
	}
}

func (m *Model) waitForUpdate() tea.Cmd {
	ctx, updates := m.ctx, m.player.Updates()
	return func() tea.Msg {
		select {
		case <-updates:
			return playbackChangedMsg()
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) resolve(contextURI string) tea.Cmd {
	ctx, resolver := m.ctx, m.resolver
	return func() tea.Msg {
		res, err := resolver.Resolve(ctx, contextURI)
		return resolvedMsg(contextURI, res, err)
	}
}

// fetchPosition looks up the track's index when the context is a playlist.
func (m *Model) fetchPosition(snap models.PlaybackSnapshot) tea.Cmd {
	if m.positions == nil || snap.NothingPlaying() || !strings.Contains(snap.ContextURI, ":playlist:") {
		return nil
	}
	playlistID := shared.LastSegment(snap.ContextURI)
	if playlistID == "" {
		return nil
	}

	ctx, positions, trackURI := m.ctx, m.positions, snap.TrackURI
	return func() tea.Msg {
		pos, err := positions.PlaylistPosition(ctx, playlistID, trackURI)
		return positionMsg(trackURI, pos, err)
	}
}

func (m *Model) renderNowPlaying() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Now Playing"))
	b.WriteString("\n")

	snap := m.state.Snapshot
	if snap.NothingPlaying() {
		b.WriteString(styles.help.Render("Nothing playing. Start a playlist in Spotify."))
		b.WriteString("\n")
	} else {
		b.WriteString(styles.ok.Render(snap.TrackName))
		b.WriteString("\n")
		b.WriteString(subtitle(snap))
		b.WriteString("\n\n")
		b.WriteString(m.renderProgress())
		b.WriteString("\n")

		if m.resolution.Block != nil {
			b.WriteString(styles.help.Render(m.resolution.Block.Label()))
			b.WriteString("\n")
		}
		if m.position != nil {
			b.WriteString(styles.help.Render(FormatPosition(*m.position)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(m.renderTargets())
	}

	if line := m.renderStatus(); line != "" {
		b.WriteString("\n")
		b.WriteString(line)
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderProgress() string {
	icon := "⏸"
	if m.state.IsPlaying {
		icon = "▶"
	}
	duration := m.state.Snapshot.DurationMs
	width := 30
	if m.width > 0 {
		width = max(m.width-24, 10)
	}

	line := fmt.Sprintf("%s %s %s %s",
		icon,
		playback.FormatMs(m.state.ProgressMs),
		progressBar(m.state.ProgressMs, duration, width),
		playback.FormatMs(duration),
	)
	if m.state.Pending {
		line += styles.help.Render(" ...")
	}
	return line
}

func (m *Model) renderTargets() string {
	switch {
	case m.resolveErr != nil:
		return styles.err.Render(fmt.Sprintf("Could not load categories: %v", m.resolveErr))
	case !m.resolved:
		return styles.help.Render("Loading categories...")
	case m.resolution.Empty():
		return styles.help.Render("Not a curation playlist")
	case len(m.resolution.TargetPlaylists) == 0:
		return styles.help.Render("No categories in this block")
	default:
		return m.targets.View()
	}
}

func (m *Model) renderStatus() string {
	switch {
	case m.statusErr != nil && m.status != "":
		return styles.err.Render(fmt.Sprintf("%s: %v", m.status, m.statusErr))
	case m.statusErr != nil:
		return styles.err.Render(m.statusErr.Error())
	case m.status != "":
		return styles.warn.Render(m.status)
	case m.state.Err != nil:
		return styles.err.Render(fmt.Sprintf("Playback unavailable: %v", m.state.Err))
	default:
		return ""
	}
}

func (m *Model) renderSessionExpired() string {
	title := styles.err.Render("Session expired")
	msg := "Log in again with: curator auth login"
	if errors.Is(m.sessionErr, shared.ErrNotAuthenticated) {
		title = styles.warn.Render("Not logged in")
		msg = "Log in with: curator auth login"
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return styles.box.Render(fmt.Sprintf("%s\n\n%s", title, msg)) + "\n\n" + helpView
}

func subtitle(snap models.PlaybackSnapshot) string {
	parts := []string{}
	if len(snap.Artists) > 0 {
		parts = append(parts, strings.Join(snap.Artists, ", "))
	}
	if snap.AlbumName != "" {
		parts = append(parts, snap.AlbumName)
	}
	return strings.Join(parts, " • ")
}

func progressBar(progress, duration, width int) string {
	filled := 0
	if duration > 0 {
		filled = progress * width / duration
	}
	filled = min(max(filled, 0), width)
	return styles.filled.Render(strings.Repeat("━", filled)) + styles.empty.Render(strings.Repeat("─", width-filled))
}

// FormatPosition renders "name 3 / 120". An unknown index renders as "?".
func FormatPosition(pos models.PlaylistPosition) string {
	index := "?"
	if pos.Index >= 0 {
		index = fmt.Sprint(pos.Index + 1)
	}
	return fmt.Sprintf("%s %s / %d", pos.Name, index, pos.Total)
}
