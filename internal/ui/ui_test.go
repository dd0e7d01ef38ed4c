package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/playback"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/desertthunder/curator/internal/tasks"
)

type fakePlayback struct {
	mu      sync.Mutex
	state   playback.State
	started int
	stopped int
	synced  int
	updates chan struct{}
}

func newFakePlayback(snap models.PlaybackSnapshot) *fakePlayback {
	return &fakePlayback{
		state:   playback.State{Polling: true, Snapshot: snap, IsPlaying: snap.IsPlaying, ProgressMs: snap.ProgressMs},
		updates: make(chan struct{}, 1),
	}
}

func (f *fakePlayback) Start(context.Context) error { f.started++; return nil }
func (f *fakePlayback) Stop()                       { f.stopped++ }
func (f *fakePlayback) Sync(context.Context) error  { f.synced++; return nil }
func (f *fakePlayback) Updates() <-chan struct{}    { return f.updates }

func (f *fakePlayback) State(time.Time) playback.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakePlayback) set(st playback.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = st
}

type fakeControls struct {
	calls []string
	err   error
}

func (f *fakeControls) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeControls) PlayPause(context.Context) error   { return f.record("playpause") }
func (f *fakeControls) Next(context.Context) error        { return f.record("next") }
func (f *fakeControls) Previous(context.Context) error    { return f.record("previous") }
func (f *fakeControls) Rewind(context.Context) error      { return f.record("rewind") }
func (f *fakeControls) FastForward(context.Context) error { return f.record("forward") }
func (f *fakeControls) SeekToPercent(_ context.Context, pct float64) error {
	return f.record(fmt.Sprintf("seek %.1f", pct))
}

type fakeResolver struct {
	res   models.Resolution
	err   error
	calls []string
}

func (f *fakeResolver) Resolve(_ context.Context, uri string) (models.Resolution, error) {
	f.calls = append(f.calls, uri)
	return f.res, f.err
}

type fakeRelocator struct {
	outcome tasks.Outcome
	err     error
	calls   []string
}

func (f *fakeRelocator) Relocate(_ context.Context, _ chan<- tasks.ProgressUpdate, trackURI, targetID, sourceID string) (*tasks.RelocationResult, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s %s->%s", trackURI, sourceID, targetID))
	res := &tasks.RelocationResult{TrackURI: trackURI, TargetID: targetID, SourceID: sourceID, Outcome: f.outcome}
	if f.outcome == tasks.PartialFailure {
		res.RemoveErr = f.err
	}
	return res, f.err
}

type fakePositions struct{}

func (fakePositions) PlaylistPosition(context.Context, string, string) (models.PlaylistPosition, error) {
	return models.PlaylistPosition{Name: "Inbox", Index: 2, Total: 120}, nil
}

func ptr[T any](v T) *T { return &v }

func managedResolution() models.Resolution {
	block := models.CurationBlock{ID: 2, Name: "Week 2", StyleName: "Techno", StartDate: "2025-01-06", EndDate: "2025-01-12"}
	return models.Resolution{
		TargetPlaylists: []models.CurationPlaylist{
			{Role: models.RoleTarget, ProviderPlaylistID: "T-AMB", CategoryName: ptr("Ambient")},
			{Role: models.RoleTarget, ProviderPlaylistID: "T-DEEP", CategoryName: ptr("Deep")},
			{Role: models.RoleTarget, ProviderPlaylistID: "T-TECH", CategoryName: ptr("Tech")},
		},
		TrashPlaylist: &models.CurationPlaylist{Role: models.RoleTrash, ProviderPlaylistID: "BIN", CategoryName: ptr("Bin")},
		Block:         &block,
	}
}

func playingSnapshot() models.PlaybackSnapshot {
	return models.PlaybackSnapshot{
		IsPlaying:  true,
		ProgressMs: 30_000,
		DurationMs: 200_000,
		TrackID:    "t1",
		TrackURI:   "spotify:track:t1",
		TrackName:  "Night Drive",
		Artists:    []string{"Ana", "Bo"},
		AlbumName:  "Roads",
		ContextURI: "spotify:playlist:ABC123",
	}
}

type harness struct {
	model     *Model
	player    *fakePlayback
	controls  *fakeControls
	resolver  *fakeResolver
	relocator *fakeRelocator
}

func newHarness(snap models.PlaybackSnapshot) *harness {
	h := &harness{
		player:    newFakePlayback(snap),
		controls:  &fakeControls{},
		resolver:  &fakeResolver{res: managedResolution()},
		relocator: &fakeRelocator{},
	}
	h.model = NewModel(context.Background(), ModelOpts{
		Playback:  h.player,
		Controls:  h.controls,
		Resolver:  h.resolver,
		Relocator: h.relocator,
		Positions: fakePositions{},
	})
	h.model.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return h
}

// drive runs cmd and feeds every resulting Msg back into the model, expanding batches.
// Commands only come from refreshes, key presses and their follow-ups, so no tick is re-armed.
func (h *harness) drive(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case Msg:
			_, cmd := h.model.Update(msg)
			queue = append(queue, cmd)
		}
	}
}

// sync feeds a playback change into the model and runs the lookups it triggers.
func (h *harness) sync(t *testing.T) {
	t.Helper()
	h.drive(t, h.model.refresh())
}

func (h *harness) press(t *testing.T, k string) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := h.model.Update(msg)
	h.drive(t, cmd)
}

func TestModel(t *testing.T) {
	t.Run("Renders Now Playing", func(t *testing.T) {
		h := newHarness(playingSnapshot())
		h.sync(t)

		view := h.model.View()
		tt := []string{
			"Night Drive",
			"Ana, Bo • Roads",
			"0:30",
			"3:20",
			"Week 2 • Techno • 2025-01-06 - 2025-01-12",
			"Inbox 3 / 120",
			"Ambient",
			"Tech",
		}
		for _, want := range tt {
			if !strings.Contains(view, want) {
				t.Errorf("view missing %q:\n%s", want, view)
			}
		}
		if len(h.resolver.calls) != 1 || h.resolver.calls[0] != "spotify:playlist:ABC123" {
			t.Errorf("expected one resolve for the context, got %v", h.resolver.calls)
		}
	})

	t.Run("Resolves Once Per Context", func(t *testing.T) {
		h := newHarness(playingSnapshot())
		h.sync(t)
		h.sync(t)
		if len(h.resolver.calls) != 1 {
			t.Errorf("expected cached context, got %d resolves", len(h.resolver.calls))
		}

		snap := playingSnapshot()
		snap.ContextURI = "spotify:playlist:OTHER"
		h.player.set(playback.State{Snapshot: snap, IsPlaying: true})
		h.sync(t)
		if len(h.resolver.calls) != 2 {
			t.Errorf("expected a resolve for the new context, got %v", h.resolver.calls)
		}
	})

	t.Run("Unmanaged Context", func(t *testing.T) {
		h := newHarness(playingSnapshot())
		h.resolver.res = models.Resolution{}
		h.sync(t)

		if !strings.Contains(h.model.View(), "Not a curation playlist") {
			t.Errorf("expected unmanaged notice, got:\n%s", h.model.View())
		}
	})

	t.Run("Key Bindings", func(t *testing.T) {
		tt := []struct {
			key  string
			want string
		}{
			{key: " ", want: "playpause"},
			{key: ">", want: "next"},
			{key: "<", want: "previous"},
			{key: ".", want: "forward"},
			{key: ",", want: "rewind"},
			{key: "1", want: "seek 0.0"},
			{key: "3", want: "seek 0.4"},
			{key: "5", want: "seek 0.8"},
		}

		for _, tc := range tt {
			t.Run(tc.want, func(t *testing.T) {
				h := newHarness(playingSnapshot())
				h.sync(t)
				h.press(t, tc.key)

				if len(h.controls.calls) != 1 || h.controls.calls[0] != tc.want {
					t.Errorf("expected %q, got %v", tc.want, h.controls.calls)
				}
			})
		}
	})

	t.Run("Controls Disabled When Nothing Playing", func(t *testing.T) {
		h := newHarness(models.PlaybackSnapshot{})
		h.sync(t)

		for _, k := range []string{" ", ">", "<", ".", ",", "2", "t", "enter"} {
			h.press(t, k)
		}
		if len(h.controls.calls) != 0 || len(h.relocator.calls) != 0 {
			t.Errorf("expected no calls, got controls=%v relocations=%v", h.controls.calls, h.relocator.calls)
		}
		if len(h.resolver.calls) != 0 {
			t.Errorf("expected no resolve without a context, got %v", h.resolver.calls)
		}

		view := h.model.View()
		if !strings.Contains(view, "Nothing playing") {
			t.Errorf("expected nothing playing view, got:\n%s", view)
		}
	})

	t.Run("Move Advances On Success", func(t *testing.T) {
		h := newHarness(playingSnapshot())
		h.sync(t)

		h.press(t, "j")
		h.press(t, "j")
		h.press(t, "enter")

		if len(h.relocator.calls) != 1 || h.relocator.calls[0] != "spotify:track:t1 ABC123->T-TECH" {
			t.Fatalf("expected move to Tech, got %v", h.relocator.calls)
		}
		if len(h.controls.calls) != 1 || h.controls.calls[0] != "next" {
			t.Errorf("expected advance to next track, got %v", h.controls.calls)
		}
		if !strings.Contains(h.model.View(), "Moved to T-TECH") {
			t.Errorf("expected move summary, got:\n%s", h.model.View())
		}
	})

	t.Run("Partial Move Does Not Advance", func(t *testing.T) {
		h := newHarness(playingSnapshot())
		h.relocator.outcome = tasks.PartialFailure
		h.relocator.err = fmt.Errorf("%w: ABC123: 502", shared.ErrPartialRelocation)
		h.sync(t)

		h.press(t, "enter")

		if len(h.controls.calls) != 0 {
			t.Errorf("expected no advance, got %v", h.controls.calls)
		}
		if !strings.Contains(h.model.View(), "still in ABC123") {
			t.Errorf("expected partial summary, got:\n%s", h.model.View())
		}
	})

	t.Run("Trash", func(t *testing.T) {
		h := newHarness(playingSnapshot())
		h.sync(t)
		h.press(t, "t")

		if len(h.relocator.calls) != 1 || h.relocator.calls[0] != "spotify:track:t1 ABC123->BIN" {
			t.Errorf("expected move to trash, got %v", h.relocator.calls)
		}
	})

	t.Run("No Trash Playlist", func(t *testing.T) {
		h := newHarness(playingSnapshot())
		res := managedResolution()
		res.TrashPlaylist = nil
		h.resolver.res = res
		h.sync(t)
		h.press(t, "t")

		if len(h.relocator.calls) != 0 {
			t.Errorf("expected no relocation, got %v", h.relocator.calls)
		}
		if !strings.Contains(h.model.View(), "No trash playlist") {
			t.Errorf("expected notice, got:\n%s", h.model.View())
		}
	})

	t.Run("Session Expired", func(t *testing.T) {
		h := newHarness(playingSnapshot())
		h.sync(t)

		h.player.set(playback.State{Err: fmt.Errorf("%w: refresh rejected", shared.ErrSessionExpired)})
		h.sync(t)

		if h.model.view != SessionExpiredView {
			t.Fatalf("expected session expired view, got %v", h.model.view)
		}
		if !strings.Contains(h.model.View(), "Session expired") {
			t.Errorf("unexpected view:\n%s", h.model.View())
		}

		h.press(t, " ")
		if len(h.controls.calls) != 0 {
			t.Errorf("expected controls ignored after expiry, got %v", h.controls.calls)
		}
	})

	t.Run("Command Error Shown", func(t *testing.T) {
		h := newHarness(playingSnapshot())
		h.controls.err = fmt.Errorf("%w: 502", shared.ErrUpstreamUnavailable)
		h.sync(t)
		h.press(t, ">")

		if !strings.Contains(h.model.View(), "upstream unavailable") {
			t.Errorf("expected error in status line, got:\n%s", h.model.View())
		}
	})

	t.Run("Quit Stops Polling", func(t *testing.T) {
		h := newHarness(playingSnapshot())
		_, cmd := h.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
		if h.player.stopped != 1 {
			t.Errorf("expected poller stopped, got %d", h.player.stopped)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected quit")
		}
	})

	t.Run("Stale Resolution Ignored", func(t *testing.T) {
		h := newHarness(playingSnapshot())
		h.sync(t)

		h.model.Update(resolvedMsg("spotify:playlist:OLD", models.Resolution{}, errors.New("late")))
		if h.model.resolveErr != nil || len(h.model.resolution.TargetPlaylists) != 3 {
			t.Errorf("expected stale result dropped, got %+v %v", h.model.resolution, h.model.resolveErr)
		}
	})
}

func TestFormatPosition(t *testing.T) {
	tt := []struct {
		pos  models.PlaylistPosition
		want string
	}{
		{pos: models.PlaylistPosition{Name: "Inbox", Index: 0, Total: 120}, want: "Inbox 1 / 120"},
		{pos: models.PlaylistPosition{Name: "Inbox", Index: -1, Total: 5}, want: "Inbox ? / 5"},
	}
	for _, tc := range tt {
		if got := FormatPosition(tc.pos); got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}
