package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/curator/internal/models"
)

var _ list.Item = targetItem{}

// targetItem wraps a TARGET [models.CurationPlaylist] to implement [list.Item].
type targetItem struct {
	playlist models.CurationPlaylist
}

func (i targetItem) FilterValue() string { return i.playlist.Label() }
func (i targetItem) Title() string       { return i.playlist.Label() }
func (i targetItem) Description() string { return i.playlist.ProviderPlaylistID }

func targetItems(playlists []models.CurationPlaylist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = targetItem{playlist: p}
	}
	return items
}

func newTargetList() list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Categories"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.SetStatusBarItemName("category", "categories")
	return l
}
