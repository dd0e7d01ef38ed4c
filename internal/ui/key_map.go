package ui

import "github.com/charmbracelet/bubbles/key"

// seekPercents maps the number keys to seek targets.
var seekPercents = map[string]float64{
	"1": 0.0,
	"2": 0.2,
	"3": 0.4,
	"4": 0.6,
	"5": 0.8,
}

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	playPause key.Binding
	next      key.Binding
	previous  key.Binding
	forward   key.Binding
	rewind    key.Binding
	seek      key.Binding
	up        key.Binding
	down      key.Binding
	move      key.Binding
	trash     key.Binding
	sync      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		playPause: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:      key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "next")),
		previous:  key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "previous")),
		forward:   key.NewBinding(key.WithKeys("."), key.WithHelp(".", "+10s")),
		rewind:    key.NewBinding(key.WithKeys(","), key.WithHelp(",", "-10s")),
		seek:      key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "seek 0-80%")),
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		move:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "move to category")),
		trash:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "trash")),
		sync:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.playPause, k.move, k.trash, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.playPause, k.next, k.previous},
		{k.forward, k.rewind, k.seek},
		{k.up, k.down, k.move, k.trash},
		{k.sync, k.quit},
	}
}
