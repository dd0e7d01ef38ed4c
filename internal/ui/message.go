package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgTick MsgKind = iota
	MsgPlaybackChanged
	MsgResolved
	MsgPositionFetched
	MsgCommandDone
	MsgRelocated
)

type resolved struct {
	contextURI string
	resolution models.Resolution
	err        error
}

type positioned struct {
	trackURI string
	position models.PlaylistPosition
	err      error
}

type commandDone struct {
	name string
	err  error
}

type relocated struct {
	result *tasks.RelocationResult
	err    error
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}

// playbackChangedMsg is the constructor for [MsgPlaybackChanged]
func playbackChangedMsg() Msg {
	return Msg{kind: MsgPlaybackChanged}
}

// resolvedMsg is the constructor for [MsgResolved]
func resolvedMsg(contextURI string, res models.Resolution, err error) Msg {
	return Msg{kind: MsgResolved, data: resolved{contextURI, res, err}}
}

// positionMsg is the constructor for [MsgPositionFetched]
func positionMsg(trackURI string, pos models.PlaylistPosition, err error) Msg {
	return Msg{kind: MsgPositionFetched, data: positioned{trackURI, pos, err}}
}

// commandDoneMsg is the constructor for [MsgCommandDone]
func commandDoneMsg(name string, err error) Msg {
	return Msg{kind: MsgCommandDone, data: commandDone{name, err}}
}

// relocatedMsg is the constructor for [MsgRelocated]
func relocatedMsg(res *tasks.RelocationResult, err error) Msg {
	return Msg{kind: MsgRelocated, data: relocated{res, err}}
}
