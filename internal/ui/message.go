package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tapedeck/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTagsLoaded MsgKind = iota
	MsgPlayed
	MsgInfoFetched
)

type tagsLoaded struct {
	tags []*models.Tag
	err  error
}

type played struct {
	tag *models.Tag
	err error
}

type infoFetched struct {
	tag      *models.Tag
	metadata *models.Metadata
	err      error
}

// tagsLoadedMsg is the constructor for [MsgTagsLoaded]
func tagsLoadedMsg(tags []*models.Tag, err error) Msg {
	return Msg{kind: MsgTagsLoaded, data: tagsLoaded{tags, err}}
}

// playedMsg is the constructor for [MsgPlayed]
func playedMsg(tag *models.Tag, err error) Msg {
	return Msg{kind: MsgPlayed, data: played{tag, err}}
}

// infoFetchedMsg is the constructor for [MsgInfoFetched]
func infoFetchedMsg(tag *models.Tag, md *models.Metadata, err error) Msg {
	return Msg{kind: MsgInfoFetched, data: infoFetched{tag, md, err}}
}
