package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/services"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LibraryView ViewState = iota
	InfoView
)

// TagLister lists the tag library. [repositories.TagRepository] implements it.
type TagLister interface {
	List() ([]*models.Tag, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	player  services.Player
	library TagLister
	width   int
	height  int
	tags    list.Model
	info    *infoFetched
	status  string
	failed  bool
	err     error
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, player services.Player, library TagLister) *Model {
	tags := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	tags.Title = "Tag Library"
	tags.SetShowHelp(false)

	return &Model{
		ctx:     ctx,
		view:    LibraryView,
		player:  player,
		library: library,
		tags:    tags,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init loads the tag library.
func (m *Model) Init() tea.Cmd {
	return m.loadTags()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tags.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LibraryView:
			return m.handleLibraryKeys(msg)
		case InfoView:
			return m.handleInfoKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.tags, cmd = m.tags.Update(msg)
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LibraryView:
		return m.renderLibrary()
	case InfoView:
		return m.renderInfo()
	default:
		return ""
	}
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTagsLoaded:
		data := msg.data.(tagsLoaded)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		cmd := m.tags.SetItems(tagItems(data.tags))
		m.setStatus(fmt.Sprintf("%d tags", len(data.tags)), nil)
		return m, cmd

	case MsgPlayed:
		data := msg.data.(played)
		m.setStatus(fmt.Sprintf("Playing %s", tagItem{data.tag}.Title()), data.err)
		return m, nil

	case MsgInfoFetched:
		data := msg.data.(infoFetched)
		if data.err != nil {
			m.setStatus("", data.err)
			return m, nil
		}
		m.info = &data
		m.view = InfoView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.tags.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.tags, cmd = m.tags.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload):
		return m, m.loadTags()
	case key.Matches(msg, m.keys.play):
		if tag := m.selected(); tag != nil {
			m.setStatus(fmt.Sprintf("Starting %s...", tagItem{tag}.Title()), nil)
			return m, m.play(tag)
		}
		return m, nil
	case key.Matches(msg, m.keys.info):
		if tag := m.selected(); tag != nil {
			return m, m.fetchInfo(tag)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.tags, cmd = m.tags.Update(msg)
	return m, cmd
}

func (m *Model) handleInfoKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = LibraryView
		m.info = nil
		return m, nil
	case key.Matches(msg, m.keys.play):
		if m.info != nil {
			return m, m.play(m.info.tag)
		}
	}
	return m, nil
}

func (m *Model) selected() *models.Tag {
	if item, ok := m.tags.SelectedItem().(tagItem); ok {
		return item.tag
	}
	return nil
}

func (m *Model) setStatus(status string, err error) {
	m.failed = err != nil
	if err != nil {
		status = err.Error()
	}
	m.status = status
}

func (m *Model) loadTags() tea.Cmd {
	return func() tea.Msg {
		tags, err := m.library.List()
		return tagsLoadedMsg(tags, err)
	}
}

func (m *Model) play(tag *models.Tag) tea.Cmd {
	return func() tea.Msg {
		ref, err := tag.Reference()
		if err != nil {
			return playedMsg(tag, err)
		}
		_, err = m.player.Play(m.ctx, ref)
		return playedMsg(tag, err)
	}
}

func (m *Model) fetchInfo(tag *models.Tag) tea.Cmd {
	return func() tea.Msg {
		ref, err := tag.Reference()
		if err != nil {
			return infoFetchedMsg(tag, nil, err)
		}
		md, err := m.player.GetMedia(m.ctx, ref.ID, string(ref.Kind))
		if err == nil && md == nil {
			err = fmt.Errorf("%w: %s", shared.ErrNotFound, ref)
		}
		return infoFetchedMsg(tag, md, err)
	}
}

func (m *Model) renderLibrary() string {
	status := styles.help.Render(m.status)
	if m.failed {
		status = styles.err.Render(m.status)
	}

	helpKeys := []key.Binding{m.keys.play, m.keys.info, m.keys.reload, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", m.tags.View(), status, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderInfo() string {
	if m.info == nil || m.info.metadata == nil {
		return styles.warn.Render("No metadata available")
	}
	md := m.info.metadata

	var b strings.Builder
	b.WriteString(styles.title.Render(md.Name()))
	b.WriteString("\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s\n", styles.label.Render(label), value)
	}
	row("By", md.ArtistName())
	row("Type", md.Get("type").String())
	row("Released", md.Get("release_date").String())
	if total := md.Get("tracks.total"); total.Exists() {
		row("Tracks", total.String())
	}
	row("URI", m.info.tag.URI)
	row("Tag", m.info.tag.TagID)

	if m.status != "" {
		style := styles.ok
		if m.failed {
			style = styles.err
		}
		b.WriteString("\n" + style.Render(m.status) + "\n")
	}

	helpKeys := []key.Binding{m.keys.play, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s", b.String(), m.help.ShortHelpView(helpKeys))
}
