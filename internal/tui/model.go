// Package tui is the interactive library browser: a list of recordings
// with playback, starring, deletion, and a transcript panel.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jatadi/clarity/internal/audio"
	"github.com/jatadi/clarity/internal/store"
)

// Model is the root bubbletea model for the library browser.
type Model struct {
	store  *store.Store
	player *audio.Player

	recordings []store.Recording
	cursor     int
	expanded   bool // show transcript panel for the selected recording
	playingID  string

	width  int
	height int

	errorMessage string
	statusText   string
}

// New creates a browser over the given store and player.
func New(st *store.Store, player *audio.Player) Model {
	return Model{
		store:      st,
		player:     player,
		statusText: "Loading library...",
	}
}

type recordingsLoadedMsg struct {
	recordings []store.Recording
}

type playbackDoneMsg struct {
	id  string
	err error
}

type actionErrorMsg struct {
	err error
}

// Init loads the library.
func (m Model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		recs, err := m.store.ListRecordings()
		if err != nil {
			return actionErrorMsg{err: err}
		}
		return recordingsLoadedMsg{recordings: recs}
	}
}

func (m Model) playCmd(rec store.Recording) tea.Cmd {
	return func() tea.Msg {
		err := m.player.Play(rec.Filepath)
		return playbackDoneMsg{id: rec.ID, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case recordingsLoadedMsg:
		m.recordings = msg.recordings
		m.statusText = fmt.Sprintf("%d recordings", len(m.recordings))
		if m.cursor >= len(m.recordings) {
			m.cursor = max(0, len(m.recordings)-1)
		}
		return m, nil

	case playbackDoneMsg:
		if m.playingID == msg.id {
			m.playingID = ""
		}
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
		}
		return m, nil

	case actionErrorMsg:
		m.errorMessage = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errorMessage = ""

	switch msg.String() {
	case "q", "ctrl+c":
		m.player.Stop()
		return m, tea.Quit

	case "j", "down":
		if m.cursor < len(m.recordings)-1 {
			m.cursor++
		}
		return m, nil

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "enter":
		m.expanded = !m.expanded
		return m, nil

	case "r":
		return m, m.loadCmd()

	case "p", " ":
		rec, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.playingID != "" {
			m.player.Stop()
			m.playingID = ""
			return m, nil
		}
		m.playingID = rec.ID
		return m, m.playCmd(rec)

	case "s":
		rec, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.store.StarRecording(rec.ID, !rec.IsStarred); err != nil {
			m.errorMessage = err.Error()
			return m, nil
		}
		return m, m.loadCmd()

	case "d":
		rec, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.store.DeleteRecording(rec.ID); err != nil {
			m.errorMessage = err.Error()
			return m, nil
		}
		return m, m.loadCmd()
	}

	return m, nil
}

func (m Model) selected() (store.Recording, bool) {
	if m.cursor < 0 || m.cursor >= len(m.recordings) {
		return store.Recording{}, false
	}
	return m.recordings[m.cursor], true
}

// View renders the browser.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("clarity library"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(m.statusText))
	b.WriteString("\n\n")

	if len(m.recordings) == 0 {
		b.WriteString(dimStyle.Render("No recordings yet"))
		b.WriteString("\n")
	}

	for i, rec := range m.recordings {
		line := m.renderRow(i, rec)
		b.WriteString(line)
		b.WriteString("\n")

		if m.expanded && i == m.cursor {
			b.WriteString(m.renderTranscript(rec))
		}
	}

	if m.errorMessage != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("error: " + m.errorMessage))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderRow(i int, rec store.Recording) string {
	star := "  "
	if rec.IsStarred {
		star = starStyle.Render("★ ")
	}

	cursor := "  "
	if i == m.cursor {
		cursor = selectedStyle.Render("> ")
	}

	name := rec.Filename
	if rec.ID == m.playingID {
		name = playingStyle.Render(name + " ▶")
	} else if i == m.cursor {
		name = selectedStyle.Render(name)
	}

	meta := dimStyle.Render(fmt.Sprintf("  %s  %s",
		formatDuration(rec.Duration),
		rec.CreatedAt.Format("2006-01-02 15:04")))

	return cursor + star + name + meta
}

func (m Model) renderTranscript(rec store.Recording) string {
	if rec.Transcription == "" {
		return dimStyle.Render("    (no transcription)") + "\n"
	}
	var b strings.Builder
	for _, line := range strings.Split(rec.Transcription, "\n") {
		b.WriteString("    ")
		b.WriteString(transcriptStyle.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderFooter() string {
	keys := []struct{ key, desc string }{
		{"j/k", "move"},
		{"enter", "transcript"},
		{"p", "play/stop"},
		{"s", "star"},
		{"d", "delete"},
		{"r", "refresh"},
		{"q", "quit"},
	}
	var parts []string
	for _, k := range keys {
		parts = append(parts, footerKeyStyle.Render(k.key)+footerDescStyle.Render(" "+k.desc))
	}
	return strings.Join(parts, footerDescStyle.Render("  ·  "))
}

func formatDuration(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
