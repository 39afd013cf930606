package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jatadi/clarity/internal/store"
)

func testRecordings() []store.Recording {
	return []store.Recording{
		{ID: "1", Filename: "first.m4a", Duration: 65 * time.Second, CreatedAt: time.Now()},
		{ID: "2", Filename: "second.m4a", CreatedAt: time.Now()},
		{ID: "3", Filename: "third.m4a", IsStarred: true, CreatedAt: time.Now()},
	}
}

func loadedModel() Model {
	m := New(nil, nil)
	updated, _ := m.Update(recordingsLoadedMsg{recordings: testRecordings()})
	return updated.(Model)
}

func TestRecordingsLoaded(t *testing.T) {
	m := loadedModel()
	if len(m.recordings) != 3 {
		t.Fatalf("got %d recordings", len(m.recordings))
	}
	if m.statusText != "3 recordings" {
		t.Errorf("status = %q", m.statusText)
	}
}

func TestCursorMovement(t *testing.T) {
	m := loadedModel()

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = updated.(Model)
	if m.cursor != 1 {
		t.Errorf("cursor = %d after j, want 1", m.cursor)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	m = updated.(Model)
	if m.cursor != 0 {
		t.Errorf("cursor = %d after k, want 0", m.cursor)
	}

	// Cursor must not move above the first row.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	m = updated.(Model)
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0 (clamped)", m.cursor)
	}

	// Nor below the last.
	for i := 0; i < 10; i++ {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
		m = updated.(Model)
	}
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", m.cursor)
	}
}

func TestCursorClampedAfterReload(t *testing.T) {
	m := loadedModel()
	m.cursor = 2

	updated, _ := m.Update(recordingsLoadedMsg{recordings: testRecordings()[:1]})
	m = updated.(Model)
	if m.cursor != 0 {
		t.Errorf("cursor = %d after shrink, want 0", m.cursor)
	}
}

func TestToggleTranscript(t *testing.T) {
	m := loadedModel()

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if !m.expanded {
		t.Error("enter should expand the transcript panel")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if m.expanded {
		t.Error("second enter should collapse the panel")
	}
}

func TestViewShowsRecordings(t *testing.T) {
	m := loadedModel()
	view := m.View()

	for _, name := range []string{"first.m4a", "second.m4a", "third.m4a"} {
		if !strings.Contains(view, name) {
			t.Errorf("view missing %q", name)
		}
	}
	if !strings.Contains(view, "1:05") {
		t.Error("view missing formatted duration 1:05")
	}
}

func TestViewEmptyLibrary(t *testing.T) {
	m := New(nil, nil)
	updated, _ := m.Update(recordingsLoadedMsg{})
	m = updated.(Model)

	if !strings.Contains(m.View(), "No recordings yet") {
		t.Error("empty library message missing")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{5 * time.Second, "0:05"},
		{65 * time.Second, "1:05"},
		{10 * time.Minute, "10:00"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.d); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
