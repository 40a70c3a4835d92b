package tui

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/parplan/internal/analyzer"
	"github.com/Iron-Ham/parplan/internal/task"
	tea "github.com/charmbracelet/bubbletea"
)

func testAnalysis(t *testing.T) *analyzer.Analysis {
	t.Helper()
	a, err := analyzer.Analyze([]task.Raw{
		{ID: "t1", Description: "Add users table migration", Files: []string{"schema.sql"}},
		{ID: "t2", Description: "Backfill user rows", DependsOn: []string{"t1"}},
		{ID: "t3", Description: "Create audit columns", Files: []string{"schema.sql"}},
	}, analyzer.Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return a
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func TestModel_SelectionMoves(t *testing.T) {
	m := sized(t, NewModel(testAnalysis(t)))

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	if m.selected != 1 {
		t.Errorf("selected = %d after down, want 1", m.selected)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(Model)
	if m.selected != 0 {
		t.Errorf("selected = %d after up, want 0", m.selected)
	}

	// Selection clamps at the ends
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(Model)
	if m.selected != 0 {
		t.Errorf("selected = %d after up at top, want 0", m.selected)
	}
}

func TestModel_QuitKeys(t *testing.T) {
	m := sized(t, NewModel(testAnalysis(t)))
	for _, key := range []string{"q", "ctrl+c"} {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		if key == "ctrl+c" {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Errorf("key %q produced no command, want quit", key)
		}
	}
}

func TestModel_TabCycles(t *testing.T) {
	m := sized(t, NewModel(testAnalysis(t)))
	for want := 1; want <= tabCount; want++ {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = updated.(Model)
		if m.tab != want%tabCount {
			t.Fatalf("tab = %d after %d presses, want %d", m.tab, want, want%tabCount)
		}
	}
}

func TestModel_ViewShowsBatches(t *testing.T) {
	m := sized(t, NewModel(testAnalysis(t)))
	view := m.View()
	for _, want := range []string{"Batch 1", "Batch 2", "Batch 3"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestModel_ConflictTabNamesPair(t *testing.T) {
	m := sized(t, NewModel(testAnalysis(t)))
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)

	content := m.detailContent()
	if !strings.Contains(content, "t1") || !strings.Contains(content, "t3") {
		t.Errorf("conflict tab = %q, want the t1/t3 file conflict shown", content)
	}
}

func TestModel_ViewBeforeSize(t *testing.T) {
	m := NewModel(testAnalysis(t))
	if m.View() == "" {
		t.Error("View() before sizing should render a placeholder")
	}
}
