// Package tui implements the interactive execution-plan browser behind
// `parplan view`: a batch list alongside the selected batch's tasks,
// conflicts, and duplicate findings.
package tui

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/parplan/internal/analyzer"
	"github.com/Iron-Ham/parplan/internal/task"
	"github.com/Iron-Ham/parplan/internal/tui/styles"
	"github.com/Iron-Ham/parplan/internal/util"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const sidebarWidth = 26

// Detail tabs for the right-hand pane.
const (
	tabTasks = iota
	tabConflicts
	tabFindings
	tabCount
)

var tabNames = []string{"Tasks", "Conflicts", "Findings"}

// App wraps the Bubbletea program
type App struct {
	model Model
}

// New creates a new TUI application for browsing an analysis
func New(analysis *analyzer.Analysis) *App {
	return &App{model: NewModel(analysis)}
}

// Run starts the TUI application
func (a *App) Run() error {
	program := tea.NewProgram(a.model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// Model is the Bubbletea model for the plan browser
type Model struct {
	analysis *analyzer.Analysis
	byID     map[string]int

	selected int // index of the selected batch
	tab      int

	viewport viewport.Model
	width    int
	height   int
	ready    bool

	styles styles.Set
}

// NewModel creates the initial model
func NewModel(analysis *analyzer.Analysis) Model {
	return Model{
		analysis: analysis,
		byID:     task.ByID(analysis.Tasks),
		styles:   styles.ForColor(true),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.refreshViewport()
			}
		case "down", "j":
			if m.selected < len(m.analysis.Batches)-1 {
				m.selected++
				m.refreshViewport()
			}
		case "tab":
			m.tab = (m.tab + 1) % tabCount
			m.refreshViewport()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		detailWidth := maxInt(m.width-sidebarWidth-6, 20)
		detailHeight := maxInt(m.height-6, 5)
		if !m.ready {
			m.viewport = viewport.New(detailWidth, detailHeight)
			m.ready = true
		} else {
			m.viewport.Width = detailWidth
			m.viewport.Height = detailHeight
		}
		m.refreshViewport()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := m.styles.Title.Render("parplan") + "  " + m.styles.Muted.Render(m.headline())
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar(), m.styles.Border.Render(m.viewport.View()))
	help := m.styles.HelpBar.Render("↑/↓ batch · tab detail · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

func (m Model) headline() string {
	return fmt.Sprintf("%s · %d tasks in %d batches · %.2fx speedup",
		m.analysis.Recommendation.Mode,
		m.analysis.Stats.TaskCount,
		m.analysis.Stats.BatchCount,
		m.analysis.Metrics.EstimatedSpeedup)
}

// sidebar renders the batch list with the selected entry highlighted.
func (m Model) sidebar() string {
	var b strings.Builder
	for i, batch := range m.analysis.Batches {
		label := fmt.Sprintf("Batch %d (%d)", i+1, len(batch))
		if i == m.selected {
			label = m.styles.Selected.Render(label)
		} else {
			label = "  " + label
		}
		b.WriteString(label)
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Width(sidebarWidth).Render(b.String())
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.detailContent())
	m.viewport.GotoTop()
}

// detailContent builds the right-hand pane for the selected batch and tab.
func (m Model) detailContent() string {
	if len(m.analysis.Batches) == 0 {
		return "no batches"
	}
	batch := m.analysis.Batches[m.selected]

	var b strings.Builder
	b.WriteString(m.tabBar())
	b.WriteString("\n\n")

	switch m.tab {
	case tabTasks:
		m.writeTasks(&b, batch)
	case tabConflicts:
		m.writeConflicts(&b, batch)
	case tabFindings:
		m.writeFindings(&b, batch)
	}
	return b.String()
}

func (m Model) tabBar() string {
	parts := make([]string, len(tabNames))
	for i, name := range tabNames {
		if i == m.tab {
			parts[i] = m.styles.Selected.Render(name)
		} else {
			parts[i] = m.styles.Muted.Render(name)
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) writeTasks(b *strings.Builder, batch []string) {
	for _, id := range batch {
		t := m.analysis.Tasks[m.byID[id]]
		desc := util.TruncateString(t.Description, maxInt(m.viewport.Width-len(id)-4, 20))
		fmt.Fprintf(b, "%s  %s\n", m.styles.BatchLabel.Render(id), desc)
		fmt.Fprintf(b, "   effort %.1f", t.Effort)
		if len(t.DependsOn) > 0 {
			fmt.Fprintf(b, " · after %s", strings.Join(t.DependsOn, ", "))
		}
		if len(t.Files) > 0 {
			fmt.Fprintf(b, " · files %s", strings.Join(t.Files, ", "))
		}
		if len(t.Resources) > 0 {
			fmt.Fprintf(b, " · holds %s", strings.Join(t.Resources, ", "))
		}
		b.WriteString("\n\n")
	}
}

func (m Model) writeConflicts(b *strings.Builder, batch []string) {
	members := make(map[string]bool, len(batch))
	for _, id := range batch {
		members[id] = true
	}

	found := false
	for _, c := range m.analysis.Conflicts {
		if !members[c.TaskA] && !members[c.TaskB] {
			continue
		}
		found = true
		fmt.Fprintf(b, "%s %s ↔ %s (%s)\n   %s\n\n",
			m.styles.Medium.Render(fmt.Sprintf("[%s]", c.Severity)), c.TaskA, c.TaskB, c.Type, c.Rationale)
	}
	if !found {
		b.WriteString(m.styles.Muted.Render("no conflicts involve this batch"))
	}
}

func (m Model) writeFindings(b *strings.Builder, batch []string) {
	members := make(map[string]bool, len(batch))
	for _, id := range batch {
		members[id] = true
	}

	found := false
	for _, d := range m.analysis.Duplicates {
		if !members[d.Original] && !members[d.Duplicate] {
			continue
		}
		found = true
		fmt.Fprintf(b, "%s duplicates %s (similarity %.2f)\n", d.Duplicate, d.Original, d.Similarity)
	}
	for _, e := range m.analysis.ImplicitEdges {
		if !members[e.From] && !members[e.To] {
			continue
		}
		found = true
		fmt.Fprintf(b, "inferred %s → %s (%s %q, confidence %.2f)\n", e.From, e.To, e.Phrase, e.Reference, e.Confidence)
	}
	if !found {
		b.WriteString(m.styles.Muted.Render("no findings involve this batch"))
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
