package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors - all meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray
)

// Set holds the styles used by the report renderer and the TUI. A Set built
// without color renders plain text, for pipes and --no-color terminals.
type Set struct {
	Title      lipgloss.Style
	Muted      lipgloss.Style
	BatchLabel lipgloss.Style
	Parallel   lipgloss.Style
	Sequential lipgloss.Style
	High       lipgloss.Style
	Medium     lipgloss.Style
	Low        lipgloss.Style
	Selected   lipgloss.Style
	Border     lipgloss.Style
	HelpBar    lipgloss.Style
}

// ForColor returns the styled set when color is enabled, otherwise a set of
// zero styles that pass text through unchanged.
func ForColor(color bool) Set {
	if !color {
		return Set{}
	}
	return Set{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor),
		Muted:      lipgloss.NewStyle().Foreground(MutedColor),
		BatchLabel: lipgloss.NewStyle().Bold(true).Foreground(SecondaryColor),
		Parallel:   lipgloss.NewStyle().Bold(true).Foreground(SecondaryColor),
		Sequential: lipgloss.NewStyle().Bold(true).Foreground(WarningColor),
		High:       lipgloss.NewStyle().Bold(true).Foreground(ErrorColor),
		Medium:     lipgloss.NewStyle().Foreground(WarningColor),
		Low:        lipgloss.NewStyle().Foreground(MutedColor),
		Selected:   lipgloss.NewStyle().Bold(true).Foreground(TextColor).Background(PrimaryColor).Padding(0, 1),
		Border:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(BorderColor).Padding(0, 1),
		HelpBar:    lipgloss.NewStyle().Foreground(MutedColor).MarginTop(1),
	}
}
