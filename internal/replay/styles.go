package replay

import "github.com/charmbracelet/lipgloss"

// Theme colors, matching the teacher's ANSI-256 palette convention.
const (
	ColorAccent    = "86"  // cyan/green - titles, current line
	ColorHighlight = "205" // magenta - changed values
	ColorDanger    = "196" // red - errors
	ColorMuted     = "241" // gray - hints, dimmed text
	ColorText      = "252" // light gray - normal text
	ColorWarning   = "208" // orange - watched markers
)

// Styles holds the lipgloss styles shared by every rendering function in
// this package.
type Styles struct {
	Title       lipgloss.Style
	Header      lipgloss.Style
	Muted       lipgloss.Style
	Error       lipgloss.Style
	CurrentLine lipgloss.Style
	Gutter      lipgloss.Style
	Added       lipgloss.Style
	Removed     lipgloss.Style
	Changed     lipgloss.Style
	Watched     lipgloss.Style
	PaneBorder  lipgloss.Style
	Overlay     lipgloss.Style
}

// DefaultStyles returns the styles used by NewModel.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorText)),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted)),
		Error: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorDanger)),
		CurrentLine: lipgloss.NewStyle().
			Background(lipgloss.Color(ColorAccent)).
			Foreground(lipgloss.Color("0")),
		Gutter:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDanger)),
		Added:   lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
		Removed: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDanger)),
		Changed: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHighlight)),
		Watched: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)),
		PaneBorder: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(ColorMuted)),
		Overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorAccent)).
			Padding(1, 2),
	}
}
