package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles are the lipgloss styles used in text mode.
type Styles struct {
	Header1  lipgloss.Style
	Header2  lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Path     lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Key      lipgloss.Style
	Platform lipgloss.Style
}

// newStyles builds styles bound to a lipgloss renderer, so the color
// profile follows the output stream rather than the process stdout.
func newStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1),
		Header2:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:     lr.NewStyle().Bold(true),
		Muted:    lr.NewStyle().Foreground(lipgloss.Color("8")),
		Path:     lr.NewStyle().Foreground(lipgloss.Color("6")),
		Success:  lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:  lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:    lr.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Info:     lr.NewStyle().Foreground(lipgloss.Color("12")),
		Key:      lr.NewStyle().Foreground(lipgloss.Color("8")).Width(18),
		Platform: lr.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
	}
}

// colorProfile picks the profile for a stream: plain ASCII unless it is a
// terminal and NO_COLOR is unset.
func colorProfile(isTTY bool) termenv.Profile {
	if !isTTY || termenv.EnvNoColor() {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}
