package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorAccent  lipgloss.Color = "#a6e3a1"
	colorFocus   lipgloss.Color = "#b4befe"
	colorError   lipgloss.Color = "#f38ba8"
	colorWarning lipgloss.Color = "#f9e2af"
	colorMuted   lipgloss.Color = "#7f849c"
	colorText    lipgloss.Color = "#cdd6f4"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	stepStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	activeStep    = lipgloss.NewStyle().Bold(true).Foreground(colorFocus)
	labelStyle    = lipgloss.NewStyle().Width(18).Foreground(colorText)
	focusedLabel  = labelStyle.Foreground(colorFocus).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	warningStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	selectedStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(0, 1)
)

func swatch(hex string) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("    ")
}
