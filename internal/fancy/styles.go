package fancy

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/skosovsky/calcdoc"
)

// Common styles that can be used across the application
var (
	RootStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)

	BranchStyle = lipgloss.NewStyle().
			Foreground(ColorDarkGray)

	ToolStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	ConvertedStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	WarnedStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	SkippedStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)
)

// ToolText styles a tool id
func ToolText(id string) string {
	return ToolStyle.Render(id)
}

// StatusText styles a block status by its severity
func StatusText(status calcdoc.BlockStatus) string {
	switch status {
	case calcdoc.BlockConverted:
		return ConvertedStyle.Render(string(status))
	case calcdoc.BlockWarned:
		return WarnedStyle.Render(string(status))
	case calcdoc.BlockSkipped:
		return SkippedStyle.Render(string(status))
	default:
		return ErrorStyle.Render(string(status))
	}
}

// ErrorText styles an error message
func ErrorText(text string) string {
	return ErrorStyle.Render(text)
}
