package render

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	successColor = lipgloss.Color("#10B981") // Green
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
)

// labelWidth is the column width of field labels in styled tables.
const labelWidth = 16

// styles are bound to the renderer's output so color detection follows
// the destination writer rather than stdout.
type styles struct {
	label   lipgloss.Style
	value   lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		label:   r.NewStyle().Foreground(mutedColor).Width(labelWidth),
		value:   r.NewStyle(),
		success: r.NewStyle().Bold(true).Foreground(successColor),
		err:     r.NewStyle().Bold(true).Foreground(errorColor),
	}
}

// state returns the style for an outcome value.
func (s styles) state(v string) lipgloss.Style {
	switch v {
	case "succeeded":
		return s.success
	case "failed", "killed", "launch_failed":
		return s.err
	default:
		return s.value
	}
}
