package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles are rebuilt whenever the theme changes.
type styles struct {
	canvas   lipgloss.Style
	panel    lipgloss.Style
	header   lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	active   lipgloss.Style
	graph    lipgloss.Style
	help     lipgloss.Style
	running  lipgloss.Style
	paused   lipgloss.Style
	edge     lipgloss.Style
	errorMsg lipgloss.Style
	barHigh  lipgloss.Style
	barMid   lipgloss.Style
	barLow   lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().Padding(1, 2).Foreground(t.Text),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(46),
		header:   lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		label:    lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:    lipgloss.NewStyle().Foreground(t.Text),
		active:   lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		graph:    lipgloss.NewStyle().Foreground(t.Primary).Padding(1, 0),
		help:     lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		running:  lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		paused:   lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		edge:     lipgloss.NewStyle().Foreground(t.Warning),
		errorMsg: lipgloss.NewStyle().Foreground(t.Error),
		barHigh:  lipgloss.NewStyle().Foreground(t.Error),
		barMid:   lipgloss.NewStyle().Foreground(t.Warning),
		barLow:   lipgloss.NewStyle().Foreground(t.Success),
	}
}

// centeredBar draws a signed value in [-1, 1] as a bar growing out from the
// middle of a fixed width track.
func (s styles) centeredBar(v float64, width int) string {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	half := width / 2
	n := int(absFloat(v) * float64(half))

	left := strings.Repeat("░", half)
	right := strings.Repeat("░", half)
	if v < 0 {
		left = strings.Repeat("░", half-n) + strings.Repeat("█", n)
	} else {
		right = strings.Repeat("█", n) + strings.Repeat("░", half-n)
	}

	style := s.barLow
	switch mag := absFloat(v); {
	case mag > 0.8:
		style = s.barHigh
	case mag > 0.4:
		style = s.barMid
	}
	return style.Render(left + "│" + right)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
