package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// renderOverlay composes a centered modal on top of the given base view string.
func (m model) renderOverlay(base, fg string) string {
	termW, termH := m.width, m.height
	if termW <= 0 {
		termW = 80
	}
	if termH <= 0 {
		termH = 24
	}
	fgW, fgH := lipgloss.Size(fg)
	x := max(0, (termW-fgW)/2)
	y := max(0, (termH-fgH)/2)

	// Whole-view dim of the background
	baseLines := strings.Split(lipgloss.NewStyle().Faint(true).Render(base), "\n")
	for len(baseLines) < termH {
		baseLines = append(baseLines, "")
	}
	for i, line := range strings.Split(fg, "\n") {
		row := y + i
		if row >= len(baseLines) {
			break
		}
		bg := baseLines[row]
		left := ansi.Truncate(bg, x, "")
		if pad := x - ansi.StringWidth(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		right := ansi.TruncateLeft(bg, x+ansi.StringWidth(line), "")
		baseLines[row] = left + line + right
	}
	return strings.Join(baseLines[:termH], "\n")
}
