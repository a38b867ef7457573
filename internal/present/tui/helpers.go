package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/mithrel/inkpad/internal/notify"
	"github.com/mithrel/inkpad/internal/session"
)

var (
	faintStyle     = lipgloss.NewStyle().Faint(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	savedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	noticeStyles   = map[notify.Level]lipgloss.Style{
		notify.Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		notify.Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		notify.Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
)

// tabLine renders one tab per document and keeps the active one in view.
func tabLine(st session.State, width int) string {
	if len(st.Documents) == 0 {
		return ""
	}
	tabs := make([]string, len(st.Documents))
	active := 0
	for i, d := range st.Documents {
		name := ansi.Truncate(d.Name, 24, "…")
		if d.ID == st.Active.ID {
			active = i
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	if width <= 0 {
		return strings.Join(tabs, "")
	}
	// Drop tabs from the left until the active one fits.
	start := 0
	for start < active && lipgloss.Width(strings.Join(tabs[start:active+1], "")) > width {
		start++
	}
	return ansi.Truncate(strings.Join(tabs[start:], ""), width, "…")
}

// spread places left and right on one line of the given width.
func spread(left, right string, width int) string {
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		space = 1
	}
	return left + strings.Repeat(" ", space) + right
}

func yesNo(ok bool, label string) string {
	if ok {
		return label
	}
	return faintStyle.Render(label)
}

func joinColumns(left, right string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
