package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/inkpad/internal/session"
	"github.com/mithrel/inkpad/pkg/api"
)

type promptKind int

const (
	promptRename promptKind = iota
	promptSwitch
	promptTemplate
)

func (k promptKind) title() string {
	switch k {
	case promptRename:
		return "Rename document"
	case promptSwitch:
		return "Go to document"
	default:
		return "New from template"
	}
}

// promptModal is a foreground modal with one input. Switch and template
// prompts list the candidates matching the input.
type promptModal struct {
	kind    promptKind
	input   textinput.Model
	search  func(string) []api.Document
	matches []string
	ids     []string
	sel     int
	width   int
	height  int
	padX    int
	padY    int
	box     lipgloss.Style
}

func newPromptModal(kind promptKind, value string, search func(string) []api.Document, termW, termH int) *promptModal {
	m := &promptModal{kind: kind, search: search, padX: 2, padY: 1}
	m.input = textinput.New()
	m.input.Prompt = "> "
	switch kind {
	case promptRename:
		m.input.Placeholder = "Notes.md"
	case promptSwitch:
		m.input.Placeholder = "type to filter"
	case promptTemplate:
		m.input.Placeholder = "blog post"
	}
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	m.resizeForTerm(termW, termH)
	m.refresh()
	return m
}

func (m *promptModal) resizeForTerm(termW, termH int) {
	if termW <= 0 || termH <= 0 {
		termW, termH = 80, 24
	}
	w := int(float64(termW) * 0.6)
	if termW < 80 {
		w = termW - 4
	}
	w = min(max(w, 36), 80)
	h := 7
	if m.kind != promptRename {
		h = min(18, max(10, termH/2))
	}
	m.width, m.height = w, h
	m.box = lipgloss.NewStyle().
		Width(w-2).
		Height(h-2).
		Padding(m.padY, m.padX).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63"))
	m.input.Width = max(12, w-2-m.padX*2-lipgloss.Width(m.input.Prompt)-1)
}

func (m *promptModal) refresh() {
	m.matches, m.ids = m.matches[:0], m.ids[:0]
	switch m.kind {
	case promptSwitch:
		if m.search == nil {
			break
		}
		for _, d := range m.search(m.input.Value()) {
			m.matches = append(m.matches, d.Name)
			m.ids = append(m.ids, d.ID)
		}
	case promptTemplate:
		q := strings.ToLower(strings.TrimSpace(m.input.Value()))
		for _, t := range session.Templates {
			if q == "" || strings.Contains(strings.ToLower(t.Name), q) {
				m.matches = append(m.matches, t.Name)
				m.ids = append(m.ids, t.Name)
			}
		}
	}
	if m.sel >= len(m.matches) {
		m.sel = max(0, len(m.matches)-1)
	}
}

// value returns the chosen document id, template name or new name.
func (m *promptModal) value() string {
	if m.kind == promptRename {
		return strings.TrimSpace(m.input.Value())
	}
	if m.sel < len(m.ids) {
		return m.ids[m.sel]
	}
	return ""
}

func (m *promptModal) update(msg tea.Msg) (*promptModal, tea.Cmd) {
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.resizeForTerm(x.Width, x.Height)
		return m, nil
	case tea.KeyMsg:
		switch x.String() {
		case "down", "tab", "ctrl+j":
			if len(m.matches) > 0 {
				m.sel = (m.sel + 1) % len(m.matches)
			}
			return m, nil
		case "up", "shift+tab", "ctrl+k":
			if len(m.matches) > 0 {
				m.sel = (m.sel + len(m.matches) - 1) % len(m.matches)
			}
			return m, nil
		}
	}
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.sel = 0
		m.refresh()
	}
	return m, cmd
}

func (m *promptModal) View() string {
	header := lipgloss.NewStyle().Bold(true).Render(m.kind.title())
	lines := []string{header, "", m.input.View()}
	if m.kind != promptRename {
		lines = append(lines, "")
		room := max(1, m.height-2-m.padY*2-5)
		start := 0
		if m.sel >= room {
			start = m.sel - room + 1
		}
		for i := start; i < len(m.matches) && i < start+room; i++ {
			line := "  " + m.matches[i]
			if i == m.sel {
				line = selectedStyle.Render("> " + m.matches[i])
			}
			lines = append(lines, line)
		}
		if len(m.matches) == 0 {
			lines = append(lines, faintStyle.Render("  no matches"))
		}
	}
	help := faintStyle.Render(fmt.Sprintf("enter=%s • esc=cancel", m.action()))
	lines = append(lines, "", help)
	return m.box.Render(strings.Join(lines, "\n"))
}

func (m *promptModal) action() string {
	switch m.kind {
	case promptRename:
		return "rename"
	case promptSwitch:
		return "open"
	default:
		return "create"
	}
}
