package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/inkpad/internal/render"
	"github.com/mithrel/inkpad/pkg/api"
)

// previewPane shows the active document rendered with Glamour inside a
// scrollable viewport.
type previewPane struct {
	vp      viewport.Model
	width   int
	height  int
	padX    int
	box     lipgloss.Style
	source  string
	theme   api.Theme
	content string
}

func newPreviewPane(theme api.Theme) *previewPane {
	p := &previewPane{padX: 1, theme: theme}
	p.resize(40, 10)
	return p
}

func (p *previewPane) resize(w, h int) {
	if w < 12 {
		w = 12
	}
	if h < 4 {
		h = 4
	}
	p.width, p.height = w, h
	p.box = lipgloss.NewStyle().
		Width(w-2).
		Height(h-2).
		Padding(0, p.padX).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63"))

	innerW := max(10, w-2-p.padX*2)
	innerH := max(2, h-2)
	if p.vp.Width == 0 {
		p.vp = viewport.New(innerW, innerH)
	} else {
		p.vp.Width = innerW
		p.vp.Height = innerH
	}
	p.rerender()
}

// setSource re-renders only when the markdown or theme changed.
func (p *previewPane) setSource(md string, theme api.Theme) {
	if md == p.source && theme == p.theme && p.content != "" {
		return
	}
	p.source, p.theme = md, theme
	p.rerender()
}

func (p *previewPane) rerender() {
	p.content = render.Terminal(p.source, p.vp.Width, p.theme)
	if p.content == "" {
		p.content = lipgloss.NewStyle().Faint(true).Render("Nothing to preview")
	}
	p.vp.SetContent(p.content)
}

func (p *previewPane) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.vp, cmd = p.vp.Update(msg)
	return cmd
}

func (p *previewPane) View() string { return p.box.Render(p.vp.View()) }
