package render

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/mithrel/inkpad/pkg/api"
)

var (
	termRendererMu sync.Mutex
	// Cached by style + wrap width; building a renderer is not cheap.
	termRenderers = map[string]*glamour.TermRenderer{}
)

// TerminalStyle maps the theme to a glamour standard style.
func TerminalStyle(theme api.Theme) string {
	if theme == api.ThemeDark {
		return "dracula"
	}
	return "light"
}

// Terminal renders md for a terminal of the given width. On renderer errors
// the source is returned unchanged.
func Terminal(md string, width int, theme api.Theme) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	style := TerminalStyle(theme)
	key := style + ":" + strconv.Itoa(width)

	termRendererMu.Lock()
	defer termRendererMu.Unlock()
	r := termRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			// WithAutoStyle can block on terminal queries; styles are explicit.
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		termRenderers[key] = rr
		r = rr
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
