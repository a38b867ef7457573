package api

import "strings"

// Document is a named unit of editable markdown text.
// ID is immutable after creation; Name and Content are mutable.
type Document struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Collection is the ordered set of open documents plus the active selection.
type Collection struct {
	Documents []Document `json:"documents"`
	ActiveID  string     `json:"active"`
}

// Index returns the position of id in the collection, or -1.
func (c Collection) Index(id string) int {
	for i, d := range c.Documents {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// Active returns the active document. ok is false when the active id dangles.
func (c Collection) Active() (Document, bool) {
	if i := c.Index(c.ActiveID); i >= 0 {
		return c.Documents[i], true
	}
	return Document{}, false
}

// Clone returns a copy whose document slice does not alias c.
func (c Collection) Clone() Collection {
	out := Collection{ActiveID: c.ActiveID}
	out.Documents = append([]Document(nil), c.Documents...)
	return out
}

// Theme is the process-wide appearance preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme normalizes s; ok is false for anything but light or dark.
func ParseTheme(s string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, true
	case ThemeDark:
		return ThemeDark, true
	default:
		return "", false
	}
}

// Toggle flips light and dark.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
