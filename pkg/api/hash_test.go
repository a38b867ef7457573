package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument_Hash(t *testing.T) {
	base := Document{ID: "doc-1", Name: "notes.md", Content: "# Hello"}

	t.Run("identical documents produce identical hashes", func(t *testing.T) {
		a, b := base, base
		assert.Equal(t, a.Hash(), b.Hash())
	})

	t.Run("content change changes hash", func(t *testing.T) {
		changed := base
		changed.Content = "# Hello!"
		assert.NotEqual(t, base.Hash(), changed.Hash())
	})

	t.Run("field boundaries are delimited", func(t *testing.T) {
		a := Document{ID: "x", Name: "ab", Content: "c"}
		b := Document{ID: "x", Name: "a", Content: "bc"}
		assert.NotEqual(t, a.Hash(), b.Hash())
	})

	t.Run("hash is hex blake3-256", func(t *testing.T) {
		assert.Len(t, base.Hash(), 64)
	})
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, ContentHash("héllo"), ContentHash("héllo"))
	assert.NotEqual(t, ContentHash("a"), ContentHash("b"))
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q after %d ids", id, i)
		}
		seen[id] = struct{}{}
	}
}

func TestCollectionActive(t *testing.T) {
	c := Collection{
		Documents: []Document{{ID: "a"}, {ID: "b"}},
		ActiveID:  "b",
	}
	d, ok := c.Active()
	if !ok || d.ID != "b" {
		t.Fatalf("Active()=%v,%v", d, ok)
	}
	c.ActiveID = "zz"
	if _, ok := c.Active(); ok {
		t.Fatalf("expected dangling active id to report !ok")
	}
	clone := c.Clone()
	clone.Documents[0].Name = "changed"
	if c.Documents[0].Name != "" {
		t.Fatalf("Clone aliases the original slice")
	}
}

func TestParseTheme(t *testing.T) {
	if th, ok := ParseTheme(" Dark "); !ok || th != ThemeDark {
		t.Fatalf("ParseTheme(Dark)=%v,%v", th, ok)
	}
	if _, ok := ParseTheme("sepia"); ok {
		t.Fatalf("sepia should not parse")
	}
	if ThemeLight.Toggle() != ThemeDark || ThemeDark.Toggle() != ThemeLight {
		t.Fatalf("Toggle broken")
	}
}
