package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mithrel/inkpad/pkg/api"
)

func testCollection() api.Collection {
	return api.Collection{
		Documents: []api.Document{
			{ID: "a", Name: "Notes.md", Content: "# Title\n\nHello {world} ünï 🚀\n\n```go\nfmt.Println(1)\n```\n"},
			{ID: "b", Name: "Notes.md", Content: "second"},
			{ID: "c", Name: "a/b:c", Content: "third"},
		},
		ActiveID: "a",
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, ok := ParseKind(string(k))
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}
	got, ok := ParseKind(".MD")
	assert.True(t, ok)
	assert.Equal(t, Markdown, got)
	_, ok = ParseKind("odt")
	assert.False(t, ok)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Notes.pdf", Filename(PDF, "Notes.md"))
	assert.Equal(t, "Notes.slides.html", Filename(Slides, "Notes.markdown"))
	assert.Equal(t, "a-b-c.md", Filename(Markdown, "a/b:c"))
	assert.Equal(t, "document.html", Filename(HTML, "  "))
	assert.Equal(t, "all-documents.zip", Filename(Zip, "Notes.md"))
}

func TestExportEveryKind(t *testing.T) {
	e := New(zaptest.NewLogger(t))
	col := testCollection()
	for _, k := range Kinds {
		a, err := e.Export(context.Background(), k, col, api.ThemeDark)
		require.NoError(t, err, k)
		assert.NotEmpty(t, a.Data, k)
		assert.Equal(t, MediaType(k), a.MediaType)
	}
}

func TestExportMarkdownIsRaw(t *testing.T) {
	col := testCollection()
	a, err := New(nil).Export(context.Background(), Markdown, col, api.ThemeLight)
	require.NoError(t, err)
	assert.Equal(t, col.Documents[0].Content, string(a.Data))
	assert.Equal(t, "Notes.md", a.Filename)
}

func TestExportPDFHeader(t *testing.T) {
	a, err := New(nil).Export(context.Background(), PDF, testCollection(), api.ThemeLight)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(a.Data, []byte("%PDF-")))
}

func TestExportDOCXPackage(t *testing.T) {
	a, err := New(nil).Export(context.Background(), DOCX, testCollection(), api.ThemeLight)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(a.Data), int64(len(a.Data)))
	require.NoError(t, err)
	var body string
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			require.NoError(t, err)
			b, _ := io.ReadAll(rc)
			rc.Close()
			body = string(b)
		}
	}
	assert.Contains(t, body, "Hello {world}")
	assert.Contains(t, body, "fmt.Println(1)")
}

func TestExportRTFEscapes(t *testing.T) {
	a, err := New(nil).Export(context.Background(), RTF, testCollection(), api.ThemeLight)
	require.NoError(t, err)
	s := string(a.Data)
	assert.True(t, strings.HasPrefix(s, `{\rtf1`))
	assert.Contains(t, s, `Hello \{world\}`)
	assert.Contains(t, s, `\u252?`)            // ü
	assert.Contains(t, s, `\u-10179?\u-8576?`) // U+1F680 as a surrogate pair
}

func TestExportZipDeduplicatesNames(t *testing.T) {
	a, err := New(nil).Export(context.Background(), Zip, testCollection(), api.ThemeLight)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(a.Data), int64(len(a.Data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Notes.md", "Notes (2).md", "a-b-c.md"}, names)
}

func TestExportNoActiveDocument(t *testing.T) {
	_, err := New(nil).Export(context.Background(), HTML, api.Collection{}, api.ThemeLight)
	assert.ErrorIs(t, err, ErrExport)
}

func TestBeginRejectsSecondExportOfSameKind(t *testing.T) {
	e := New(nil)
	release, err := e.Begin(PDF)
	require.NoError(t, err)
	assert.True(t, e.Busy(PDF))

	_, err = e.Begin(PDF)
	assert.True(t, errors.Is(err, ErrInFlight))

	other, err := e.Begin(HTML)
	require.NoError(t, err)
	other()

	release()
	release()
	assert.False(t, e.Busy(PDF))
	again, err := e.Begin(PDF)
	require.NoError(t, err)
	again()
}

func TestWriteFileDoesNotClobber(t *testing.T) {
	dir := t.TempDir()
	a := Artifact{Filename: "Notes.slides.html", Data: []byte("one")}
	p1, err := WriteFile(dir, a)
	require.NoError(t, err)
	a.Data = []byte("two")
	p2, err := WriteFile(dir, a)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Notes.slides.html"), p1)
	assert.Equal(t, filepath.Join(dir, "Notes (2).slides.html"), p2)
	b, _ := os.ReadFile(p2)
	assert.Equal(t, "two", string(b))

	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 2, "temp files must not linger")
}

func TestWriteFileSkipsNamesTakenBeforeLink(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Plan.md"), []byte("mine"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Plan (2).md"), 0o755))

	p, err := WriteFile(dir, Artifact{Filename: "Plan.md", Data: []byte("export")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Plan (3).md"), p)

	b, _ := os.ReadFile(filepath.Join(dir, "Plan.md"))
	assert.Equal(t, "mine", string(b))
	b, _ = os.ReadFile(p)
	assert.Equal(t, "export", string(b))

	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 3, "temp files must not linger")
}
