// Package export turns documents into downloadable byte streams.
package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mithrel/inkpad/pkg/api"
)

var (
	ErrExport   = errors.New("export failed")
	ErrInFlight = errors.New("export already in progress")
)

type Kind string

const (
	Markdown Kind = "markdown"
	HTML     Kind = "html"
	PDF      Kind = "pdf"
	DOCX     Kind = "docx"
	RTF      Kind = "rtf"
	Slides   Kind = "slides"
	Zip      Kind = "zip"
)

// Kinds lists every supported kind in menu order.
var Kinds = []Kind{Markdown, HTML, PDF, DOCX, RTF, Slides, Zip}

// ParseKind accepts kind names and common extensions ("md", "htm").
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "markdown", "md":
		return Markdown, true
	case "html", "htm":
		return HTML, true
	case "pdf":
		return PDF, true
	case "docx", "word":
		return DOCX, true
	case "rtf":
		return RTF, true
	case "slides", "deck":
		return Slides, true
	case "zip", "all":
		return Zip, true
	}
	return "", false
}

// Artifact is a finished export ready to be written out.
type Artifact struct {
	Filename  string
	MediaType string
	Data      []byte
}

// Exporter renders artifacts. Concurrent identical requests share one render.
type Exporter struct {
	log   *zap.Logger
	group singleflight.Group

	mu   sync.Mutex
	busy map[Kind]bool
}

func New(log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{log: log, busy: map[Kind]bool{}}
}

// Begin marks kind as in flight until release is called. A second Begin for
// the same kind fails with ErrInFlight.
func (e *Exporter) Begin(kind Kind) (release func(), err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy[kind] {
		return nil, fmt.Errorf("%w: %s", ErrInFlight, kind)
	}
	e.busy[kind] = true
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.busy, kind)
			e.mu.Unlock()
		})
	}, nil
}

// Busy reports whether an export of kind is in flight.
func (e *Exporter) Busy(kind Kind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy[kind]
}

// Export renders kind for the active document of col (every document for Zip).
// Adapter failures, including panics, wrap ErrExport.
func (e *Exporter) Export(ctx context.Context, kind Kind, col api.Collection, theme api.Theme) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	doc, ok := col.Active()
	if !ok && kind != Zip {
		return Artifact{}, fmt.Errorf("%w: no active document", ErrExport)
	}
	key := string(kind) + ":" + string(theme) + ":" + doc.Hash()
	if kind == Zip {
		key = string(kind) + ":" + collectionKey(col)
	}
	v, err, shared := e.group.Do(key, func() (any, error) {
		return e.render(kind, doc, col, theme)
	})
	if err != nil {
		e.log.Warn("export failed", zap.String("kind", string(kind)), zap.Error(err))
		return Artifact{}, err
	}
	a := v.(Artifact)
	e.log.Info("exported", zap.String("kind", string(kind)), zap.String("file", a.Filename),
		zap.Int("bytes", len(a.Data)), zap.Bool("shared", shared))
	return a, nil
}

func (e *Exporter) render(kind Kind, doc api.Document, col api.Collection, theme api.Theme) (a Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrExport, kind, r)
		}
	}()
	var data []byte
	switch kind {
	case Markdown:
		data = []byte(doc.Content)
	case HTML:
		data = htmlDocument(doc, theme)
	case PDF:
		data, err = pdfDocument(doc)
	case DOCX:
		data, err = docxDocument(doc)
	case RTF:
		data = rtfDocument(doc)
	case Slides:
		data = slideDeck(doc)
	case Zip:
		data, err = zipCollection(col)
	default:
		return Artifact{}, fmt.Errorf("%w: unknown kind %q", ErrExport, kind)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %s: %v", ErrExport, kind, err)
	}
	return Artifact{Filename: Filename(kind, doc.Name), MediaType: MediaType(kind), Data: data}, nil
}

func collectionKey(col api.Collection) string {
	var b strings.Builder
	for _, d := range col.Documents {
		b.WriteString(d.Hash())
	}
	return api.ContentHash(b.String())
}

// MediaType returns the content type for kind.
func MediaType(kind Kind) string {
	switch kind {
	case Markdown:
		return "text/markdown; charset=utf-8"
	case HTML, Slides:
		return "text/html; charset=utf-8"
	case PDF:
		return "application/pdf"
	case DOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case RTF:
		return "application/rtf"
	case Zip:
		return "application/zip"
	}
	return "application/octet-stream"
}

// Extension returns the file extension for kind, including the dot.
func Extension(kind Kind) string {
	switch kind {
	case Markdown:
		return ".md"
	case HTML:
		return ".html"
	case Slides:
		return ".slides.html"
	case Zip:
		return ".zip"
	default:
		return "." + string(kind)
	}
}

// Filename derives the download name from a document name.
func Filename(kind Kind, docName string) string {
	if kind == Zip {
		return "all-documents.zip"
	}
	return baseName(docName) + Extension(kind)
}

// baseName strips markdown extensions and characters unsafe in file names.
func baseName(name string) string {
	name = strings.TrimSpace(name)
	for _, ext := range []string{".md", ".markdown", ".txt"} {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			name = name[:len(name)-len(ext)]
			break
		}
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	name = strings.Trim(strings.TrimSpace(name), ".")
	if name == "" {
		return "document"
	}
	return filepath.Base(name)
}
