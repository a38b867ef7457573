package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/mithrel/inkpad/internal/render"
	"github.com/mithrel/inkpad/pkg/api"
)

type lineKind int

const (
	textLine lineKind = iota
	headingLine
	codeLine
	blankLine
)

type line struct {
	kind  lineKind
	level int
	text  string
}

// classify splits markdown into the handful of line shapes the plain-text
// writers distinguish.
func classify(md string) []line {
	var out []line
	fence := ""
	for _, raw := range strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(raw)
		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
				continue
			}
			out = append(out, line{kind: codeLine, text: strings.ReplaceAll(raw, "\t", "    ")})
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fence = trimmed[:3]
			continue
		}
		if trimmed == "" {
			out = append(out, line{kind: blankLine})
			continue
		}
		if lvl := headingLevel(trimmed); lvl > 0 {
			out = append(out, line{kind: headingLine, level: lvl, text: strings.TrimSpace(trimmed[lvl:])})
			continue
		}
		out = append(out, line{kind: textLine, text: trimmed})
	}
	return out
}

func headingLevel(s string) int {
	n := 0
	for n < len(s) && n < 6 && s[n] == '#' {
		n++
	}
	if n == 0 || n == len(s) || s[n] != ' ' {
		return 0
	}
	return n
}

func htmlDocument(doc api.Document, theme api.Theme) []byte {
	return render.Document(baseName(doc.Name), doc.Content, theme)
}

func slideDeck(doc api.Document) []byte {
	return render.Slides(baseName(doc.Name), doc.Content)
}

var headingSizes = [...]float64{0, 20, 17, 15, 13, 12, 11}

func pdfDocument(doc api.Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(baseName(doc.Name), true)
	pdf.SetCreator("inkpad", true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, l := range classify(doc.Content) {
		switch l.kind {
		case blankLine:
			pdf.Ln(4)
		case headingLine:
			size := headingSizes[l.level]
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, size*0.5, tr(l.text), "", "L", false)
			pdf.Ln(2)
		case codeLine:
			pdf.SetFont("Courier", "", 10)
			pdf.MultiCell(0, 5, tr(l.text), "", "L", false)
		default:
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(0, 5.5, tr(l.text), "", "L", false)
		}
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

func docxDocument(doc api.Document) ([]byte, error) {
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, l := range classify(doc.Content) {
		var props string
		switch l.kind {
		case headingLine:
			props = fmt.Sprintf(`<w:rPr><w:b/><w:sz w:val="%d"/></w:rPr>`, int(headingSizes[l.level]*2))
		case codeLine:
			props = `<w:rPr><w:rFonts w:ascii="Courier New" w:hAnsi="Courier New"/><w:sz w:val="20"/></w:rPr>`
		}
		body.WriteString("<w:p>")
		if l.kind != blankLine {
			body.WriteString("<w:r>" + props + `<w:t xml:space="preserve">`)
			if err := xml.EscapeText(&body, []byte(l.text)); err != nil {
				return nil, err
			}
			body.WriteString("</w:t></w:r>")
		}
		body.WriteString("</w:p>")
	}
	body.WriteString(`<w:sectPr/></w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRels)},
		{"word/document.xml", body.Bytes()},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rtfDocument(doc api.Document) []byte {
	var b strings.Builder
	b.WriteString(`{\rtf1\ansi\deff0{\fonttbl{\f0\fswiss Helvetica;}{\f1\fmodern Courier New;}}` + "\n")
	for _, l := range classify(doc.Content) {
		switch l.kind {
		case blankLine:
		case headingLine:
			fmt.Fprintf(&b, `{\f0\b\fs%d `, int(headingSizes[l.level]*2))
			rtfEscape(&b, l.text)
			b.WriteString("}")
		case codeLine:
			b.WriteString(`{\f1\fs20 `)
			rtfEscape(&b, l.text)
			b.WriteString("}")
		default:
			b.WriteString(`{\f0\fs22 `)
			rtfEscape(&b, l.text)
			b.WriteString("}")
		}
		b.WriteString(`\par` + "\n")
	}
	b.WriteString("}")
	return []byte(b.String())
}

// rtfEscape writes s with RTF control characters escaped and non-ASCII runes
// as signed 16-bit \u escapes (surrogate pairs above the BMP).
func rtfEscape(b *strings.Builder, s string) {
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\t':
			b.WriteString(`\tab `)
		case r < 0x80:
			b.WriteRune(r)
		case r <= 0xFFFF:
			writeRTFUnit(b, uint16(r))
		default:
			r -= 0x10000
			writeRTFUnit(b, uint16(0xD800+(r>>10)))
			writeRTFUnit(b, uint16(0xDC00+(r&0x3FF)))
		}
	}
}

func writeRTFUnit(b *strings.Builder, u uint16) {
	b.WriteString(`\u`)
	b.WriteString(strconv.Itoa(int(int16(u))))
	b.WriteByte('?')
}

func zipCollection(col api.Collection) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := map[string]int{}
	now := time.Now()
	for _, d := range col.Documents {
		base := baseName(d.Name)
		name := base + ".md"
		for seen[strings.ToLower(name)] > 0 {
			seen[strings.ToLower(base+".md")]++
			name = fmt.Sprintf("%s (%d).md", base, seen[strings.ToLower(base+".md")])
		}
		seen[strings.ToLower(name)]++
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: now})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(d.Content)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
