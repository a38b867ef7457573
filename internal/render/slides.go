package render

import (
	"bytes"
	"html/template"
	"strings"
)

var slidesTmpl = template.Must(template.New("slides").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
html,body{margin:0;height:100%;font-family:system-ui,sans-serif}
main{height:100vh;overflow-y:scroll;scroll-snap-type:y mandatory}
section{box-sizing:border-box;height:100vh;padding:4rem 8vw;scroll-snap-align:start;display:flex;flex-direction:column;justify-content:center;border-bottom:1px solid #e5e7eb}
section h1{font-size:3rem}
.counter{position:absolute;bottom:1rem;right:2rem;color:#9ca3af;font-size:.9rem}
</style>
</head>
<body>
<main>
{{range $i, $s := .Slides}}<section id="slide-{{$i}}" style="position:relative">
{{$s}}
<span class="counter">{{inc $i}} / {{len $.Slides}}</span>
</section>
{{end}}</main>
</body>
</html>
`))

// SplitSlides splits md on thematic-break lines ("---") outside fenced code.
// Empty slides are dropped; a document without breaks is one slide.
func SplitSlides(md string) []string {
	var (
		out   []string
		cur   []string
		fence string
	)
	flush := func() {
		s := strings.TrimSpace(strings.Join(cur, "\n"))
		if s != "" {
			out = append(out, s)
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n") {
		trim := strings.TrimSpace(line)
		switch {
		case fence == "" && (strings.HasPrefix(trim, "```") || strings.HasPrefix(trim, "~~~")):
			fence = trim[:3]
		case fence != "" && strings.HasPrefix(trim, fence):
			fence = ""
		case fence == "" && trim == "---":
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}

// Slides renders md as a scroll-snapping slide deck.
func Slides(title, md string) []byte {
	parts := SplitSlides(md)
	rendered := make([]template.HTML, 0, len(parts))
	for _, p := range parts {
		rendered = append(rendered, template.HTML(HTML(p)))
	}
	var b bytes.Buffer
	_ = slidesTmpl.Execute(&b, struct {
		Title  string
		Slides []template.HTML
	}{Title: title, Slides: rendered})
	return b.Bytes()
}
