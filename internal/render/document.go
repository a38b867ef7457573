package render

import (
	"bytes"
	"html/template"

	"github.com/mithrel/inkpad/pkg/api"
)

var documentTmpl = template.Must(template.New("doc").Parse(`<!DOCTYPE html>
<html lang="en" class="{{.Theme}}">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{max-width:48rem;margin:2rem auto;padding:0 1rem;font-family:system-ui,sans-serif;line-height:1.6}
html.dark body{background:#111827;color:#f3f4f6}
html.light body{background:#ffffff;color:#111827}
pre{padding:1rem;border-radius:.5rem;overflow-x:auto}
blockquote{border-left:4px solid #9ca3af;margin-left:0;padding-left:1rem;color:#6b7280}
table{border-collapse:collapse}td,th{border:1px solid #d1d5db;padding:.25rem .5rem}
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// Document wraps the rendered markdown in a standalone HTML page.
func Document(title, md string, theme api.Theme) []byte {
	if theme == "" {
		theme = api.ThemeLight
	}
	var b bytes.Buffer
	_ = documentTmpl.Execute(&b, struct {
		Title string
		Theme api.Theme
		Body  template.HTML
	}{Title: title, Theme: theme, Body: template.HTML(HTML(md))})
	return b.Bytes()
}
