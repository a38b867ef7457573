// Package render turns document markdown into sanitized preview HTML,
// standalone HTML documents, slide decks and terminal output.
package render

import (
	"bytes"
	"html"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// CodeStyle is the chroma style for fenced code blocks.
const CodeStyle = "onedark"

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		// Raw HTML stays disabled; the sanitizer is a second line, not the first.
		gmhtml.WithXHTML(),
		renderer.WithNodeRenderers(util.Prioritized(&codeBlockRenderer{style: CodeStyle}, 200)),
	),
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()
		// Highlighted code carries inline colours.
		policy.AllowAttrs("style").OnElements("span", "pre", "code")
		policy.AllowStyles("color", "background-color", "font-weight", "font-style",
			"text-decoration", "display", "white-space").OnElements("span", "pre", "code")
		// GFM task lists.
		policy.AllowAttrs("type", "checked", "disabled").OnElements("input")
		policy.AllowElements("input")
	})
	return policy
}

// HTML renders md to sanitized HTML suitable for a live preview.
func HTML(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(md), &b); err != nil {
		return "<pre>" + html.EscapeString(md) + "</pre>"
	}
	return getPolicy().Sanitize(b.String())
}

type codeBlockRenderer struct{ style string }

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}
	lang := strings.TrimSpace(string(n.Language(source)))

	if lang != "" {
		if lexer := lexers.Get(lang); lexer != nil {
			it, err := chroma.Coalesce(lexer).Tokenise(nil, code.String())
			if err == nil {
				f := chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(4))
				if err := f.Format(w, styles.Get(r.style), it); err == nil {
					return ast.WalkSkipChildren, nil
				}
			}
		}
	}
	_, _ = w.WriteString("<pre><code")
	if lang != "" {
		_, _ = w.WriteString(` class="language-` + html.EscapeString(lang) + `"`)
	}
	_, _ = w.WriteString(">" + html.EscapeString(code.String()) + "</code></pre>\n")
	return ast.WalkSkipChildren, nil
}
