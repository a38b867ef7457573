package session

import "strings"

// Template is starter content for a new document.
type Template struct {
	Name        string
	Description string
	Content     string
}

var Templates = []Template{
	{
		Name:        "Blog Post",
		Description: "A clean layout for writing blog articles with headings, quotes, and code.",
		Content:     "# Blog Title\n\n_A short summary of the post._\n\n## Introduction\n\n...\n\n> A great quote here.\n\n```js\n// Sample code block\nconsole.log(\"Hello, blog!\");\n```",
	},
	{
		Name:        "Project README",
		Description: "A professional README format for GitHub projects.",
		Content:     "# Project Name\n\n## Description\n\n## Installation\n\n## Usage\n\n## License\n\n## Contributing",
	},
	{
		Name:        "Documentation Section",
		Description: "Perfect for building software or API documentation in Markdown.",
		Content:     "# API Documentation\n\n## Endpoints\n\n### GET /api/items\n\nReturns a list of items.\n\n### POST /api/items\n\nCreates a new item.",
	},
}

// FindTemplate looks a template up by name, ignoring case and separators.
func FindTemplate(name string) (Template, bool) {
	key := templateKey(name)
	for _, t := range Templates {
		if templateKey(t.Name) == key {
			return t, true
		}
	}
	return Template{}, false
}

func templateKey(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '_' {
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
