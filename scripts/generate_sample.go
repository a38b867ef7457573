//go:build ignore
// +build ignore

// Prints a sample document collection for `inkpad import`.
package main

import (
	"encoding/json"
	"fmt"
	mrand "math/rand"
	"os"
	"strings"
)

type document struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

type collection struct {
	Version   int        `json:"version"`
	Active    string     `json:"active"`
	Documents []document `json:"documents"`
}

var topics = []string{"Roadmap", "Meeting Notes", "Recipe", "Reading List", "Release Plan", "Retro", "Ideas", "Journal"}

func main() {
	// Deterministic seed for reproducible output
	mr := mrand.New(mrand.NewSource(42))

	const total = 40
	out := collection{Version: 1}
	for i := 0; i < total; i++ {
		topic := topics[mr.Intn(len(topics))]
		out.Documents = append(out.Documents, document{
			ID:      fmt.Sprintf("sample-%03d", i+1),
			Name:    fmt.Sprintf("%s %03d.md", topic, i+1),
			Content: body(mr, topic, i+1),
		})
	}
	out.Active = out.Documents[0].ID

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		panic(err)
	}
}

func body(r *mrand.Rand, topic string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %03d\n\n", topic, n)
	for i, k := 0, 2+r.Intn(4); i < k; i++ {
		fmt.Fprintf(&b, "- item %d with **bold** and `code`\n", i+1)
	}
	if r.Float64() < 0.4 {
		b.WriteString("\n```go\nfmt.Println(\"hello\")\n```\n")
	}
	if r.Float64() < 0.3 {
		b.WriteString("\n| key | value |\n| --- | ----- |\n| a | 1 |\n")
	}
	if r.Float64() < 0.2 {
		b.WriteString("\n---\n\n## Appendix :sparkles:\n")
	}
	return b.String()
}
