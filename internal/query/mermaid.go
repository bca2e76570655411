package query

import (
	"fmt"
	"sort"
	"strings"

	"archgraph/internal/architecture"
)

// Mermaid renders nodes and edges as a Mermaid flowchart. Node aliases
// follow ID order and edges are sorted, so equal input renders equal text.
func Mermaid(nodes []*Node, edges []*architecture.Connection) string {
	sorted := append([]*Node(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	alias := make(map[string]string, len(sorted))
	var b strings.Builder
	b.WriteString("graph LR\n")
	for i, n := range sorted {
		a := fmt.Sprintf("n%d", i)
		alias[n.ID] = a
		open, end := shape(n)
		fmt.Fprintf(&b, "  %s%s\"%s\"%s\n", a, open, sanitizeLabel(n.Name), end)
	}

	type line struct{ from, to, label, id string }
	var lines []line
	for _, c := range edges {
		from, ok1 := alias[c.From.ComponentID]
		to, ok2 := alias[c.To.ComponentID]
		if !ok1 || !ok2 {
			continue
		}
		lines = append(lines, line{from: from, to: to, label: sanitizeLabel(string(c.Type)), id: c.ID})
	}
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.from != b.from {
			return aliasLess(a.from, b.from)
		}
		if a.to != b.to {
			return aliasLess(a.to, b.to)
		}
		if a.label != b.label {
			return a.label < b.label
		}
		return a.id < b.id
	})
	for _, l := range lines {
		fmt.Fprintf(&b, "  %s -->|%s| %s\n", l.from, l.label, l.to)
	}
	return b.String()
}

func shape(n *Node) (string, string) {
	switch n.Type {
	case architecture.TypeDatabase:
		return "[(", ")]"
	case architecture.TypeQueue:
		return "[[", "]]"
	case architecture.TypeLLM:
		return "{{", "}}"
	case architecture.TypePrompt:
		return "[/", "/]"
	case architecture.TypeFile:
		return "([", "])"
	case architecture.TypeService:
		return "((", "))"
	}
	return "[", "]"
}

// aliasLess orders n2 before n10
func aliasLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

var labelReplacer = strings.NewReplacer(
	`"`, "'",
	"\n", " ",
	"\r", " ",
	"|", "/",
	"<", "(",
	">", ")",
	"`", "'",
	"#", "",
	";", ",",
)

func sanitizeLabel(s string) string {
	s = strings.TrimSpace(labelReplacer.Replace(s))
	if s == "" {
		return "unnamed"
	}
	return s
}
