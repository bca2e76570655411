// Package query answers read-only questions over a loaded architecture
// graph: path traces, focused subgraphs and coverage reports.
package query

import (
	"path"
	"sort"
	"strings"

	"archgraph/internal/architecture"
	"archgraph/internal/storage"
)

// NodeKind tags what a Node stands for
type NodeKind string

const (
	// NodeComponent is a persisted component
	NodeComponent NodeKind = "component"
	// NodeFile is a source file referenced by a connection endpoint. File
	// nodes are synthesized during a query and never stored.
	NodeFile NodeKind = "file"
)

// Node is a vertex of the query graph
type Node struct {
	ID         string                     `json:"id"`
	Kind       NodeKind                   `json:"kind"`
	Name       string                     `json:"name"`
	Type       architecture.ComponentType `json:"type"`
	Layer      architecture.Layer         `json:"layer"`
	Confidence float64                    `json:"confidence"`
	Critical   bool                       `json:"critical,omitempty"`
	Status     architecture.Status        `json:"status,omitempty"`

	// Component is nil for file nodes
	Component *architecture.Component `json:"-"`
}

// IsFile reports whether the node is a synthesized file node
func (n *Node) IsFile() bool {
	return n.Kind == NodeFile
}

func componentNode(c *architecture.Component) *Node {
	return &Node{
		ID:         c.ID,
		Kind:       NodeComponent,
		Name:       c.Name,
		Type:       c.Type,
		Layer:      c.Role.Layer,
		Confidence: c.Source.Confidence,
		Critical:   c.Role.Critical,
		Status:     c.Status,
		Component:  c,
	}
}

func fileNode(id string) *Node {
	p := architecture.FilePath(id)
	return &Node{
		ID:         id,
		Kind:       NodeFile,
		Name:       p,
		Type:       architecture.TypeFile,
		Layer:      architecture.InferLayerFromPath(p),
		Confidence: 1,
	}
}

// Graph is an in-memory adjacency view over one set of loaded records.
// It is not safe for concurrent use because file nodes are materialized
// lazily.
type Graph struct {
	nodes       map[string]*Node
	components  []*architecture.Component
	connections []*architecture.Connection
	out         map[string][]*architecture.Connection
	in          map[string][]*architecture.Connection
}

// NewGraph indexes recs. Connections are ordered by ID so traversal is
// deterministic.
func NewGraph(recs *storage.Records) *Graph {
	g := &Graph{
		nodes: make(map[string]*Node, len(recs.Components)),
		out:   map[string][]*architecture.Connection{},
		in:    map[string][]*architecture.Connection{},
	}
	g.components = append(g.components, recs.Components...)
	sort.Slice(g.components, func(i, j int) bool { return g.components[i].ID < g.components[j].ID })
	for _, c := range g.components {
		g.nodes[c.ID] = componentNode(c)
	}

	g.connections = append(g.connections, recs.Connections...)
	sort.Slice(g.connections, func(i, j int) bool { return g.connections[i].ID < g.connections[j].ID })
	for _, c := range g.connections {
		g.out[c.From.ComponentID] = append(g.out[c.From.ComponentID], c)
		g.in[c.To.ComponentID] = append(g.in[c.To.ComponentID], c)
	}
	return g
}

// Node returns the node for id. FILE: references seen on any connection
// are materialized on first use; other unknown IDs return false.
func (g *Graph) Node(id string) (*Node, bool) {
	if n, ok := g.nodes[id]; ok {
		return n, true
	}
	if !architecture.IsFileRef(id) {
		return nil, false
	}
	if len(g.out[id]) == 0 && len(g.in[id]) == 0 {
		return nil, false
	}
	n := fileNode(id)
	g.nodes[id] = n
	return n, true
}

// Components returns the persisted components, sorted by ID
func (g *Graph) Components() []*architecture.Component {
	return g.components
}

// Connections returns all connections, sorted by ID
func (g *Graph) Connections() []*architecture.Connection {
	return g.connections
}

// Outgoing returns connections leaving id
func (g *Graph) Outgoing(id string) []*architecture.Connection {
	return g.out[id]
}

// Incoming returns connections arriving at id
func (g *Graph) Incoming(id string) []*architecture.Connection {
	return g.in[id]
}

// FileRefs returns every FILE: endpoint referenced by a connection, sorted
func (g *Graph) FileRefs() []string {
	seen := map[string]bool{}
	for _, c := range g.connections {
		for _, id := range []string{c.From.ComponentID, c.To.ComponentID} {
			if architecture.IsFileRef(id) {
				seen[id] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Resolve maps a user-supplied name to node IDs. An exact ID or a
// case-insensitive exact name wins; otherwise every component whose name
// contains the query matches, strongest first then by name. "FILE:<path>"
// and bare file paths resolve to file nodes.
func (g *Graph) Resolve(query string) []string {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}
	if _, ok := g.nodes[q]; ok {
		return []string{q}
	}
	if architecture.IsFileRef(q) {
		if _, ok := g.Node(q); ok {
			return []string{q}
		}
		return nil
	}

	lower := strings.ToLower(q)
	var exact, partial []*architecture.Component
	for _, c := range g.components {
		name := strings.ToLower(c.Name)
		switch {
		case name == lower:
			exact = append(exact, c)
		case strings.Contains(name, lower):
			partial = append(partial, c)
		}
	}
	if len(exact) > 0 {
		return ids(exact)
	}
	if len(partial) > 0 {
		sort.SliceStable(partial, func(i, j int) bool {
			if partial[i].Source.Confidence != partial[j].Source.Confidence {
				return partial[i].Source.Confidence > partial[j].Source.Confidence
			}
			return partial[i].Name < partial[j].Name
		})
		return ids(partial)
	}

	// a path without the prefix
	if strings.Contains(q, "/") || path.Ext(q) != "" {
		ref := architecture.FileRef(path.Clean(strings.ReplaceAll(q, "\\", "/")))
		if _, ok := g.Node(ref); ok {
			return []string{ref}
		}
	}
	return nil
}

func ids(comps []*architecture.Component) []string {
	out := make([]string, len(comps))
	for i, c := range comps {
		out[i] = c.ID
	}
	return out
}

// matchesClass reports whether c passes a classification filter; the
// empty filter passes everything.
func matchesClass(c *architecture.Connection, filter architecture.Classification) bool {
	return filter == "" || c.ClassificationOf() == filter
}
