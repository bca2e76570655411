package query

import (
	"sort"

	"archgraph/internal/architecture"
)

const (
	DefaultSubgraphDepth = 2
	DefaultMaxNodes      = 100
)

// SubgraphOptions controls Subgraph. Empty Focus selects the whole graph.
type SubgraphOptions struct {
	Focus          []string
	Depth          int
	Layers         []architecture.Layer
	Classification architecture.Classification
	MaxNodes       int
}

func (o SubgraphOptions) withDefaults() SubgraphOptions {
	if o.Depth <= 0 {
		o.Depth = DefaultSubgraphDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	return o
}

// SubgraphStats counts what a subgraph returned
type SubgraphStats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// SubgraphResult is the output of Subgraph
type SubgraphResult struct {
	Focus       []string                   `json:"focus"`
	Components  []*Node                    `json:"components"`
	Connections []*architecture.Connection `json:"connections"`
	Stats       SubgraphStats              `json:"stats"`
	Diagram     string                     `json:"diagram"`
	Truncated   bool                       `json:"truncated,omitempty"`
}

// Subgraph extracts the neighbourhood of the focus components. Every
// returned edge has both endpoints in the returned node list.
func (g *Graph) Subgraph(opts SubgraphOptions) *SubgraphResult {
	opts = opts.withDefaults()
	res := &SubgraphResult{
		Focus:       []string{},
		Components:  []*Node{},
		Connections: []*architecture.Connection{},
	}

	var dist map[string]int
	if len(opts.Focus) == 0 {
		dist = g.everything()
	} else {
		var starts []string
		for _, f := range opts.Focus {
			starts = append(starts, g.Resolve(f)...)
		}
		res.Focus = dedupe(starts)
		dist = g.reach(res.Focus, opts.Depth)
	}

	// layer allow-list
	if len(opts.Layers) > 0 {
		allowed := map[architecture.Layer]bool{}
		for _, l := range opts.Layers {
			allowed[l] = true
		}
		for id := range dist {
			n, _ := g.Node(id)
			if !allowed[n.Layer] {
				delete(dist, id)
			}
		}
	}

	edges := g.closure(dist, g.connections)
	if opts.Classification != "" {
		kept := edges[:0]
		for _, c := range edges {
			if matchesClass(c, opts.Classification) {
				kept = append(kept, c)
			}
		}
		edges = kept
	}

	nodes := make([]*Node, 0, len(dist))
	for id := range dist {
		n, _ := g.Node(id)
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if dist[a.ID] != dist[b.ID] {
			return dist[a.ID] < dist[b.ID]
		}
		if a.IsFile() != b.IsFile() {
			return !a.IsFile()
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	if len(nodes) > opts.MaxNodes {
		for _, n := range nodes[opts.MaxNodes:] {
			delete(dist, n.ID)
		}
		nodes = nodes[:opts.MaxNodes]
		edges = g.closure(dist, edges)
		res.Truncated = true
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	res.Components = nodes
	res.Connections = edges
	res.Stats = SubgraphStats{Nodes: len(nodes), Edges: len(edges)}
	res.Diagram = Mermaid(nodes, edges)
	return res
}

// everything returns every component and referenced file at distance 0
func (g *Graph) everything() map[string]int {
	dist := make(map[string]int, len(g.components))
	for _, c := range g.components {
		dist[c.ID] = 0
	}
	for _, ref := range g.FileRefs() {
		dist[ref] = 0
	}
	return dist
}

// reach runs an undirected BFS from starts and returns hop distances
func (g *Graph) reach(starts []string, depth int) map[string]int {
	dist := map[string]int{}
	frontier := make([]string, 0, len(starts))
	for _, id := range starts {
		dist[id] = 0
		frontier = append(frontier, id)
	}
	for d := 1; d <= depth && len(frontier) > 0; d++ {
		var next []string
		for _, id := range frontier {
			for _, c := range g.Outgoing(id) {
				next = g.visit(dist, next, c.To.ComponentID, d)
			}
			for _, c := range g.Incoming(id) {
				next = g.visit(dist, next, c.From.ComponentID, d)
			}
		}
		frontier = next
	}
	return dist
}

func (g *Graph) visit(dist map[string]int, next []string, id string, d int) []string {
	if _, ok := dist[id]; ok {
		return next
	}
	if _, ok := g.Node(id); !ok {
		return next
	}
	dist[id] = d
	return append(next, id)
}

// closure keeps edges whose endpoints are both in set
func (g *Graph) closure(set map[string]int, edges []*architecture.Connection) []*architecture.Connection {
	out := []*architecture.Connection{}
	for _, c := range edges {
		_, from := set[c.From.ComponentID]
		_, to := set[c.To.ComponentID]
		if from && to {
			out = append(out, c)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
