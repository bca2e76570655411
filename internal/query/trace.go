package query

import (
	"sort"
	"strings"

	"archgraph/internal/architecture"
)

// Direction selects which edges a trace follows
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
	Both     Direction = "both"
)

// ParseDirection converts user input to a Direction. Unknown values are
// forward.
func ParseDirection(s string) Direction {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Backward:
		return Backward
	case Both:
		return Both
	}
	return Forward
}

const (
	DefaultTraceDepth = 5
	DefaultMaxPaths   = 100

	// upper bound on partial paths held at once
	maxFrontier = 10000
)

// TraceOptions controls Trace
type TraceOptions struct {
	Direction      Direction
	MaxDepth       int
	Classification architecture.Classification
	MaxPaths       int
}

func (o TraceOptions) withDefaults() TraceOptions {
	if o.Direction == "" {
		o.Direction = Forward
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultTraceDepth
	}
	if o.MaxPaths <= 0 {
		o.MaxPaths = DefaultMaxPaths
	}
	return o
}

// PathNode is one hop of a traced path
type PathNode struct {
	ID        string                     `json:"id"`
	Name      string                     `json:"name"`
	Type      architecture.ComponentType `json:"type"`
	Layer     architecture.Layer         `json:"layer"`
	Synthetic bool                       `json:"synthetic,omitempty"`
}

// PathEdge is a connection traversed by a path
type PathEdge struct {
	ID             string                      `json:"id"`
	From           string                      `json:"from"`
	To             string                      `json:"to"`
	Type           architecture.ConnectionType `json:"type"`
	Confidence     float64                     `json:"confidence"`
	Classification architecture.Classification `json:"classification"`
}

// Path is one finalized trace path. Nodes run from the start outward in
// the traversal direction; Edges keep their stored orientation.
type Path struct {
	Nodes          []PathNode                  `json:"nodes"`
	Edges          []PathEdge                  `json:"edges"`
	Classification architecture.Classification `json:"classification"`
	MinConfidence  float64                     `json:"min_confidence"`
}

// TraceQuery echoes the normalized request
type TraceQuery struct {
	Component      string                      `json:"component"`
	Direction      Direction                   `json:"direction"`
	MaxDepth       int                         `json:"max_depth"`
	Classification architecture.Classification `json:"classification,omitempty"`
	Resolved       []string                    `json:"resolved"`
}

// TraceResult is the output of Trace
type TraceResult struct {
	Query             TraceQuery           `json:"query"`
	Paths             []Path               `json:"paths"`
	ComponentsTouched []string             `json:"components_touched"`
	LayersCrossed     []architecture.Layer `json:"layers_crossed"`
	Truncated         bool                 `json:"truncated,omitempty"`
}

type partial struct {
	nodes   []string
	edges   []*architecture.Connection
	visited map[string]bool
}

func (p *partial) extend(next string, edge *architecture.Connection) *partial {
	visited := make(map[string]bool, len(p.visited)+1)
	for k := range p.visited {
		visited[k] = true
	}
	visited[next] = true
	return &partial{
		nodes:   append(append([]string(nil), p.nodes...), next),
		edges:   append(append([]*architecture.Connection(nil), p.edges...), edge),
		visited: visited,
	}
}

// Trace finds every path from the components matching name, up to
// MaxDepth hops. Cycles are cut per path, so a component can appear in
// several paths but never twice in one. An unknown name yields an empty
// result.
func (g *Graph) Trace(name string, opts TraceOptions) *TraceResult {
	opts = opts.withDefaults()
	starts := g.Resolve(name)
	res := &TraceResult{
		Query: TraceQuery{
			Component:      name,
			Direction:      opts.Direction,
			MaxDepth:       opts.MaxDepth,
			Classification: opts.Classification,
			Resolved:       append([]string{}, starts...),
		},
		Paths:             []Path{},
		ComponentsTouched: []string{},
		LayersCrossed:     []architecture.Layer{},
	}

	seen := map[string]bool{}
	finalize := func(p *partial) bool {
		if len(p.edges) == 0 {
			return true
		}
		key := strings.Join(p.nodes, "\x00")
		if seen[key] {
			return true
		}
		if len(res.Paths) >= opts.MaxPaths {
			res.Truncated = true
			return false
		}
		seen[key] = true
		res.Paths = append(res.Paths, g.toPath(p))
		return true
	}

	queue := make([]*partial, 0, len(starts))
	for _, id := range starts {
		queue = append(queue, &partial{nodes: []string{id}, visited: map[string]bool{id: true}})
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if len(p.edges) >= opts.MaxDepth {
			if !finalize(p) {
				break
			}
			continue
		}
		steps := g.steps(p.nodes[len(p.nodes)-1], opts)
		extended := false
		for _, st := range steps {
			if p.visited[st.next] {
				continue
			}
			if _, ok := g.Node(st.next); !ok {
				continue
			}
			if len(queue) >= maxFrontier {
				res.Truncated = true
				break
			}
			queue = append(queue, p.extend(st.next, st.edge))
			extended = true
		}
		if !extended && !finalize(p) {
			break
		}
	}

	g.summarize(res)
	return res
}

type step struct {
	next string
	edge *architecture.Connection
}

func (g *Graph) steps(id string, opts TraceOptions) []step {
	var out []step
	if opts.Direction == Forward || opts.Direction == Both {
		for _, c := range g.Outgoing(id) {
			if matchesClass(c, opts.Classification) {
				out = append(out, step{next: c.To.ComponentID, edge: c})
			}
		}
	}
	if opts.Direction == Backward || opts.Direction == Both {
		for _, c := range g.Incoming(id) {
			if matchesClass(c, opts.Classification) {
				out = append(out, step{next: c.From.ComponentID, edge: c})
			}
		}
	}
	return out
}

func (g *Graph) toPath(p *partial) Path {
	path := Path{
		Nodes:         make([]PathNode, 0, len(p.nodes)),
		Edges:         make([]PathEdge, 0, len(p.edges)),
		MinConfidence: 1,
	}
	for _, id := range p.nodes {
		n, _ := g.Node(id)
		path.Nodes = append(path.Nodes, PathNode{
			ID:        n.ID,
			Name:      n.Name,
			Type:      n.Type,
			Layer:     n.Layer,
			Synthetic: n.IsFile(),
		})
	}
	votes := map[architecture.Classification]int{}
	for _, c := range p.edges {
		class := c.ClassificationOf()
		votes[class]++
		if c.Confidence < path.MinConfidence {
			path.MinConfidence = c.Confidence
		}
		path.Edges = append(path.Edges, PathEdge{
			ID:             c.ID,
			From:           c.From.ComponentID,
			To:             c.To.ComponentID,
			Type:           c.Type,
			Confidence:     c.Confidence,
			Classification: class,
		})
	}
	path.Classification = majority(votes)
	return path
}

// majority returns the most common classification. Equal counts go to
// the lexicographically smallest name.
func majority(votes map[architecture.Classification]int) architecture.Classification {
	best := architecture.ClassUnknown
	bestCount := 0
	for class, n := range votes {
		if n > bestCount || (n == bestCount && class < best) {
			best, bestCount = class, n
		}
	}
	return best
}

func (g *Graph) summarize(res *TraceResult) {
	names := map[string]bool{}
	layers := map[architecture.Layer]bool{}
	for _, p := range res.Paths {
		for _, n := range p.Nodes {
			names[n.Name] = true
			layers[n.Layer] = true
		}
	}
	for name := range names {
		res.ComponentsTouched = append(res.ComponentsTouched, name)
	}
	sort.Strings(res.ComponentsTouched)
	res.LayersCrossed = orderedLayers(layers)
}

// orderedLayers returns the set in display order, unknown layers last
func orderedLayers(set map[architecture.Layer]bool) []architecture.Layer {
	out := []architecture.Layer{}
	for _, l := range architecture.Layers {
		if set[l] {
			out = append(out, l)
			delete(set, l)
		}
	}
	var extra []string
	for l := range set {
		extra = append(extra, string(l))
	}
	sort.Strings(extra)
	for _, l := range extra {
		out = append(out, architecture.Layer(l))
	}
	return out
}
