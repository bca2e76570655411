package export

import (
	"fmt"
	"sort"
	"strings"

	"archgraph/internal/architecture"
)

// LayerSummary is one layer's entry in the outline
type LayerSummary struct {
	Layer         architecture.Layer `json:"layer"`
	Components    int                `json:"components"`
	TopComponents []string           `json:"topComponents,omitempty"`
}

// LayerBridge counts connections that cross from one layer to another
type LayerBridge struct {
	From  architecture.Layer `json:"from"`
	To    architecture.Layer `json:"to"`
	Count int                `json:"count"`
	// Example is the highest-confidence connection on the bridge
	Example string `json:"example,omitempty"`
}

// Outline is the layered overview of a bundle
type Outline struct {
	Layers      []LayerSummary `json:"layers"`
	Bridges     []LayerBridge  `json:"bridges,omitempty"`
	Components  int            `json:"components"`
	Connections int            `json:"connections"`
}

const topPerLayer = 5

// Organize groups the bundle's components by layer and finds the
// cross-layer bridges.
func Organize(b *Bundle) *Outline {
	out := &Outline{}
	if b == nil {
		return out
	}
	out.Components = len(b.Components)
	out.Connections = len(b.Connections)

	byLayer := map[architecture.Layer][]*architecture.Component{}
	names := map[string]string{}
	layers := map[string]architecture.Layer{}
	for _, c := range b.Components {
		byLayer[c.Role.Layer] = append(byLayer[c.Role.Layer], c)
		names[c.ID] = c.Name
		layers[c.ID] = c.Role.Layer
	}

	for _, l := range layerOrder(byLayer) {
		comps := byLayer[l]
		sort.Slice(comps, func(i, j int) bool {
			if comps[i].Source.Confidence != comps[j].Source.Confidence {
				return comps[i].Source.Confidence > comps[j].Source.Confidence
			}
			return comps[i].Name < comps[j].Name
		})
		s := LayerSummary{Layer: l, Components: len(comps)}
		for i := 0; i < len(comps) && i < topPerLayer; i++ {
			s.TopComponents = append(s.TopComponents, comps[i].Name)
		}
		out.Layers = append(out.Layers, s)
	}

	endpoint := func(id string) (architecture.Layer, string) {
		if architecture.IsFileRef(id) {
			p := architecture.FilePath(id)
			return architecture.InferLayerFromPath(p), p
		}
		return layers[id], names[id]
	}

	type key struct{ from, to architecture.Layer }
	type acc struct {
		count int
		best  float64
		ex    string
	}
	bridges := map[key]*acc{}
	for _, c := range b.Connections {
		fl, fn := endpoint(c.From.ComponentID)
		tl, tn := endpoint(c.To.ComponentID)
		if fl == tl || fl == "" || tl == "" {
			continue
		}
		k := key{fl, tl}
		a := bridges[k]
		if a == nil {
			a = &acc{best: -1}
			bridges[k] = a
		}
		a.count++
		ex := fmt.Sprintf("%s -> %s (%s)", fn, tn, c.Type)
		if c.Confidence > a.best || (c.Confidence == a.best && ex < a.ex) {
			a.best, a.ex = c.Confidence, ex
		}
	}
	for k, a := range bridges {
		out.Bridges = append(out.Bridges, LayerBridge{From: k.from, To: k.to, Count: a.count, Example: a.ex})
	}
	sort.Slice(out.Bridges, func(i, j int) bool {
		bi, bj := out.Bridges[i], out.Bridges[j]
		if bi.Count != bj.Count {
			return bi.Count > bj.Count
		}
		if bi.From != bj.From {
			return bi.From < bj.From
		}
		return bi.To < bj.To
	})
	return out
}

func layerOrder(present map[architecture.Layer][]*architecture.Component) []architecture.Layer {
	var out []architecture.Layer
	seen := map[architecture.Layer]bool{}
	for _, l := range architecture.Layers {
		if len(present[l]) > 0 {
			out = append(out, l)
			seen[l] = true
		}
	}
	var rest []architecture.Layer
	for l := range present {
		if !seen[l] {
			rest = append(rest, l)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

// Markdown renders the outline as compact markdown
func (o *Outline) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Architecture outline\n\n%d components, %d connections\n", o.Components, o.Connections)

	if len(o.Layers) > 0 {
		sb.WriteString("\n## Layers\n\n")
		for _, l := range o.Layers {
			name := string(l.Layer)
			if name == "" {
				name = "unassigned"
			}
			fmt.Fprintf(&sb, "- **%s** (%d): %s\n", name, l.Components, strings.Join(l.TopComponents, ", "))
		}
	}
	if len(o.Bridges) > 0 {
		sb.WriteString("\n## Cross-layer connections\n\n")
		for _, b := range o.Bridges {
			fmt.Fprintf(&sb, "- %s -> %s: %d (e.g. %s)\n", b.From, b.To, b.Count, b.Example)
		}
	}
	return sb.String()
}
