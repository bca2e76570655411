package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph/internal/architecture"
	"archgraph/internal/testutil"
)

func assertClosed(t *testing.T, res *SubgraphResult) {
	t.Helper()
	present := map[string]bool{}
	for _, n := range res.Components {
		present[n.ID] = true
	}
	for _, c := range res.Connections {
		assert.True(t, present[c.From.ComponentID], "dangling from %s", c.From.ComponentID)
		assert.True(t, present[c.To.ComponentID], "dangling to %s", c.To.ComponentID)
	}
	assert.Equal(t, len(res.Components), res.Stats.Nodes)
	assert.Equal(t, len(res.Connections), res.Stats.Edges)
}

func TestSubgraph_Scenario(t *testing.T) {
	recs, api, _, orphan := scenarioGraph()
	g := NewGraph(recs)

	res := g.Subgraph(SubgraphOptions{Focus: []string{"API"}, Depth: 1})
	assert.Equal(t, []string{"API", "DB"}, nodeNames(res.Components))
	assert.Len(t, res.Connections, 1)
	assert.Equal(t, []string{api.ID}, res.Focus)
	assertClosed(t, res)

	res = g.Subgraph(SubgraphOptions{Focus: []string{"Orphan"}, Depth: 1})
	assert.Equal(t, []string{"Orphan"}, nodeNames(res.Components))
	assert.Empty(t, res.Connections)
	assert.Equal(t, []string{orphan.ID}, res.Focus)
}

func TestSubgraph_NoFocusIsWholeGraph(t *testing.T) {
	recs, _, _, _ := scenarioGraph()
	res := NewGraph(recs).Subgraph(SubgraphOptions{})
	assert.Equal(t, []string{"API", "DB", "Orphan"}, nodeNames(res.Components))
	assert.Len(t, res.Connections, 1)
	assert.False(t, res.Truncated)
}

func TestSubgraph_UnknownFocusIsEmpty(t *testing.T) {
	recs, _, _, _ := scenarioGraph()
	res := NewGraph(recs).Subgraph(SubgraphOptions{Focus: []string{"kafka"}})
	assert.Empty(t, res.Components)
	assert.Empty(t, res.Connections)
	assert.Equal(t, "graph LR\n", res.Diagram)
}

func TestSubgraph_DepthIsUndirected(t *testing.T) {
	b, _ := chain("A", "B", "C", "D", "E")
	g := NewGraph(b.Records())

	res := g.Subgraph(SubgraphOptions{Focus: []string{"C"}, Depth: 1})
	assert.Equal(t, []string{"B", "C", "D"}, nodeNames(res.Components))
	assert.Len(t, res.Connections, 2)

	res = g.Subgraph(SubgraphOptions{Focus: []string{"A", "E"}, Depth: 1})
	assert.Equal(t, []string{"A", "B", "D", "E"}, nodeNames(res.Components))
	assert.Len(t, res.Connections, 2)
}

func TestSubgraph_LayerFilter(t *testing.T) {
	recs, _, _, _ := scenarioGraph()
	res := NewGraph(recs).Subgraph(SubgraphOptions{Layers: []architecture.Layer{architecture.LayerBackend}})
	assert.Equal(t, []string{"API", "Orphan"}, nodeNames(res.Components))
	assert.Empty(t, res.Connections)
}

func TestSubgraph_ClassificationFilter(t *testing.T) {
	b := testutil.NewGraph()
	a := b.Component("A", architecture.TypePackage, architecture.LayerBackend, 0.9)
	c := b.Component("C", architecture.TypePackage, architecture.LayerBackend, 0.9)
	d := b.Component("D", architecture.TypePackage, architecture.LayerBackend, 0.9)
	b.ConnectClass(a.ID, c.ID, architecture.ConnImports, 0.9, architecture.ClassProduction)
	b.ConnectClass(a.ID, d.ID, architecture.ConnImports, 0.9, architecture.ClassTest)

	res := NewGraph(b.Records()).Subgraph(SubgraphOptions{Focus: []string{"A"}, Classification: architecture.ClassTest})
	assert.Equal(t, []string{"A", "C", "D"}, nodeNames(res.Components))
	require.Len(t, res.Connections, 1)
	assert.Equal(t, d.ID, res.Connections[0].To.ComponentID)
}

func TestSubgraph_TruncationKeepsClosure(t *testing.T) {
	b := testutil.NewGraph()
	hub := b.Component("hub", architecture.TypeService, architecture.LayerBackend, 0.95)
	for i := 0; i < 12; i++ {
		leaf := b.Component(fmt.Sprintf("leaf-%02d", i), architecture.TypePackage, architecture.LayerBackend, 0.5+float64(i)/100)
		b.Connect(hub.ID, leaf.ID, architecture.ConnImports, 0.9)
		b.Connect(architecture.FileRef(fmt.Sprintf("src/f%02d.go", i)), leaf.ID, architecture.ConnImports, 0.9)
	}
	g := NewGraph(b.Records())

	res := g.Subgraph(SubgraphOptions{Focus: []string{"hub"}, Depth: 2, MaxNodes: 5})
	require.True(t, res.Truncated)
	assert.Len(t, res.Components, 5)
	assertClosed(t, res)
	// focus first, then the strongest neighbours
	assert.Equal(t, []string{"hub", "leaf-08", "leaf-09", "leaf-10", "leaf-11"}, nodeNames(res.Components))
	assert.Len(t, res.Connections, 4)

	full := g.Subgraph(SubgraphOptions{MaxNodes: 1000})
	assert.Len(t, full.Components, 25)
	assertClosed(t, full)
}

func TestSubgraph_DiagramIsDeterministic(t *testing.T) {
	recs, _, _, _ := scenarioGraph()
	res := NewGraph(recs).Subgraph(SubgraphOptions{Focus: []string{"API"}, Depth: 1})

	want := "graph LR\n" +
		"  n0[(\"DB\")]\n" +
		"  n1[\"API\"]\n" +
		"  n1 -->|service-call| n0\n"
	assert.Equal(t, want, res.Diagram)

	// input order must not change the rendering
	rev := append([]*Node(nil), res.Components...)
	rev[0], rev[1] = rev[1], rev[0]
	assert.Equal(t, want, Mermaid(rev, res.Connections))
}

func TestMermaid_SanitizesLabels(t *testing.T) {
	nodes := []*Node{
		{ID: "a", Name: "say \"hi\" <b>|x|</b>", Type: architecture.TypeLLM},
		{ID: "b", Name: "  ", Type: architecture.TypeQueue},
	}
	out := Mermaid(nodes, nil)
	assert.Contains(t, out, "n0{{\"say 'hi' (b)/x/(/b)\"}}")
	assert.Contains(t, out, "n1[[\"unnamed\"]]")
}
