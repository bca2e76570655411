package testutil

import (
	"time"

	"archgraph/internal/architecture"
	"archgraph/internal/storage"
)

// Epoch is the fixed timestamp stamped on built records
var Epoch = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

// Graph builds in-memory record sets for query and rule tests
type Graph struct {
	recs storage.Records
}

// NewGraph starts an empty graph
func NewGraph() *Graph {
	return &Graph{}
}

// Component adds an active component and returns it for further tweaks
func (g *Graph) Component(name string, typ architecture.ComponentType, layer architecture.Layer, conf float64) *architecture.Component {
	c := &architecture.Component{
		ID:        architecture.ComponentID(typ, name),
		Name:      name,
		Type:      typ,
		Role:      architecture.Role{Layer: layer},
		Source:    architecture.Source{Method: "fixture", Confidence: conf},
		Status:    architecture.StatusActive,
		CreatedAt: Epoch,
		UpdatedAt: Epoch,
	}
	g.recs.Components = append(g.recs.Components, c)
	return c
}

// Connect adds a production edge between two IDs
func (g *Graph) Connect(from, to string, typ architecture.ConnectionType, conf float64) *architecture.Connection {
	return g.ConnectClass(from, to, typ, conf, architecture.ClassProduction)
}

// ConnectClass adds an edge with an explicit classification
func (g *Graph) ConnectClass(from, to string, typ architecture.ConnectionType, conf float64, class architecture.Classification) *architecture.Connection {
	file := "src/main.go"
	if architecture.IsFileRef(from) {
		file = architecture.FilePath(from)
	}
	c := &architecture.Connection{
		ID:            architecture.ConnectionID(from, to, typ, file),
		From:          architecture.Endpoint{ComponentID: from},
		To:            architecture.Endpoint{ComponentID: to},
		Type:          typ,
		CodeReference: architecture.CodeReference{File: file, LineStart: 1},
		Confidence:    conf,
		Semantic:      &architecture.Semantic{Classification: class},
		CreatedAt:     Epoch,
		UpdatedAt:     Epoch,
	}
	g.recs.Connections = append(g.recs.Connections, c)
	return c
}

// Records returns the built record set
func (g *Graph) Records() *storage.Records {
	out := g.recs
	return &out
}
