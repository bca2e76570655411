package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph/internal/architecture"
	"archgraph/internal/testutil"
)

func TestResolve(t *testing.T) {
	b := testutil.NewGraph()
	pg := b.Component("postgresql", architecture.TypeDatabase, architecture.LayerDatabase, 0.7)
	pgx := b.Component("pgx-postgres-driver", architecture.TypePackage, architecture.LayerBackend, 0.9)
	redis := b.Component("Redis", architecture.TypeDatabase, architecture.LayerDatabase, 0.8)
	b.Connect(architecture.FileRef("api/db.go"), pg.ID, architecture.ConnStores, 0.9)
	g := NewGraph(b.Records())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"exact case insensitive", "redis", []string{redis.ID}},
		{"exact beats substring", "postgresql", []string{pg.ID}},
		{"substring by confidence", "postgres", []string{pgx.ID, pg.ID}},
		{"component id", pg.ID, []string{pg.ID}},
		{"file ref", "FILE:api/db.go", []string{architecture.FileRef("api/db.go")}},
		{"bare file path", "api/db.go", []string{architecture.FileRef("api/db.go")}},
		{"unknown file ref", "FILE:nope.go", nil},
		{"no match", "kafka", nil},
		{"blank", "  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Resolve(tt.query))
		})
	}
}

func TestGraph_FileNodesAreSynthesized(t *testing.T) {
	b := testutil.NewGraph()
	api := b.Component("API", architecture.TypePackage, architecture.LayerBackend, 0.9)
	ref := architecture.FileRef("web/src/App.tsx")
	b.Connect(ref, api.ID, architecture.ConnServiceCall, 0.8)
	g := NewGraph(b.Records())

	n, ok := g.Node(ref)
	require.True(t, ok)
	assert.True(t, n.IsFile())
	assert.Equal(t, "web/src/App.tsx", n.Name)
	assert.Equal(t, architecture.TypeFile, n.Type)
	assert.Equal(t, architecture.LayerFrontend, n.Layer)
	assert.Nil(t, n.Component)

	_, ok = g.Node(architecture.FileRef("unreferenced.go"))
	assert.False(t, ok)
	_, ok = g.Node("package_missing")
	assert.False(t, ok)

	assert.Equal(t, []string{ref}, g.FileRefs())
	assert.Len(t, g.Components(), 1)
}
