package query

import (
	"sort"

	"archgraph/internal/architecture"
	"archgraph/internal/storage"
	"archgraph/internal/testutil"
)

// scenarioGraph is API(backend) -> DB(database) plus an unconnected Orphan
func scenarioGraph() (*storage.Records, *architecture.Component, *architecture.Component, *architecture.Component) {
	b := testutil.NewGraph()
	api := b.Component("API", architecture.TypePackage, architecture.LayerBackend, 0.9)
	db := b.Component("DB", architecture.TypeDatabase, architecture.LayerDatabase, 0.9)
	orphan := b.Component("Orphan", architecture.TypePackage, architecture.LayerBackend, 0.8)
	b.Connect(api.ID, db.ID, architecture.ConnServiceCall, 0.9)
	return b.Records(), api, db, orphan
}

func nodeNames(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	sort.Strings(out)
	return out
}

func pathNames(p Path) []string {
	out := make([]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		out = append(out, n.Name)
	}
	return out
}

func allPathNames(res *TraceResult) [][]string {
	out := make([][]string, 0, len(res.Paths))
	for _, p := range res.Paths {
		out = append(out, pathNames(p))
	}
	return out
}
