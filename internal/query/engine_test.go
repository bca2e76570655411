package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph/internal/architecture"
	"archgraph/internal/incremental"
	"archgraph/internal/paths"
	"archgraph/internal/slogutil"
	"archgraph/internal/storage"
	"archgraph/internal/testutil"
)

func newTestEngine(t *testing.T) (*Engine, *storage.Store) {
	t.Helper()
	store := storage.New(paths.NewLayout(t.TempDir(), ""), storage.Options{Logger: slogutil.NewDiscardLogger()})
	return NewEngine(store, slogutil.NewDiscardLogger(), Limits{}), store
}

func TestEngine_MissingStoreIsEmpty(t *testing.T) {
	e, _ := newTestEngine(t)
	v, err := e.Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, v.Trace("API", TraceOptions{}).Paths)
	sub := v.Subgraph(SubgraphOptions{})
	assert.Empty(t, sub.Components)
	assert.Equal(t, "graph LR\n", sub.Diagram)
	cov := v.Coverage()
	assert.Equal(t, 0.0, cov.OverallConfidence)
	assert.Empty(t, v.Warnings())
}

func TestEngine_LoadsAndRefreshes(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t)
	recs, _, _, _ := scenarioGraph()
	_, err := store.PutComponents(ctx, recs.Components)
	require.NoError(t, err)
	_, err = store.PutConnections(ctx, recs.Connections)
	require.NoError(t, err)

	v1, err := e.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, v1.Records.Components, 3)

	v2, err := e.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, v1.Records, v2.Records, "unchanged store should reuse the cached snapshot")

	// a new record file changes the directory
	time.Sleep(10 * time.Millisecond)
	b := testutil.NewGraph()
	_, err = store.PutComponents(ctx, []*architecture.Component{
		b.Component("cache", architecture.TypeDatabase, architecture.LayerDatabase, 0.8),
	})
	require.NoError(t, err)

	v3, err := e.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, v3.Records.Components, 4)
}

func TestEngine_DefaultsApply(t *testing.T) {
	store := storage.New(paths.NewLayout(t.TempDir(), ""), storage.Options{})
	e := NewEngine(store, nil, Limits{TraceDepth: 1, MaxNodes: 2})
	assert.Equal(t, DefaultMaxPaths, e.Limits().MaxPaths)

	recs, _, _, _ := scenarioGraph()
	ctx := context.Background()
	_, err := store.PutComponents(ctx, recs.Components)
	require.NoError(t, err)
	_, err = store.PutConnections(ctx, recs.Connections)
	require.NoError(t, err)

	v, err := e.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Trace("API", TraceOptions{}).Query.MaxDepth)
	sub := v.Subgraph(SubgraphOptions{})
	assert.True(t, sub.Truncated)
	assert.Len(t, sub.Components, 2)
}

func TestEngine_CoverageUsesManifest(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t)

	b := testutil.NewGraph()
	api := b.Component("API", architecture.TypePackage, architecture.LayerBackend, 0.9)
	api.Source.Files = []string{"api/main.go"}
	_, err := store.PutComponents(ctx, []*architecture.Component{api})
	require.NoError(t, err)

	files := map[string]incremental.FileHash{
		"api/main.go":       {Hash: "a", Size: 1},
		"api/util.go":       {Hash: "b", Size: 1},
		"README.md":         {Hash: "c", Size: 1},
		"package-lock.json": {Hash: "d", Size: 1},
		"web/logo.png":      {Hash: "e", Size: 1},
	}
	require.NoError(t, incremental.SaveManifest(store.Layout().File(paths.HashesFile),
		incremental.NewManifest("/project", files, testutil.Epoch)))

	v, err := e.Load(ctx)
	require.NoError(t, err)
	cov := v.Coverage()
	assert.Equal(t, 2, cov.ComponentCoverage.TotalFiles)
	assert.Equal(t, 1, cov.ComponentCoverage.MappedFiles)
	// no connections: only the coverage share counts
	assert.InDelta(t, 0.2, cov.OverallConfidence, 1e-9)
}

func TestView_Envelope(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t)

	v, err := e.Load(ctx)
	require.NoError(t, err)
	resp := v.Envelope(testutil.Epoch).Build()
	assert.True(t, resp.Success)
	assert.Equal(t, "unknown", string(resp.Meta.Confidence.Tier))

	recs, _, _, _ := scenarioGraph()
	_, err = store.PutComponents(ctx, recs.Components)
	require.NoError(t, err)
	_, err = store.PutConnections(ctx, recs.Connections)
	require.NoError(t, err)

	v, err = e.Load(ctx)
	require.NoError(t, err)
	resp = v.Envelope(testutil.Epoch).Data(v.Trace("API", TraceOptions{})).Build()
	assert.Equal(t, 0.9, resp.Meta.Confidence.Score)
	assert.Equal(t, "high", string(resp.Meta.Confidence.Tier))
	assert.Equal(t, 3, resp.Meta.Provenance.Components)
	assert.Equal(t, store.Layout().Root, resp.Meta.Provenance.StoreDir)
	assert.Empty(t, resp.Meta.Provenance.ScannedAt)
	assert.Nil(t, resp.Meta.Freshness)
}
