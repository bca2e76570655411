package export

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph/internal/architecture"
	"archgraph/internal/errors"
	"archgraph/internal/paths"
	"archgraph/internal/slogutil"
	"archgraph/internal/storage"
	"archgraph/internal/testutil"
)

func seededStore(t *testing.T) *storage.Store {
	t.Helper()
	g := testutil.NewGraph()
	web := g.Component("checkout-ui", architecture.TypePackage, architecture.LayerFrontend, 0.9)
	web.Source.Files = []string{"web/src/cart.ts"}
	api := g.Component("orders-api", architecture.TypeService, architecture.LayerBackend, 0.95)
	db := g.Component("postgres", architecture.TypeDatabase, architecture.LayerDatabase, 0.85)
	prompt := g.Component("agent.py#SYSTEM_PROMPT", architecture.TypePrompt, architecture.LayerBackend, 0.8)
	prompt.Source.Files = []string{"agent.py"}
	prompt.Metadata = map[string]interface{}{architecture.MetaPromptContent: "You summarize orders."}
	g.Connect(web.ID, api.ID, architecture.ConnServiceCall, 0.9)
	g.Connect(api.ID, db.ID, architecture.ConnStores, 0.8)
	g.Connect(architecture.FileRef("web/src/cart.ts"), db.ID, architecture.ConnStores, 0.6)

	s := storage.New(paths.NewLayout(t.TempDir(), ""), storage.Options{Logger: slogutil.NewDiscardLogger()})
	recs := g.Records()
	ctx := context.Background()
	_, err := s.PutComponents(ctx, recs.Components)
	require.NoError(t, err)
	_, err = s.PutConnections(ctx, recs.Connections)
	require.NoError(t, err)
	return s
}

func TestBuild(t *testing.T) {
	s := seededStore(t)
	e := NewExporter(s, slogutil.NewDiscardLogger())

	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	b, err := e.Build(context.Background(), Options{ProjectPath: "/work/shop", Now: func() time.Time { return now }})
	require.NoError(t, err)

	assert.Equal(t, BundleVersion, b.Version)
	assert.Equal(t, now, b.GeneratedAt)
	assert.Equal(t, "/work/shop", b.ProjectPath)
	assert.Equal(t, BundleStats{Components: 4, Connections: 3, Files: 2, Prompts: 1}, b.Stats)
	assert.True(t, strings.HasPrefix(b.Tool, "archgraph "))

	b, err = e.Build(context.Background(), Options{OmitPrompts: true})
	require.NoError(t, err)
	assert.Empty(t, b.Prompts)
	assert.True(t, b.GeneratedAt.IsZero())
}

func TestBuild_MissingStore(t *testing.T) {
	s := storage.New(paths.NewLayout(t.TempDir(), ""), storage.Options{})
	_, err := NewExporter(s, nil).Build(context.Background(), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.StoreMissing))
}

func TestWriteRead_RoundTrip(t *testing.T) {
	s := seededStore(t)
	b, err := NewExporter(s, slogutil.NewDiscardLogger()).Build(context.Background(), Options{})
	require.NoError(t, err)

	for _, level := range []string{"", "fastest", "best"} {
		t.Run("level="+level, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "graph"+Extension)
			size, err := WriteFile(path, b, level)
			require.NoError(t, err)
			assert.Positive(t, size)

			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, b.Stats, got.Stats)
			require.Len(t, got.Components, len(b.Components))
			for i := range b.Components {
				assert.Equal(t, b.Components[i].ID, got.Components[i].ID)
			}
			assert.Equal(t, b.FileMap, got.FileMap)
			assert.Equal(t, b.Prompts, got.Prompts)
		})
	}
}

func TestWrite_UnknownLevel(t *testing.T) {
	err := Write(&bytes.Buffer{}, &Bundle{Version: BundleVersion}, "ludicrous")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.InvalidArgument))
}

func TestRead_Rejects(t *testing.T) {
	_, err := Read(strings.NewReader(`{"version":1}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.StoreCorrupt))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &Bundle{Version: 99}, ""))
	_, err = Read(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported bundle version 99")
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	b, err := NewExporter(seededStore(t), nil).Build(ctx, Options{})
	require.NoError(t, err)

	dst := storage.New(paths.NewLayout(t.TempDir(), ""), storage.Options{Logger: slogutil.NewDiscardLogger()})
	stats, err := NewExporter(dst, slogutil.NewDiscardLogger()).Restore(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Written)

	recs, err := dst.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, recs.Components, 4)
	assert.Len(t, recs.Connections, 3)

	prompts, err := dst.Prompts()
	require.NoError(t, err)
	assert.Equal(t, b.Prompts, prompts)

	// restoring again changes nothing
	stats, err = NewExporter(dst, nil).Restore(ctx, b)
	require.NoError(t, err)
	assert.Zero(t, stats.Written)
}

func TestOrganize(t *testing.T) {
	b, err := NewExporter(seededStore(t), nil).Build(context.Background(), Options{})
	require.NoError(t, err)

	o := Organize(b)
	assert.Equal(t, 4, o.Components)
	assert.Equal(t, 3, o.Connections)

	var layers []architecture.Layer
	for _, l := range o.Layers {
		layers = append(layers, l.Layer)
	}
	assert.Equal(t, []architecture.Layer{architecture.LayerFrontend, architecture.LayerBackend, architecture.LayerDatabase}, layers)
	assert.Equal(t, []string{"orders-api", "agent.py#SYSTEM_PROMPT"}, o.Layers[1].TopComponents)

	require.Len(t, o.Bridges, 3)
	assert.Equal(t, architecture.LayerBackend, o.Bridges[0].From)
	assert.Equal(t, architecture.LayerDatabase, o.Bridges[0].To)
	assert.Equal(t, "orders-api -> postgres (stores)", o.Bridges[0].Example)

	md := o.Markdown()
	assert.Contains(t, md, "4 components, 3 connections")
	assert.Contains(t, md, "- **frontend** (1): checkout-ui")
	assert.Contains(t, md, "- frontend -> database: 1 (e.g. web/src/cart.ts -> postgres (stores))")

	assert.Empty(t, Organize(nil).Layers)
}
