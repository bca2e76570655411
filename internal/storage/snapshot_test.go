package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph/internal/architecture"
	"archgraph/internal/errors"
)

func TestSnapshots_CreateListLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateSnapshot(ctx, "empty", t0)
	assert.True(t, errors.Is(err, errors.StoreMissing))

	recs := sampleRecords()
	_, err = s.PutComponents(ctx, recs.Components)
	require.NoError(t, err)
	_, err = s.PutConnections(ctx, recs.Connections)
	require.NoError(t, err)

	first, err := s.CreateSnapshot(ctx, "v1", t0)
	require.NoError(t, err)
	second, err := s.CreateSnapshot(ctx, "v2", t0.Add(1))
	require.NoError(t, err)

	infos, err := s.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, first.ID, infos[0].ID)
	assert.Equal(t, "v2", infos[1].Label)
	assert.Equal(t, 3, infos[0].Components)

	loaded, err := s.LoadSnapshot(second.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, second.ID, loaded.ID)
	assert.Len(t, loaded.Connections, 2)

	_, err = s.LoadSnapshot("00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, errors.SnapshotNotFound))
	_, err = s.LoadSnapshot("")
	assert.True(t, errors.Is(err, errors.InvalidArgument))
}

func TestDiffSnapshots(t *testing.T) {
	before := sampleRecords()
	after := sampleRecords()

	// stripe confidence rises, react disappears, redis appears
	after.Components[2].Source.Confidence = 0.9
	after.Components = after.Components[1:]
	redis := component(architecture.TypeDatabase, "redis", architecture.LayerDatabase, 0.85, "cache.go")
	after.Components = append(after.Components, redis)
	after.Connections = append(after.Connections,
		connection(architecture.FileRef("cache.go"), redis.ID, architecture.ConnStores, "cache.go", 2, 0.85))

	d := DiffSnapshots(NewSnapshot(before, "a", t0), NewSnapshot(after, "b", t0))
	require.Len(t, d.AddedComponents, 1)
	assert.Equal(t, "redis", d.AddedComponents[0].Name)
	require.Len(t, d.RemovedComponents, 1)
	assert.Equal(t, "react", d.RemovedComponents[0].Name)
	require.Len(t, d.ChangedComponents, 1)
	assert.InDelta(t, 0.7, d.ChangedComponents[0].Before.Confidence, 1e-9)
	assert.InDelta(t, 0.9, d.ChangedComponents[0].After.Confidence, 1e-9)
	assert.Len(t, d.AddedConnections, 1)
	assert.Empty(t, d.RemovedConnections)
	assert.False(t, d.IsEmpty())

	same := DiffSnapshots(NewSnapshot(before, "", t0), NewSnapshot(sampleRecords(), "", t0))
	assert.True(t, same.IsEmpty())
}
