package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"archgraph/internal/architecture"
	"archgraph/internal/errors"
)

// SnapshotComponent is the part of a component a snapshot remembers
type SnapshotComponent struct {
	Name       string                     `json:"name"`
	Type       architecture.ComponentType `json:"type"`
	Layer      architecture.Layer         `json:"layer"`
	Status     architecture.Status        `json:"status"`
	Confidence float64                    `json:"confidence"`
}

// SnapshotConnection is the part of a connection a snapshot remembers
type SnapshotConnection struct {
	From       string                      `json:"from"`
	To         string                      `json:"to"`
	Type       architecture.ConnectionType `json:"type"`
	Confidence float64                     `json:"confidence"`
}

// Snapshot is a point-in-time rollup of component and connection identity
type Snapshot struct {
	ID          string                        `json:"id"`
	Label       string                        `json:"label,omitempty"`
	CreatedAt   time.Time                     `json:"created_at"`
	Components  map[string]SnapshotComponent  `json:"components"`
	Connections map[string]SnapshotConnection `json:"connections"`
}

// SnapshotInfo is a snapshot listing entry
type SnapshotInfo struct {
	ID          string    `json:"id"`
	Label       string    `json:"label,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Components  int       `json:"components"`
	Connections int       `json:"connections"`
}

// NewSnapshot captures recs. The snapshot is not persisted.
func NewSnapshot(recs *Records, label string, now time.Time) *Snapshot {
	snap := &Snapshot{
		ID:          uuid.New().String(),
		Label:       label,
		CreatedAt:   now.UTC(),
		Components:  make(map[string]SnapshotComponent, len(recs.Components)),
		Connections: make(map[string]SnapshotConnection, len(recs.Connections)),
	}
	for _, c := range recs.Components {
		snap.Components[c.ID] = SnapshotComponent{
			Name:       c.Name,
			Type:       c.Type,
			Layer:      c.Role.Layer,
			Status:     c.Status,
			Confidence: c.Source.Confidence,
		}
	}
	for _, c := range recs.Connections {
		snap.Connections[c.ID] = SnapshotConnection{
			From:       c.From.ComponentID,
			To:         c.To.ComponentID,
			Type:       c.Type,
			Confidence: c.Confidence,
		}
	}
	return snap
}

// Info summarizes the snapshot
func (s *Snapshot) Info() SnapshotInfo {
	return SnapshotInfo{
		ID:          s.ID,
		Label:       s.Label,
		CreatedAt:   s.CreatedAt,
		Components:  len(s.Components),
		Connections: len(s.Connections),
	}
}

// CreateSnapshot captures the current records and saves them
func (s *Store) CreateSnapshot(ctx context.Context, label string, now time.Time) (*Snapshot, error) {
	if !s.layout.Exists() {
		return nil, errors.New(errors.StoreMissing, "no architecture store to snapshot", nil)
	}
	recs, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	snap := NewSnapshot(recs, label, now)
	if err := writeJSON(s.layout.SnapshotFile(snap.ID), snap); err != nil {
		return nil, err
	}
	s.logger.Info("Snapshot created",
		"snapshot_id", snap.ID,
		"components", len(snap.Components),
		"connections", len(snap.Connections),
	)
	return snap, nil
}

// ListSnapshots returns saved snapshots, oldest first
func (s *Store) ListSnapshots() ([]SnapshotInfo, error) {
	entries, err := os.ReadDir(s.layout.Snapshots())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var out []SnapshotInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		snap, err := readJSON[Snapshot](s.layout.SnapshotFile(strings.TrimSuffix(e.Name(), ".json")))
		if err != nil {
			s.logger.Warn("Skipping unreadable snapshot", "file", e.Name(), "error", err.Error())
			continue
		}
		out = append(out, snap.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// LoadSnapshot loads a snapshot by ID or unique ID prefix
func (s *Store) LoadSnapshot(ref string) (*Snapshot, error) {
	id, err := s.resolveSnapshot(ref)
	if err != nil {
		return nil, err
	}
	return readJSON[Snapshot](s.layout.SnapshotFile(id))
}

func (s *Store) resolveSnapshot(ref string) (string, error) {
	if ref == "" {
		return "", errors.New(errors.InvalidArgument, "snapshot id is required", nil)
	}
	if _, err := uuid.Parse(ref); err == nil {
		if _, err := os.Stat(s.layout.SnapshotFile(ref)); err == nil {
			return ref, nil
		}
		return "", errors.Newf(errors.SnapshotNotFound, "snapshot %q not found", ref)
	}

	infos, err := s.ListSnapshots()
	if err != nil {
		return "", err
	}
	var matches []string
	for _, info := range infos {
		if strings.HasPrefix(info.ID, ref) {
			matches = append(matches, info.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", errors.Newf(errors.SnapshotNotFound, "snapshot %q not found", ref)
	default:
		return "", errors.Newf(errors.InvalidArgument, "snapshot prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// ComponentChange is a component present in both snapshots with different content
type ComponentChange struct {
	ID     string            `json:"id"`
	Before SnapshotComponent `json:"before"`
	After  SnapshotComponent `json:"after"`
}

// ConnectionChange is a connection present in both snapshots with different content
type ConnectionChange struct {
	ID     string             `json:"id"`
	Before SnapshotConnection `json:"before"`
	After  SnapshotConnection `json:"after"`
}

// NamedComponent identifies an added or removed component
type NamedComponent struct {
	ID string `json:"id"`
	SnapshotComponent
}

// NamedConnection identifies an added or removed connection
type NamedConnection struct {
	ID string `json:"id"`
	SnapshotConnection
}

// SnapshotDiff is the difference between two snapshots
type SnapshotDiff struct {
	From               string             `json:"from"`
	To                 string             `json:"to"`
	AddedComponents    []NamedComponent   `json:"added_components"`
	RemovedComponents  []NamedComponent   `json:"removed_components"`
	ChangedComponents  []ComponentChange  `json:"changed_components"`
	AddedConnections   []NamedConnection  `json:"added_connections"`
	RemovedConnections []NamedConnection  `json:"removed_connections"`
	ChangedConnections []ConnectionChange `json:"changed_connections"`
}

// IsEmpty reports whether the snapshots are identical
func (d *SnapshotDiff) IsEmpty() bool {
	return len(d.AddedComponents)+len(d.RemovedComponents)+len(d.ChangedComponents)+
		len(d.AddedConnections)+len(d.RemovedConnections)+len(d.ChangedConnections) == 0
}

// DiffSnapshots compares from to to. All lists are sorted by ID.
func DiffSnapshots(from, to *Snapshot) *SnapshotDiff {
	d := &SnapshotDiff{From: from.ID, To: to.ID}

	for _, id := range sortedKeys(to.Components) {
		after := to.Components[id]
		before, ok := from.Components[id]
		switch {
		case !ok:
			d.AddedComponents = append(d.AddedComponents, NamedComponent{ID: id, SnapshotComponent: after})
		case before != after:
			d.ChangedComponents = append(d.ChangedComponents, ComponentChange{ID: id, Before: before, After: after})
		}
	}
	for _, id := range sortedKeys(from.Components) {
		if _, ok := to.Components[id]; !ok {
			d.RemovedComponents = append(d.RemovedComponents, NamedComponent{ID: id, SnapshotComponent: from.Components[id]})
		}
	}

	for _, id := range sortedKeys(to.Connections) {
		after := to.Connections[id]
		before, ok := from.Connections[id]
		switch {
		case !ok:
			d.AddedConnections = append(d.AddedConnections, NamedConnection{ID: id, SnapshotConnection: after})
		case before != after:
			d.ChangedConnections = append(d.ChangedConnections, ConnectionChange{ID: id, Before: before, After: after})
		}
	}
	for _, id := range sortedKeys(from.Connections) {
		if _, ok := to.Connections[id]; !ok {
			d.RemovedConnections = append(d.RemovedConnections, NamedConnection{ID: id, SnapshotConnection: from.Connections[id]})
		}
	}
	return d
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
