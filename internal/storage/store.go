// Package storage persists the architecture graph: one JSON record per
// component and connection, the derived lookup artifacts rebuilt from
// them, point-in-time snapshots, and the SQLite scan history.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"archgraph/internal/architecture"
	"archgraph/internal/errors"
	"archgraph/internal/paths"
	"archgraph/internal/slogutil"
)

// DefaultWriteBatchSize bounds concurrent record writes
const DefaultWriteBatchSize = 32

// Options configures a Store
type Options struct {
	WriteBatchSize int
	Logger         *slog.Logger
}

// Store reads and writes records under a store layout
type Store struct {
	layout    paths.Layout
	batchSize int
	logger    *slog.Logger

	promptsMu sync.Mutex
}

// New creates a store over layout. Nothing is created on disk until the
// first write.
func New(layout paths.Layout, opts Options) *Store {
	if opts.WriteBatchSize <= 0 {
		opts.WriteBatchSize = DefaultWriteBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Store{layout: layout, batchSize: opts.WriteBatchSize, logger: logger}
}

// Layout returns the store layout
func (s *Store) Layout() paths.Layout {
	return s.layout
}

// Exists reports whether the store directory has been created
func (s *Store) Exists() bool {
	return s.layout.Exists()
}

// WriteStats counts the outcome of a bulk write
type WriteStats struct {
	Written   int `json:"written"`
	Unchanged int `json:"unchanged"`
}

// Add sums two stats
func (w WriteStats) Add(o WriteStats) WriteStats {
	return WriteStats{Written: w.Written + o.Written, Unchanged: w.Unchanged + o.Unchanged}
}

// PutComponents merges each component into its stored record. Records whose
// merged content equals what is on disk are not rewritten. Prompt text
// found in metadata is moved to prompts.json.
func (s *Store) PutComponents(ctx context.Context, comps []*architecture.Component) (WriteStats, error) {
	if err := s.layout.Ensure(); err != nil {
		return WriteStats{}, err
	}

	byID := make(map[string]*architecture.Component, len(comps))
	prompts := make(map[string]PromptRecord)
	for _, c := range comps {
		if c == nil || c.ID == "" {
			continue
		}
		c = s.extractPrompt(c, prompts)
		byID[c.ID] = architecture.MergeComponent(byID[c.ID], c)
	}

	stats, err := writeAll(ctx, s.batchSize, sortedValues(byID), func(c *architecture.Component) (bool, error) {
		path := s.layout.ComponentFile(c.ID)
		existing, err := s.readComponentForMerge(path)
		if err != nil {
			return false, err
		}
		merged := architecture.MergeComponent(existing, c)
		if existing != nil && architecture.SameComponent(existing, merged) {
			return false, nil
		}
		return true, writeJSON(path, merged)
	})
	if err != nil {
		return stats, err
	}

	if len(prompts) > 0 {
		if err := s.mergePrompts(prompts); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// PutConnections merges each connection into its stored record
func (s *Store) PutConnections(ctx context.Context, conns []*architecture.Connection) (WriteStats, error) {
	if err := s.layout.Ensure(); err != nil {
		return WriteStats{}, err
	}

	byID := make(map[string]*architecture.Connection, len(conns))
	for _, c := range conns {
		if c == nil || c.ID == "" {
			continue
		}
		byID[c.ID] = architecture.MergeConnection(byID[c.ID], c)
	}

	return writeAll(ctx, s.batchSize, sortedValues(byID), func(c *architecture.Connection) (bool, error) {
		path := s.layout.ConnectionFile(c.ID)
		existing, err := s.readConnectionForMerge(path)
		if err != nil {
			return false, err
		}
		merged := architecture.MergeConnection(existing, c)
		if existing != nil && architecture.SameConnection(existing, merged) {
			return false, nil
		}
		return true, writeJSON(path, merged)
	})
}

func (s *Store) readComponentForMerge(path string) (*architecture.Component, error) {
	c, err := readJSON[architecture.Component](path)
	switch {
	case err == nil:
		return c, nil
	case stderrors.Is(err, fs.ErrNotExist):
		return nil, nil
	case errors.Is(err, errors.StoreCorrupt):
		s.logger.Warn("Replacing corrupt component record", "path", path, "error", err.Error())
		return nil, nil
	}
	return nil, err
}

func (s *Store) readConnectionForMerge(path string) (*architecture.Connection, error) {
	c, err := readJSON[architecture.Connection](path)
	switch {
	case err == nil:
		return c, nil
	case stderrors.Is(err, fs.ErrNotExist):
		return nil, nil
	case errors.Is(err, errors.StoreCorrupt):
		s.logger.Warn("Replacing corrupt connection record", "path", path, "error", err.Error())
		return nil, nil
	}
	return nil, err
}

// LoadWarning is a record that could not be loaded
type LoadWarning struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// Records is the full set of stored components and connections
type Records struct {
	Components  []*architecture.Component  `json:"components"`
	Connections []*architecture.Connection `json:"connections"`
	Warnings    []LoadWarning              `json:"warnings,omitempty"`
}

// ComponentIndex maps component IDs to components
func (r *Records) ComponentIndex() map[string]*architecture.Component {
	out := make(map[string]*architecture.Component, len(r.Components))
	for _, c := range r.Components {
		out[c.ID] = c
	}
	return out
}

// IsEmpty reports whether there are no records
func (r *Records) IsEmpty() bool {
	return len(r.Components) == 0 && len(r.Connections) == 0
}

// Load reads every record. A store that does not exist yet loads as empty;
// corrupt records are skipped and reported as warnings.
func (s *Store) Load(ctx context.Context) (*Records, error) {
	recs := &Records{}
	if !s.layout.Exists() {
		return recs, nil
	}

	var mu sync.Mutex
	warn := func(path string, err error) {
		mu.Lock()
		recs.Warnings = append(recs.Warnings, LoadWarning{File: filepath.Base(path), Message: err.Error()})
		mu.Unlock()
	}

	comps, err := loadDir[architecture.Component](ctx, s.layout.Components(), s.batchSize, warn)
	if err != nil {
		return nil, err
	}
	conns, err := loadDir[architecture.Connection](ctx, s.layout.Connections(), s.batchSize, warn)
	if err != nil {
		return nil, err
	}

	recs.Components = comps
	recs.Connections = conns
	sort.Slice(recs.Components, func(i, j int) bool { return recs.Components[i].ID < recs.Components[j].ID })
	sort.Slice(recs.Connections, func(i, j int) bool { return recs.Connections[i].ID < recs.Connections[j].ID })
	sort.Slice(recs.Warnings, func(i, j int) bool { return recs.Warnings[i].File < recs.Warnings[j].File })

	for _, w := range recs.Warnings {
		s.logger.Warn("Skipping unreadable record", "file", w.File, "error", w.Message)
	}
	return recs, nil
}

// Component loads one component by ID
func (s *Store) Component(id string) (*architecture.Component, error) {
	c, err := readJSON[architecture.Component](s.layout.ComponentFile(id))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Newf(errors.ComponentNotFound, "component %q not found", id)
	}
	return c, err
}

// Connection loads one connection by ID
func (s *Store) Connection(id string) (*architecture.Connection, error) {
	c, err := readJSON[architecture.Connection](s.layout.ConnectionFile(id))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Newf(errors.ConnectionNotFound, "connection %q not found", id)
	}
	return c, err
}

// DeleteComponent removes a component record and its prompt text.
// Connections referencing it are left in place.
func (s *Store) DeleteComponent(id string) error {
	if err := os.Remove(s.layout.ComponentFile(id)); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return errors.Newf(errors.ComponentNotFound, "component %q not found", id)
		}
		return fmt.Errorf("failed to delete component %s: %w", id, err)
	}
	s.logger.Info("Deleted component", "component_id", id)
	return s.deletePrompt(id)
}

// DeleteConnection removes a connection record
func (s *Store) DeleteConnection(id string) error {
	if err := os.Remove(s.layout.ConnectionFile(id)); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return errors.Newf(errors.ConnectionNotFound, "connection %q not found", id)
		}
		return fmt.Errorf("failed to delete connection %s: %w", id, err)
	}
	s.logger.Info("Deleted connection", "connection_id", id)
	return nil
}

func writeAll[T any](ctx context.Context, limit int, items []T, write func(T) (bool, error)) (WriteStats, error) {
	var written, unchanged atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			changed, err := write(item)
			if err != nil {
				return err
			}
			if changed {
				written.Add(1)
			} else {
				unchanged.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	return WriteStats{Written: int(written.Load()), Unchanged: int(unchanged.Load())}, err
}

func loadDir[T any](ctx context.Context, dir string, limit int, warn func(string, error)) ([]*T, error) {
	entries, err := os.ReadDir(dir)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	out := make([]*T, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		i, path := i, filepath.Join(dir, e.Name())
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := readJSON[T](path)
			if err != nil {
				warn(path, err)
				return nil
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := out[:0]
	for _, rec := range out {
		if rec != nil {
			kept = append(kept, rec)
		}
	}
	return kept, nil
}

// readJSON decodes path into a new T. Missing files keep fs.ErrNotExist;
// undecodable files return a StoreCorrupt error.
func readJSON[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, errors.New(errors.StoreCorrupt, fmt.Sprintf("cannot decode %s", filepath.Base(path)), err)
	}
	return v, nil
}

func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(path string, v interface{}) error {
	data, err := encodeJSON(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return paths.WriteFileAtomic(path, data, 0o644)
}

// writeJSONIfChanged skips the write when the file already holds the same
// bytes, and reports whether it wrote.
func writeJSONIfChanged(path string, v interface{}) (bool, error) {
	data, err := encodeJSON(v)
	if err != nil {
		return false, fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, data) {
		return false, nil
	}
	return true, paths.WriteFileAtomic(path, data, 0o644)
}

func sortedValues[T any](m map[string]T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func isNotExist(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist)
}
