package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"

	"archgraph/internal/architecture"
	"archgraph/internal/errors"
	"archgraph/internal/paths"
	"archgraph/internal/storage"
	"archgraph/internal/version"
)

// Exporter builds bundles from a store
type Exporter struct {
	store  *storage.Store
	logger *slog.Logger
}

// NewExporter creates a new exporter
func NewExporter(store *storage.Store, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{store: store, logger: logger}
}

// Build loads the store into a Bundle. Unreadable records are skipped the
// same way queries skip them.
func (e *Exporter) Build(ctx context.Context, opts Options) (*Bundle, error) {
	if !e.store.Exists() {
		return nil, errors.New(errors.StoreMissing, "no store found; run a scan first", nil)
	}
	recs, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range recs.Warnings {
		e.logger.Warn("Record left out of export", "file", w.File, "error", w.Message)
	}

	fileMap, err := e.store.LoadFileMap()
	if err != nil || len(fileMap) == 0 {
		fileMap = storage.BuildFileMap(recs)
	}

	b := &Bundle{
		Version:     BundleVersion,
		Tool:        "archgraph " + version.Info(),
		ProjectPath: opts.ProjectPath,
		Components:  recs.Components,
		Connections: recs.Connections,
		FileMap:     fileMap,
	}
	if opts.Now != nil {
		b.GeneratedAt = opts.Now().UTC()
	}
	if !opts.OmitPrompts {
		prompts, err := e.store.Prompts()
		if err != nil {
			return nil, fmt.Errorf("failed to read prompts: %w", err)
		}
		if len(prompts) > 0 {
			b.Prompts = prompts
		}
	}
	b.Stats = BundleStats{
		Components:  len(b.Components),
		Connections: len(b.Connections),
		Files:       len(b.FileMap),
		Prompts:     len(b.Prompts),
	}
	return b, nil
}

// Restore writes a bundle's records into the exporter's store, merging
// with whatever is already there. Prompt text goes back through the
// component metadata so the store splits it out again.
func (e *Exporter) Restore(ctx context.Context, b *Bundle) (storage.WriteStats, error) {
	comps := make([]*architecture.Component, 0, len(b.Components))
	for _, c := range b.Components {
		if p, ok := b.Prompts[c.ID]; ok {
			cp := *c
			cp.Metadata = make(map[string]interface{}, len(c.Metadata)+1)
			for k, v := range c.Metadata {
				cp.Metadata[k] = v
			}
			cp.Metadata[architecture.MetaPromptContent] = p.Content
			c = &cp
		}
		comps = append(comps, c)
	}

	cs, err := e.store.PutComponents(ctx, comps)
	if err != nil {
		return cs, err
	}
	ns, err := e.store.PutConnections(ctx, b.Connections)
	stats := cs.Add(ns)
	if err != nil {
		return stats, err
	}
	e.logger.Info("Bundle restored",
		"components", len(b.Components),
		"connections", len(b.Connections),
		"written", stats.Written,
	)
	return stats, nil
}

// Write encodes b as zstd-compressed JSON
func Write(w io.Writer, b *Bundle, level string) error {
	lvl, err := encoderLevel(level)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(lvl))
	if err != nil {
		return fmt.Errorf("failed to create encoder: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(b); err != nil {
		_ = enc.Close()
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	return enc.Close()
}

// Read decodes a bundle written by Write
func Read(r io.Reader) (*Bundle, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.New(errors.StoreCorrupt, "not a zstd bundle", err)
	}
	defer dec.Close()

	var b Bundle
	if err := json.NewDecoder(dec).Decode(&b); err != nil {
		return nil, errors.New(errors.StoreCorrupt, "failed to decode bundle", err)
	}
	if b.Version != BundleVersion {
		return nil, errors.Newf(errors.StoreCorrupt, "unsupported bundle version %d", b.Version)
	}
	return &b, nil
}

// WriteFile writes a bundle atomically and returns its compressed size
func WriteFile(path string, b *Bundle, level string) (int64, error) {
	var buf bytes.Buffer
	if err := Write(&buf, b, level); err != nil {
		return 0, err
	}
	if err := paths.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}

// ReadFile reads a bundle from disk
func ReadFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func encoderLevel(s string) (zstd.EncoderLevel, error) {
	if s == "" {
		return zstd.SpeedDefault, nil
	}
	ok, lvl := zstd.EncoderLevelFromString(s)
	if !ok {
		return 0, errors.Newf(errors.InvalidArgument, "unknown compression level %q", s)
	}
	return lvl, nil
}
