package query

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"archgraph/internal/detectors"
	"archgraph/internal/incremental"
	"archgraph/internal/paths"
	"archgraph/internal/storage"
)

// Limits are the defaults applied when a request leaves a bound unset
type Limits struct {
	TraceDepth             int
	SubgraphDepth          int
	MaxPaths               int
	MaxNodes               int
	LowConfidenceThreshold float64
}

// DefaultLimits returns the built-in query bounds
func DefaultLimits() Limits {
	return Limits{
		TraceDepth:             DefaultTraceDepth,
		SubgraphDepth:          DefaultSubgraphDepth,
		MaxPaths:               DefaultMaxPaths,
		MaxNodes:               DefaultMaxNodes,
		LowConfidenceThreshold: DefaultLowConfidenceThreshold,
	}
}

// Engine answers queries against one store. Loaded records are cached
// until the store's record directories or index change on disk.
type Engine struct {
	store  *storage.Store
	logger *slog.Logger
	limits Limits

	mu        sync.Mutex
	cached    *storage.Records
	cachedKey stamp
}

// stamp identifies one on-disk state of the store
type stamp struct {
	components  time.Time
	connections time.Time
	index       time.Time
}

// NewEngine creates an engine over store. Zero limits fall back to the
// defaults.
func NewEngine(store *storage.Store, logger *slog.Logger, limits Limits) *Engine {
	def := DefaultLimits()
	if limits.TraceDepth <= 0 {
		limits.TraceDepth = def.TraceDepth
	}
	if limits.SubgraphDepth <= 0 {
		limits.SubgraphDepth = def.SubgraphDepth
	}
	if limits.MaxPaths <= 0 {
		limits.MaxPaths = def.MaxPaths
	}
	if limits.MaxNodes <= 0 {
		limits.MaxNodes = def.MaxNodes
	}
	if limits.LowConfidenceThreshold <= 0 {
		limits.LowConfidenceThreshold = def.LowConfidenceThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger, limits: limits}
}

// Store returns the engine's store
func (e *Engine) Store() *storage.Store {
	return e.store
}

// Limits returns the engine's effective defaults
func (e *Engine) Limits() Limits {
	return e.limits
}

// View is one loaded snapshot of the store
type View struct {
	Records *storage.Records
	Graph   *Graph

	engine *Engine
}

// Warnings returns the load warnings as display strings
func (v *View) Warnings() []string {
	var out []string
	for _, w := range v.Records.Warnings {
		out = append(out, w.File+": "+w.Message)
	}
	return out
}

// Load returns a view over the current records. A missing store yields an
// empty view.
func (e *Engine) Load(ctx context.Context) (*View, error) {
	recs, err := e.records(ctx)
	if err != nil {
		return nil, err
	}
	return &View{Records: recs, Graph: NewGraph(recs), engine: e}, nil
}

func (e *Engine) records(ctx context.Context) (*storage.Records, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := e.stamp()
	if e.cached != nil && key == e.cachedKey {
		return e.cached, nil
	}
	start := time.Now()
	recs, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	e.cached, e.cachedKey = recs, key
	e.logger.Debug("Loaded store snapshot",
		"components", len(recs.Components),
		"connections", len(recs.Connections),
		"duration", time.Since(start))
	return recs, nil
}

func (e *Engine) stamp() stamp {
	l := e.store.Layout()
	return stamp{
		components:  modTime(l.Components()),
		connections: modTime(l.Connections()),
		index:       modTime(l.File(paths.IndexFile)),
	}
}

func modTime(p string) time.Time {
	info, err := os.Stat(p)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Trace runs a path trace with the engine's defaults filled in
func (v *View) Trace(name string, opts TraceOptions) *TraceResult {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = v.engine.limits.TraceDepth
	}
	if opts.MaxPaths <= 0 {
		opts.MaxPaths = v.engine.limits.MaxPaths
	}
	return v.Graph.Trace(name, opts)
}

// Subgraph extracts a subgraph with the engine's defaults filled in
func (v *View) Subgraph(opts SubgraphOptions) *SubgraphResult {
	if opts.Depth <= 0 {
		opts.Depth = v.engine.limits.SubgraphDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = v.engine.limits.MaxNodes
	}
	return v.Graph.Subgraph(opts)
}

// Coverage computes the coverage report. The file universe is the source
// files of the hash manifest; the file map is read from disk or rebuilt
// when absent.
func (v *View) Coverage() *CoverageReport {
	e := v.engine
	fm, err := e.store.LoadFileMap()
	if err != nil {
		e.logger.Warn("Rebuilding unreadable file map", "error", err)
		fm = nil
	}
	if len(fm) == 0 {
		fm = storage.BuildFileMap(v.Records)
	}

	var files []string
	manifest, err := incremental.LoadManifest(e.store.Layout().File(paths.HashesFile))
	if err != nil {
		e.logger.Warn("Ignoring unreadable manifest", "error", err)
	} else if manifest != nil {
		// docs, lockfiles and assets are not part of the universe
		files = []string{}
		for _, p := range manifest.Paths() {
			if detectors.IsCode(p) {
				files = append(files, p)
			}
		}
	}

	return v.Graph.Coverage(CoverageOptions{
		Files:                  files,
		FileMap:                fm,
		LowConfidenceThreshold: e.limits.LowConfidenceThreshold,
	})
}
