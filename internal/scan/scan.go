// Package scan runs the detection pipeline over a project and persists the
// result: enumerate files, hash them, pick full or incremental mode, run
// detectors, merge into the store, rebuild derived artifacts and record the
// run in the scan history.
package scan

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"archgraph/internal/confidence"
	"archgraph/internal/detect"
	"archgraph/internal/detectors"
	"archgraph/internal/errors"
	"archgraph/internal/incremental"
	"archgraph/internal/paths"
	"archgraph/internal/slogutil"
	"archgraph/internal/storage"
)

// WarnRemovedFile marks a file that disappeared since the last scan
const WarnRemovedFile = "removed-file"

// Options configures a Scanner
type Options struct {
	Root   string
	Layout paths.Layout

	// Registry defaults to the built-in detectors plus any signature
	// overrides found in the store directory.
	Registry *detect.Registry
	Scorer   *confidence.Scorer

	Excludes       []string
	MaxFileSize    int64
	MaxOpenFiles   int
	Workers        int
	WriteBatchSize int

	Incremental *incremental.Config
	Summary     storage.SummaryOptions

	// DisableHistory skips history.db
	DisableHistory bool
	// HistoryKeep bounds the number of runs kept; zero keeps all
	HistoryKeep int

	Logger *slog.Logger
	Now    func() time.Time
}

// Result describes one scan
type Result struct {
	Mode             storage.ScanMode   `json:"mode"`
	RunID            int64              `json:"run_id,omitempty"`
	Commit           string             `json:"commit,omitempty"`
	FilesTotal       int                `json:"files_total"`
	FilesScanned     int                `json:"files_scanned"`
	Changes          incremental.Stats  `json:"changes"`
	Removed          []string           `json:"removed,omitempty"`
	Components       int                `json:"components"`
	Connections      int                `json:"connections"`
	ComponentWrites  storage.WriteStats `json:"component_writes"`
	ConnectionWrites storage.WriteStats `json:"connection_writes"`
	Derived          bool               `json:"derived_rebuilt"`
	Compressed       bool               `json:"summary_compressed"`
	Warnings         []detect.Warning   `json:"warnings,omitempty"`
	Duration         time.Duration      `json:"duration"`
}

// Written is the number of records rewritten by the scan
func (r *Result) Written() int {
	return r.ComponentWrites.Written + r.ConnectionWrites.Written
}

// Scanner runs scans for one project. Scans on the same Scanner must not
// overlap; the watcher serializes them.
type Scanner struct {
	opts   Options
	store  *storage.Store
	logger *slog.Logger
}

// New creates a scanner
func New(opts Options) (*Scanner, error) {
	if opts.Root == "" {
		return nil, errors.New(errors.InvalidArgument, "project root is required", nil)
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	opts.Root = root
	if opts.Layout.Root == "" {
		opts.Layout = paths.NewLayout(root, "")
	}
	if opts.Logger == nil {
		opts.Logger = slogutil.NewDiscardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Incremental == nil {
		opts.Incremental = incremental.DefaultConfig()
	}
	if opts.Scorer == nil {
		opts.Scorer = confidence.NewScorer(confidence.DefaultConfig())
	}
	if opts.Registry == nil {
		reg, err := DefaultRegistry(opts.Layout, opts.Logger)
		if err != nil {
			return nil, err
		}
		opts.Registry = reg
	}

	return &Scanner{
		opts: opts,
		store: storage.New(opts.Layout, storage.Options{
			WriteBatchSize: opts.WriteBatchSize,
			Logger:         opts.Logger,
		}),
		logger: opts.Logger,
	}, nil
}

// DefaultRegistry builds the built-in detectors plus the signature
// overrides in the store's signatures.toml, when present.
func DefaultRegistry(layout paths.Layout, logger *slog.Logger) (*detect.Registry, error) {
	path := layout.File(paths.SignaturesFile)
	if _, err := os.Stat(path); err != nil {
		return detectors.Default(), nil
	}
	custom, err := detectors.LoadSignatures(path)
	if err != nil {
		return nil, errors.New(errors.InvalidSignatureFile, "invalid signature overrides", err).
			WithFix(errors.FixAction{Type: errors.EditFile, Path: path, Description: "Fix or remove the signature overrides file"})
	}
	if logger != nil {
		logger.Info("Loaded signature overrides", "path", path, "count", len(custom))
	}
	return detectors.Default(custom...), nil
}

// Store returns the scanner's store
func (s *Scanner) Store() *storage.Store {
	return s.store
}

// Scan runs one scan. full forces every file through the detectors even
// when a manifest from a previous scan exists.
func (s *Scanner) Scan(ctx context.Context, full bool) (*Result, error) {
	start := s.opts.Now()
	res, err := s.scan(ctx, full, start)
	if err != nil {
		scanFailures.Inc()
		return res, err
	}
	res.Duration = s.opts.Now().Sub(start)

	scanRuns.WithLabelValues(string(res.Mode)).Inc()
	scanDuration.WithLabelValues(string(res.Mode)).Observe(res.Duration.Seconds())
	filesScanned.Add(float64(res.FilesScanned))
	recordsWritten.WithLabelValues("component").Add(float64(res.ComponentWrites.Written))
	recordsWritten.WithLabelValues("connection").Add(float64(res.ConnectionWrites.Written))
	for _, w := range res.Warnings {
		scanWarnings.WithLabelValues(w.Type).Inc()
	}

	s.recordHistory(ctx, res, start)

	s.logger.Info("Scan complete",
		"mode", res.Mode,
		"files", res.FilesTotal,
		"scanned", res.FilesScanned,
		"components", res.Components,
		"connections", res.Connections,
		"written", res.Written(),
		"warnings", len(res.Warnings),
		"duration", res.Duration,
	)
	return res, nil
}

func (s *Scanner) scan(ctx context.Context, full bool, now time.Time) (*Result, error) {
	layout := s.opts.Layout
	res := &Result{}

	files, walkWarnings, err := detect.Enumerate(s.opts.Root, detect.WalkOptions{
		StoreDir:    layout.Root,
		Excludes:    s.opts.Excludes,
		MaxFileSize: s.opts.MaxFileSize,
	})
	if err != nil {
		return res, errors.New(errors.ScanFailed, "failed to enumerate project files", err)
	}
	res.Warnings = append(res.Warnings, walkWarnings...)
	all := detect.Paths(files)
	res.FilesTotal = len(all)

	hashes, hashErrs, err := incremental.HashFiles(ctx, s.opts.Root, all, s.opts.Incremental.Workers, now)
	if err != nil {
		return res, s.cancelled(err, "hashing")
	}
	for _, he := range hashErrs {
		res.Warnings = append(res.Warnings, detect.Warning{Type: detect.WarnUnreadable, Message: he.Err.Error(), File: he.Path})
	}

	manifestPath := layout.File(paths.HashesFile)
	previous, err := incremental.LoadManifest(manifestPath)
	if err != nil {
		s.logger.Warn("Ignoring unreadable manifest, running a full scan", "error", err.Error())
		previous = nil
	}
	changes := incremental.DetectFileChanges(hashes, previous)
	res.Changes = changes.Stats()
	res.Removed = changes.Removed
	for _, p := range changes.Removed {
		s.logger.Info("File removed since last scan; its records are retained", "file", p)
		res.Warnings = append(res.Warnings, detect.Warning{Type: WarnRemovedFile, Message: "file removed since last scan", File: p})
	}

	var targets []string
	switch {
	case full || previous == nil || !s.store.Exists():
		res.Mode = storage.ModeFull
		targets = all
	case !changes.HasChanges():
		res.Mode = storage.ModeNoop
	case s.opts.Incremental.PreferFullScan(changes):
		s.logger.Debug("Change set above incremental threshold, running a full scan",
			"changed", len(changes.Changed()),
			"threshold_pct", s.opts.Incremental.IncrementalThreshold,
		)
		res.Mode = storage.ModeFull
		targets = all
	default:
		res.Mode = storage.ModeIncremental
		targets = changes.Changed()
	}
	// only files that hashed can be read by detectors
	targets = hashedOnly(targets, hashes)
	res.FilesScanned = len(targets)

	if len(targets) > 0 {
		runner := detect.NewRunner(s.opts.Registry, detect.Options{
			Root:         s.opts.Root,
			Workers:      s.opts.Workers,
			MaxOpenFiles: s.opts.MaxOpenFiles,
			MaxFileSize:  s.opts.MaxFileSize,
			Scorer:       s.opts.Scorer,
			Logger:       s.logger,
			Now:          now.UTC(),
		})
		detected, err := runner.Run(ctx, targets)
		if err != nil {
			return res, s.cancelled(err, "detection")
		}
		res.Components = len(detected.Components)
		res.Connections = len(detected.Connections)
		res.Warnings = append(res.Warnings, detected.Warnings...)

		if res.ComponentWrites, err = s.store.PutComponents(ctx, detected.Components); err != nil {
			return res, errors.New(errors.ScanFailed, "failed to store components", err)
		}
		if res.ConnectionWrites, err = s.store.PutConnections(ctx, detected.Connections); err != nil {
			return res, errors.New(errors.ScanFailed, "failed to store connections", err)
		}
	} else if err := layout.Ensure(); err != nil {
		return res, errors.New(errors.ScanFailed, "failed to create store", err)
	}

	if res.Written() > 0 || !derivedPresent(layout) {
		recs, err := s.store.Load(ctx)
		if err != nil {
			return res, errors.New(errors.StoreCorrupt, "failed to load store", err)
		}
		derived, err := s.store.WriteDerived(ctx, recs, storage.DerivedOptions{Now: now, Summary: s.opts.Summary})
		if err != nil {
			return res, errors.New(errors.ScanFailed, "failed to write derived artifacts", err)
		}
		res.Derived = true
		res.Compressed = derived.SummaryCompressed
	}

	if previous == nil || changes.HasChanges() {
		incremental.CarryForward(hashes, previous)
		if err := incremental.SaveManifest(manifestPath, incremental.NewManifest(s.opts.Root, hashes, now)); err != nil {
			return res, errors.New(errors.ScanFailed, "failed to save manifest", err)
		}
	}

	res.Commit = incremental.CurrentCommit(ctx, s.opts.Root)
	return res, nil
}

func (s *Scanner) cancelled(err error, stage string) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.New(errors.Timeout, fmt.Sprintf("scan cancelled during %s", stage), err)
	}
	return errors.New(errors.ScanFailed, fmt.Sprintf("scan failed during %s", stage), err)
}

func (s *Scanner) recordHistory(ctx context.Context, res *Result, start time.Time) {
	if s.opts.DisableHistory {
		return
	}
	h, err := storage.OpenHistory(s.opts.Layout.File(paths.HistoryFile), s.logger)
	if err != nil {
		s.logger.Warn("Scan history unavailable", "error", err.Error())
		return
	}
	defer h.Close()

	run := &storage.ScanRun{
		StartedAt:      start,
		Duration:       res.Duration,
		Mode:           res.Mode,
		Commit:         res.Commit,
		FilesTotal:     res.FilesTotal,
		FilesScanned:   res.FilesScanned,
		FilesAdded:     res.Changes.Added,
		FilesModified:  res.Changes.Modified,
		FilesRemoved:   res.Changes.Removed,
		FilesUnchanged: res.Changes.Unchanged,
		Components:     res.Components,
		Connections:    res.Connections,
		RecordsWritten: res.Written(),
	}
	for _, w := range res.Warnings {
		run.Warnings = append(run.Warnings, storage.RunWarning{Type: w.Type, Message: w.Message, File: w.File})
	}
	id, err := h.RecordRun(ctx, run)
	if err != nil {
		s.logger.Warn("Failed to record scan run", "error", err.Error())
		return
	}
	res.RunID = id
	if s.opts.HistoryKeep > 0 {
		if n, err := h.Prune(ctx, s.opts.HistoryKeep); err != nil {
			s.logger.Warn("Failed to prune scan history", "error", err.Error())
		} else if n > 0 {
			s.logger.Debug("Pruned scan history", "removed", n)
		}
	}
}

func hashedOnly(files []string, hashes map[string]incremental.FileHash) []string {
	out := files[:0:0]
	for _, f := range files {
		if _, ok := hashes[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

func derivedPresent(layout paths.Layout) bool {
	for _, name := range []string{paths.IndexFile, paths.GraphFile, paths.FileMapFile, paths.SummaryFile} {
		if _, err := os.Stat(layout.File(name)); err != nil {
			return false
		}
	}
	return true
}
