package detect

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"archgraph/internal/confidence"
	"archgraph/internal/imports"
	"archgraph/internal/slogutil"
)

// DefaultMaxOpenFiles bounds concurrent file reads across all detectors
const DefaultMaxOpenFiles = 64

// Reader reads project files with a shared bound on open handles
type Reader struct {
	root        string
	maxFileSize int64
	sem         *semaphore.Weighted
	limit       int
}

// NewReader creates a reader rooted at root
func NewReader(root string, maxOpen int, maxFileSize int64) *Reader {
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenFiles
	}
	return &Reader{
		root:        root,
		maxFileSize: maxFileSize,
		sem:         semaphore.NewWeighted(int64(maxOpen)),
		limit:       maxOpen,
	}
}

// ReadFile reads a repo-relative file
func (r *Reader) ReadFile(ctx context.Context, rel string) ([]byte, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)

	full := filepath.Join(r.root, filepath.FromSlash(rel))
	if r.maxFileSize > 0 {
		info, err := os.Stat(full)
		if err != nil {
			return nil, err
		}
		if info.Size() > r.maxFileSize {
			return nil, fmt.Errorf("%d bytes exceeds limit of %d", info.Size(), r.maxFileSize)
		}
	}
	return os.ReadFile(full)
}

// Input is what a detector sees
type Input struct {
	// Root is the absolute project root
	Root string

	// Files are the candidate repo-relative paths, already filtered by the
	// descriptor's Include globs and the incremental change set.
	Files []string

	Scorer *confidence.Scorer
	Now    time.Time
	Logger *slog.Logger

	reader *Reader
}

// NewInput builds an input outside of a Runner, mainly for tests
func NewInput(root string, files []string, scorer *confidence.Scorer, reader *Reader) *Input {
	if scorer == nil {
		scorer = confidence.NewScorer(confidence.DefaultConfig())
	}
	if reader == nil {
		reader = NewReader(root, DefaultMaxOpenFiles, 0)
	}
	return &Input{
		Root:   root,
		Files:  files,
		Scorer: scorer,
		Now:    time.Now().UTC(),
		Logger: slogutil.NewDiscardLogger(),
		reader: reader,
	}
}

// ReadFile reads a repo-relative file through the shared reader
func (in *Input) ReadFile(ctx context.Context, rel string) ([]byte, error) {
	return in.reader.ReadFile(ctx, rel)
}

// Source reads rel and prepares it for scoring
func (in *Input) Source(ctx context.Context, rel string) (*confidence.Source, error) {
	content, err := in.ReadFile(ctx, rel)
	if err != nil {
		return nil, err
	}
	return confidence.NewSource(rel, content, confidence.WithImports(func() ([]string, bool) {
		return imports.Extract(ctx, rel, content)
	})), nil
}

// Each reads every candidate file with bounded parallelism and calls fn
// for each readable one. fn may run concurrently. Unreadable files and
// panics in fn come back as warnings.
func (in *Input) Each(ctx context.Context, fn func(src *confidence.Source)) ([]Warning, error) {
	acc := NewAccumulator()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.reader.limit)

	for _, rel := range in.Files {
		rel := rel
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					if in.Logger != nil {
						in.Logger.Error("File callback panicked", "file", rel, "panic", fmt.Sprint(p), "stack", string(debug.Stack()))
					}
					acc.Warn(Warning{Type: WarnDetectorPanic, Message: fmt.Sprint(p), File: rel})
				}
			}()
			src, err := in.Source(gctx, rel)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				acc.Warn(Warning{Type: WarnUnreadable, Message: err.Error(), File: rel})
				return nil
			}
			fn(src)
			return nil
		})
	}
	err := g.Wait()
	return acc.Result().Warnings, err
}

// Score fills the hit's file, time and confidence from a scored evidence.
// It returns false when the hit falls below the floor.
func (in *Input) Score(src *confidence.Source, ev confidence.Evidence, h Hit) (Hit, bool) {
	conf, keep := in.Scorer.Keep(src, ev)
	if !keep {
		return h, false
	}
	h.File = src.Path
	h.Line = ev.Line
	if h.Snippet == "" {
		h.Snippet = src.Line(ev.Line)
	}
	h.Confidence = conf
	h.Now = in.Now
	return h, true
}
