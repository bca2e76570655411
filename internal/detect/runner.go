package detect

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"archgraph/internal/confidence"
	"archgraph/internal/slogutil"
)

// Options configures a Runner
type Options struct {
	Root         string
	Workers      int
	MaxOpenFiles int
	MaxFileSize  int64
	Scorer       *confidence.Scorer
	Logger       *slog.Logger

	// Now stamps every record of the run; zero means time.Now()
	Now time.Time
}

// Runner executes every registered detector over a file list
type Runner struct {
	registry *Registry
	opts     Options
	reader   *Reader
	logger   *slog.Logger
}

// NewRunner creates a runner
func NewRunner(registry *Registry, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Scorer == nil {
		opts.Scorer = confidence.NewScorer(confidence.DefaultConfig())
	}
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Runner{
		registry: registry,
		opts:     opts,
		reader:   NewReader(opts.Root, opts.MaxOpenFiles, opts.MaxFileSize),
		logger:   logger,
	}
}

// Run runs all detectors over files (repo-relative paths). Detectors run
// concurrently and independently: an error or panic in one becomes a
// warning and the others carry on. The returned result is merged and
// sorted; ctx cancellation returns the partial result with ctx's error.
func (r *Runner) Run(ctx context.Context, files []string) (*Result, error) {
	now := r.opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	acc := NewAccumulator()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for _, d := range r.registry.All() {
		d := d
		candidates := FilterInclude(files, d.Include)
		if len(candidates) == 0 {
			r.logger.Debug("Detector skipped, no candidate files", "detector", d.Name)
			continue
		}
		in := &Input{
			Root:   r.opts.Root,
			Files:  candidates,
			Scorer: r.opts.Scorer,
			Now:    now,
			Logger: r.logger.With("detector", d.Name),
			reader: r.reader,
		}
		g.Go(func() error {
			start := time.Now()
			res, err := r.runOne(gctx, d, in)
			if err != nil {
				r.logger.Warn("Detector failed", "detector", d.Name, "error", err.Error())
				acc.Warn(Warning{Type: WarnDetectorError, Message: fmt.Sprintf("%s: %v", d.Name, err)})
			}
			acc.Add(res)
			r.logger.Debug("Detector finished",
				"detector", d.Name,
				"files", len(candidates),
				"duration", time.Since(start),
			)
			return nil
		})
	}

	_ = g.Wait()
	return acc.Result(), ctx.Err()
}

func (r *Runner) runOne(ctx context.Context, d Descriptor, in *Input) (res *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Detector panicked", "detector", d.Name, "panic", fmt.Sprint(p), "stack", string(debug.Stack()))
			res = &Result{Warnings: []Warning{{
				Type:    WarnDetectorPanic,
				Message: fmt.Sprintf("%s: %v", d.Name, p),
			}}}
			err = nil
		}
	}()
	return d.Detect(ctx, in)
}
