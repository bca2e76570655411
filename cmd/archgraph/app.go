package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"archgraph/internal/confidence"
	"archgraph/internal/config"
	"archgraph/internal/envelope"
	"archgraph/internal/errors"
	"archgraph/internal/incremental"
	"archgraph/internal/paths"
	"archgraph/internal/query"
	"archgraph/internal/rules"
	"archgraph/internal/scan"
	"archgraph/internal/slogutil"
	"archgraph/internal/storage"
)

// app is the per-invocation state a command runs with
type app struct {
	root   string
	cfg    *config.Config
	layout paths.Layout
	logger *slog.Logger
	closer io.Closer
	out    io.Writer
	errOut io.Writer
	format OutputFormat
	now    func() time.Time
}

// clock is replaced in tests
var clock = time.Now

// open resolves the project, loads and validates its configuration and
// sets up logging.
func (g *globalOptions) open(cmd *cobra.Command) (*app, error) {
	root, err := filepath.Abs(g.project)
	if err != nil {
		return nil, errors.New(errors.InvalidArgument, "invalid project path", err)
	}
	res, err := config.LoadConfigWithDetails(root)
	if err != nil {
		return nil, errors.New(errors.InvalidConfig, "failed to load configuration", err)
	}
	cfg := res.Config
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.InvalidConfig, err.Error(), err)
	}

	level := slogutil.LevelFromString(cfg.Logging.Level)
	if g.verbosity > 0 || g.quiet {
		level = slogutil.LevelFromVerbosity(g.verbosity, g.quiet)
	}
	format := cfg.Logging.Format
	if g.logFormat != "" {
		format = g.logFormat
	}
	layout := paths.NewLayout(root, cfg.StoreDir)
	logFile := cfg.Logging.File
	if logFile != "" && !filepath.IsAbs(logFile) {
		logFile = layout.File(logFile)
	}
	logger, closer, err := slogutil.Setup(slogutil.Options{
		Format:     format,
		Level:      level,
		Writer:     cmd.ErrOrStderr(),
		File:       logFile,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, errors.New(errors.InvalidConfig, "failed to open log file", err)
	}
	for _, o := range res.EnvOverrides {
		logger.Debug("Environment override applied", "env", o.EnvVar, "key", o.Key)
	}
	if res.ConfigPath != "" {
		logger.Debug("Configuration loaded", "path", res.ConfigPath)
	}

	outFormat := FormatHuman
	if g.json {
		outFormat = FormatJSON
	}
	return &app{
		root:   root,
		cfg:    cfg,
		layout: layout,
		logger: logger,
		closer: closer,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		format: outFormat,
		now:    clock,
	}, nil
}

func (a *app) close() {
	_ = a.closer.Close()
}

func (a *app) store() *storage.Store {
	return storage.New(a.layout, storage.Options{
		WriteBatchSize: a.cfg.Scan.WriteBatchSize,
		Logger:         a.logger,
	})
}

func (a *app) limits() query.Limits {
	q := a.cfg.Query
	return query.Limits{
		TraceDepth:             q.DefaultDepth,
		SubgraphDepth:          q.SubgraphDepth,
		MaxPaths:               q.MaxPaths,
		MaxNodes:               q.MaxNodes,
		LowConfidenceThreshold: q.LowConfidenceThreshold,
	}
}

func (a *app) engine() *query.Engine {
	return query.NewEngine(a.store(), a.logger, a.limits())
}

// view loads the store for a query. A project that was never scanned is
// an error rather than an empty graph.
func (a *app) view(ctx context.Context) (*query.View, error) {
	if !a.layout.Exists() {
		return nil, errors.Newf(errors.StoreMissing, "no architecture store at %s", a.layout.Root).
			WithFix(errors.FixAction{Type: errors.RunCommand, Command: "archgraph scan", Description: "Scan the project first"})
	}
	return a.engine().Load(ctx)
}

func (a *app) scorer() *confidence.Scorer {
	c := a.cfg.Confidence
	return confidence.NewScorer(confidence.Config{
		Floor:                c.Floor,
		StringPenalty:        c.StringPenalty,
		DocPenalty:           c.DocPenalty,
		GeneratedPenalty:     c.GeneratedPenalty,
		ConfigPenalty:        c.ConfigPenalty,
		MissingImportPenalty: c.MissingImportPenalty,
	})
}

func (a *app) summaryOptions() storage.SummaryOptions {
	return storage.SummaryOptions{
		LineThreshold: a.cfg.Summary.LineThreshold,
		TopN:          a.cfg.Summary.TopN,
	}
}

func (a *app) scanner() (*scan.Scanner, error) {
	sc := a.cfg.Scan
	return scan.New(scan.Options{
		Root:           a.root,
		Layout:         a.layout,
		Scorer:         a.scorer(),
		Excludes:       sc.Excludes,
		MaxFileSize:    sc.MaxFileSizeBytes,
		MaxOpenFiles:   sc.MaxOpenFiles,
		Workers:        sc.Workers,
		WriteBatchSize: sc.WriteBatchSize,
		Incremental: &incremental.Config{
			IncrementalThreshold: sc.IncrementalThreshold,
			Workers:              sc.Workers,
		},
		Summary:        a.summaryOptions(),
		DisableHistory: !sc.HistoryEnabled,
		HistoryKeep:    sc.HistoryKeep,
		Logger:         a.logger,
		Now:            a.now,
	})
}

// rulesFile is the configured custom rule file, resolved against the
// store directory
func (a *app) rulesFile() string {
	f := a.cfg.Rules.File
	if f == "" || filepath.IsAbs(f) {
		return f
	}
	return a.layout.File(f)
}

func (a *app) rulesOptions() rules.Options {
	return rules.Options{
		SPOFThreshold: a.cfg.Rules.SpofThreshold,
		Disabled:      a.cfg.Rules.Disabled,
	}
}

// rebuildDerived regenerates index, graph, file map and summary after a
// change made outside a scan
func (a *app) rebuildDerived(ctx context.Context, store *storage.Store) error {
	recs, err := store.Load(ctx)
	if err != nil {
		return err
	}
	_, err = store.WriteDerived(ctx, recs, storage.DerivedOptions{Now: a.now(), Summary: a.summaryOptions()})
	return err
}

// emit prints resp and turns a failed envelope into a non-zero exit
func (a *app) emit(resp *envelope.Response) error {
	return writeResponse(a.out, a.errOut, resp, a.format)
}

// fail reports an error that happened before an app was available
func (g *globalOptions) fail(cmd *cobra.Command, err error) error {
	if !g.json {
		return err
	}
	return writeResponse(cmd.OutOrStdout(), cmd.ErrOrStderr(), envelope.Failure(err), FormatJSON)
}
