package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"archgraph/internal/envelope"
	"archgraph/internal/export"
	"archgraph/internal/storage"
)

// exportResult is the export command's data
type exportResult struct {
	Path  string             `json:"path"`
	Bytes int64              `json:"bytes"`
	Level string             `json:"level"`
	Stats export.BundleStats `json:"stats"`
}

// outlinePayload is the export --outline data
type outlinePayload struct {
	*export.Outline
	Markdown string `json:"markdown"`
}

// importResult is the import command's data
type importResult struct {
	Path string `json:"path"`
	storage.WriteStats
}

type exportOptions struct {
	out         string
	level       string
	omitPrompts bool
	outline     bool
}

func newExportCmd(g *globalOptions) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the graph as a compressed bundle",
		Long: `Write every component, connection, prompt and the file map to a single
zstd-compressed JSON bundle that can be shared or imported elsewhere.
With --outline, print a Markdown outline of the graph grouped by layer
instead, sized for pasting into an LLM conversation.

Examples:
  archgraph export
  archgraph export --out shop.archgraph.zst --level best
  archgraph export --outline`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return g.fail(cmd, err)
			}
			defer a.close()
			return runExport(cmd, a, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Bundle path (default <project>"+export.Extension+")")
	cmd.Flags().StringVar(&opts.level, "level", "default", "Compression level: fastest, default, better or best")
	cmd.Flags().BoolVar(&opts.omitPrompts, "omit-prompts", false, "Leave full prompt text out of the bundle")
	cmd.Flags().BoolVar(&opts.outline, "outline", false, "Print a Markdown outline instead of writing a bundle")
	return cmd
}

func runExport(cmd *cobra.Command, a *app, opts *exportOptions) error {
	exp := export.NewExporter(a.store(), a.logger)
	bundle, err := exp.Build(cmd.Context(), export.Options{
		ProjectPath: a.root,
		Level:       opts.level,
		OmitPrompts: opts.omitPrompts,
		Now:         a.now,
	})
	if err != nil {
		return a.emit(envelope.Failure(err))
	}

	if opts.outline {
		o := export.Organize(bundle)
		return a.emit(envelope.Operational(outlinePayload{Outline: o, Markdown: o.Markdown()}))
	}

	path := opts.out
	if path == "" {
		path = filepath.Base(a.root) + export.Extension
	}
	path, _ = filepath.Abs(path)
	n, err := export.WriteFile(path, bundle, opts.level)
	if err != nil {
		return a.emit(envelope.Failure(err))
	}
	a.logger.Info("Bundle written", "path", path, "bytes", n)
	return a.emit(envelope.Operational(exportResult{Path: path, Bytes: n, Level: opts.level, Stats: bundle.Stats}))
}

func newImportCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <bundle>",
		Short: "Merge an exported bundle into the store",
		Long: `Read a bundle written by 'archgraph export' and merge its records into
this project's store, then rebuild the index, graph, file map and summary.
Records already present keep the higher confidence of the two.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return g.fail(cmd, err)
			}
			defer a.close()

			path, _ := filepath.Abs(args[0])
			bundle, err := export.ReadFile(path)
			if err != nil {
				return a.emit(envelope.Failure(err))
			}
			store := a.store()
			stats, err := export.NewExporter(store, a.logger).Restore(cmd.Context(), bundle)
			if err != nil {
				return a.emit(envelope.Failure(err))
			}
			if err := a.rebuildDerived(cmd.Context(), store); err != nil {
				return a.emit(envelope.Failure(err))
			}
			return a.emit(envelope.Operational(importResult{Path: path, WriteStats: stats}))
		},
	}
}
