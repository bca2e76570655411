package main

import (
	"github.com/spf13/cobra"

	"archgraph/internal/version"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	project   string
	json      bool
	verbosity int
	quiet     bool
	logFormat string
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "archgraph",
		Short: "archgraph - architecture graph extraction",
		Long: `archgraph scans a project for the components it is built from (services,
databases, queues, external APIs, LLM prompts) and the connections between
them, stores the result as a versioned graph under .archgraph/, and answers
trace, subgraph, coverage and rule queries over it.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("archgraph version {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.project, "project", "C", ".", "Project root")
	pf.BoolVar(&g.json, "json", false, "Print the JSON response envelope")
	pf.CountVarP(&g.verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "Suppress log output")
	pf.StringVar(&g.logFormat, "log-format", "", "Log format: auto, text or json (default from config)")

	cmd.AddCommand(
		newScanCmd(g),
		newTraceCmd(g),
		newSubgraphCmd(g),
		newCoverageCmd(g),
		newRulesCmd(g),
		newSummaryCmd(g),
		newSnapshotCmd(g),
		newHistoryCmd(g),
		newExportCmd(g),
		newImportCmd(g),
		newDeleteCmd(g),
		newWatchCmd(g),
		newServeCmd(g),
		newVersionCmd(g),
	)
	return cmd
}
