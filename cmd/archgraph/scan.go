package main

import (
	"github.com/spf13/cobra"

	"archgraph/internal/envelope"
)

func newScanCmd(g *globalOptions) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the project and update the architecture store",
		Long: `Scan the project, run every detector over new and changed files and merge
the results into the store. Unchanged files are skipped unless --full is
given or most of the tree changed since the last scan.

Examples:
  archgraph scan
  archgraph scan --full
  archgraph scan -C ../shop --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return g.fail(cmd, err)
			}
			defer a.close()
			return runScan(cmd, a, full)
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Run detectors over every file")
	return cmd
}

func runScan(cmd *cobra.Command, a *app, full bool) error {
	scanner, err := a.scanner()
	if err != nil {
		return a.emit(envelope.Failure(err))
	}
	res, err := scanner.Scan(cmd.Context(), full)
	if err != nil {
		return a.emit(envelope.Failure(err))
	}

	b := envelope.New().
		Data(res).
		WithProvenance(a.layout.Root, res.Components, res.Connections, a.now())
	for _, w := range res.Warnings {
		msg := w.Message
		if w.File != "" {
			msg = w.File + ": " + msg
		}
		b.WarningWithCode(w.Type, msg)
	}
	if res.Components > 0 {
		b.SuggestCalls(
			envelope.ParseSuggestion("coverage", "check how much of the tree is attributed"),
			envelope.ParseSuggestion("rules", "look for architecture smells"),
		)
	}
	return a.emit(b.Build())
}
