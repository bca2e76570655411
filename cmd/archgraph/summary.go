package main

import (
	"os"

	"github.com/spf13/cobra"

	"archgraph/internal/envelope"
	"archgraph/internal/errors"
)

// summaryPayload is the summary command's data
type summaryPayload struct {
	Full     bool   `json:"full"`
	Markdown string `json:"markdown"`
}

func newSummaryCmd(g *globalOptions) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the SUMMARY.md written by the last scan",
		Long: `Print the Markdown summary written by the last scan. Large projects get a
compressed summary; --full prints the uncompressed one when it exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return g.fail(cmd, err)
			}
			defer a.close()

			text, err := a.store().ReadSummary(full)
			if err != nil {
				if os.IsNotExist(err) {
					err = errors.New(errors.StoreMissing, "no summary found; run a scan first", err).
						WithFix(errors.FixAction{Type: errors.RunCommand, Command: "archgraph scan", Description: "Scan the project first"})
				}
				return a.emit(envelope.Failure(err))
			}
			return a.emit(envelope.Operational(summaryPayload{Full: full, Markdown: text}))
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Print the uncompressed summary")
	return cmd
}
