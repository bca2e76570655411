package main

import (
	"github.com/spf13/cobra"

	"archgraph/internal/envelope"
)

func newCoverageCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "coverage",
		Short: "Report how much of the project the graph explains",
		Long: `Report the share of project files attributed to a component, the
confidence distribution of connections, structural gaps (orphans,
low-confidence edges, unknown classifications) and an overall confidence
score.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return g.fail(cmd, err)
			}
			defer a.close()

			v, err := a.view(cmd.Context())
			if err != nil {
				return a.emit(envelope.Failure(err))
			}
			report := v.Coverage()
			b := v.Envelope(a.now()).
				Data(report).
				WithConfidence(report.OverallConfidence, len(v.Records.Components) == 0,
					envelope.ConfidenceFactor{Factor: "connection_confidence", Status: "mean", Impact: report.ConnectionCoverage.MeanConfidence},
					envelope.ConfidenceFactor{Factor: "file_coverage", Status: "ratio", Impact: report.ComponentCoverage.Ratio},
				)
			if len(report.Gaps) > 0 {
				b.SuggestCalls(envelope.ParseSuggestion("rules", "gaps often surface as rule violations"))
			}
			return a.emit(b.Build())
		},
	}
}
