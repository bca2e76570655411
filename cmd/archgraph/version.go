package main

import (
	"github.com/spf13/cobra"

	"archgraph/internal/envelope"
	"archgraph/internal/version"
)

func newVersionCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := FormatHuman
			if g.json {
				format = FormatJSON
			}
			return writeResponse(cmd.OutOrStdout(), cmd.ErrOrStderr(), envelope.Operational(version.Get()), format)
		},
	}
}
